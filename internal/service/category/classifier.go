package category

import (
	"fmt"
	"strings"

	"github.com/ougirez/shoplist/internal/domain"
)

// Classify maps a free-text provider type name onto a Category. Every input,
// including the empty string, yields exactly one category.
func Classify(providerTypeName string) domain.Category {
	name := strings.ToLower(providerTypeName)

	switch {
	case strings.Contains(name, "superm"):
		return domain.CategorySupermarket
	case strings.Contains(name, "ferreter"):
		return domain.CategoryHardware
	case strings.Contains(name, "farmac"):
		return domain.CategoryPharmacy
	default:
		return domain.CategoryOther
	}
}

func PromptTemplate(c domain.Category) string {
	switch c {
	case domain.CategorySupermarket:
		return "Sugiere una receta que pueda prepararse con los siguientes productos: %s."
	case domain.CategoryHardware:
		return "Explica cómo usar de forma segura las siguientes herramientas y materiales: %s."
	case domain.CategoryPharmacy:
		return "Indica la dosis habitual y las precauciones de los siguientes productos: %s."
	case domain.CategoryOther:
		return "Describe brevemente los siguientes productos: %s."
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

func ActionLabel(c domain.Category) string {
	switch c {
	case domain.CategorySupermarket:
		return "Sugerir receta"
	case domain.CategoryHardware:
		return "Cómo usar"
	case domain.CategoryPharmacy:
		return "Ver dosis"
	case domain.CategoryOther:
		return "Describir productos"
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

// BuildPrompt formats the list's product names into the category template.
func BuildPrompt(c domain.Category, productNames []string) string {
	return fmt.Sprintf(PromptTemplate(c), strings.Join(productNames, ", "))
}
