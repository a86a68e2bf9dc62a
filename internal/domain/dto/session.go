package dto

import (
	"time"

	"github.com/ougirez/shoplist/internal/domain"
)

type AddItemRequest struct {
	SessionID string `param:"id" validate:"required,uuid"`
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type SetQuantityRequest struct {
	SessionID string `param:"id" validate:"required,uuid"`
	ProductID int64  `param:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type ItemRequest struct {
	SessionID string `param:"id" validate:"required,uuid"`
	ProductID int64  `param:"product_id" validate:"required,gt=0"`
}

type SessionRequest struct {
	SessionID string `param:"id" validate:"required,uuid"`
}

type LocationRequest struct {
	Lat        float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64    `json:"lng" validate:"gte=-180,lte=180"`
	Accuracy   float64    `json:"accuracy" validate:"gte=0"`
	CapturedAt *time.Time `json:"captured_at"`
}

type SelectProviderRequest struct {
	SessionID        string           `param:"id" validate:"required,uuid"`
	ProviderID       int64            `json:"provider_id" validate:"required,gt=0"`
	Location         *LocationRequest `json:"location" validate:"omitempty"`
	PermissionDenied bool             `json:"permission_denied"`
}

type BackfillQuotesRequest struct {
	ProviderID int64  `param:"id" validate:"required,gt=0"`
	URL        string `json:"url" validate:"required,url"`
}

type SessionResponse struct {
	ID         string                    `json:"id"`
	State      string                    `json:"state"`
	Items      []domain.ShoppingListItem `json:"items"`
	Ranking    []domain.ProviderTotal    `json:"ranking,omitempty"`
	Candidates []domain.ProviderTotal    `json:"candidates,omitempty"`
	ProviderID *int64                    `json:"provider_id,omitempty"`
	Branch     *domain.BranchDistance    `json:"branch,omitempty"`
	Navigation *domain.NavigationTarget  `json:"navigation,omitempty"`
	// NavigationEnabled is false whenever no branch could be resolved.
	NavigationEnabled bool   `json:"navigation_enabled"`
	Error             string `json:"error,omitempty"`
	Retryable         bool   `json:"retryable"`
	SavedListID       *int64 `json:"saved_list_id,omitempty"`
}

type AnalysisResponse struct {
	Category    domain.Category `json:"category"`
	ActionLabel string          `json:"action_label"`
	Reply       string          `json:"reply"`
}
