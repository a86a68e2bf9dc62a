package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	UnitID      int64     `db:"unit_id" json:"unit_id"`
	ImageRef    *string   `db:"image_ref" json:"image_ref,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type ProviderType struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Provider struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	ProviderTypeID int64     `db:"provider_type_id" json:"provider_type_id"`
	LogoRef        string    `db:"logo_ref" json:"logo_ref"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// PriceQuote is a (product, provider) price. Only the quote with the latest
// EffectiveAt is current for a pair.
type PriceQuote struct {
	ID            int64               `db:"id" json:"id"`
	ProductID     int64               `db:"product_id" json:"product_id"`
	ProviderID    int64               `db:"provider_id" json:"provider_id"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price" json:"discount_price"`
	EffectiveAt   time.Time           `db:"effective_at" json:"effective_at"`
}

func (q PriceQuote) EffectivePrice() decimal.Decimal {
	if q.DiscountPrice.Valid {
		return q.DiscountPrice.Decimal
	}
	return q.Price
}

type Branch struct {
	ID         int64   `db:"id" json:"id"`
	ProviderID int64   `db:"provider_id" json:"provider_id"`
	Name       string  `db:"name" json:"name"`
	Lat        float64 `db:"lat" json:"lat"`
	Lng        float64 `db:"lng" json:"lng"`
}

func (b Branch) Point() Point {
	return Point{Lat: b.Lat, Lng: b.Lng}
}

type BranchDistance struct {
	Branch     Branch  `json:"branch"`
	DistanceKm float64 `json:"distance_km"`
}

// ProviderTotal is derived from a list and a quote set and is never stored.
type ProviderTotal struct {
	ProviderID        int64           `json:"provider_id"`
	Total             decimal.Decimal `json:"total"`
	QuotedItems       int             `json:"quoted_items"`
	MissingProductIDs []int64         `json:"missing_product_ids,omitempty"`
}

type ShoppingListRecord struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ProviderID *int64    `db:"provider_id" json:"provider_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
