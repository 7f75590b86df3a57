package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductStatus is the availability of a listed product
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSold      ProductStatus = "sold"
	ProductStatusReserved  ProductStatus = "reserved"
)

// Category is a named product grouping owned by one account.
// Products reference categories by name, not by id.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product represents a listed product in a seller catalog
type Product struct {
	ID               uuid.UUID           `json:"id" db:"id"`
	OwnerID          uuid.UUID           `json:"owner_id" db:"owner_id"`
	Title            string              `json:"title" db:"title"`
	Description      string              `json:"description" db:"description"`
	Price            decimal.Decimal     `json:"price" db:"price"`
	DiscountedPrice  decimal.NullDecimal `json:"discounted_price" db:"discounted_price"`
	Status           ProductStatus       `json:"status" db:"status"`
	Categories       pq.StringArray      `json:"categories" db:"categories"`
	Brand            string              `json:"brand" db:"brand"`
	Model            string              `json:"model" db:"model"`
	Gender           string              `json:"gender" db:"gender"`
	Condition        string              `json:"condition" db:"condition"`
	Visible          bool                `json:"visible" db:"visible"`
	CheckoutURL      string              `json:"checkout_url" db:"checkout_url"`
	Colors           pq.StringArray      `json:"colors" db:"colors"`
	Sizes            pq.StringArray      `json:"sizes" db:"sizes"`
	DisplayOrder     int                 `json:"display_order" db:"display_order"`
	FeaturedImageURL *string             `json:"featured_image_url" db:"featured_image_url"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// CloneFor copies the scalar fields of p into a new product owned by ownerID.
// The featured image is left unset; it is recomputed after images are duplicated.
func (p *Product) CloneFor(ownerID uuid.UUID, now time.Time) *Product {
	return &Product{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Title:           p.Title,
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Status:          p.Status,
		Categories:      append(pq.StringArray(nil), p.Categories...),
		Brand:           p.Brand,
		Model:           p.Model,
		Gender:          p.Gender,
		Condition:       p.Condition,
		Visible:         p.Visible,
		CheckoutURL:     p.CheckoutURL,
		Colors:          append(pq.StringArray(nil), p.Colors...),
		Sizes:           append(pq.StringArray(nil), p.Sizes...),
		DisplayOrder:    p.DisplayOrder,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Image is a hosted picture of a product
type Image struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	URL        string    `json:"url" db:"url"`
	IsFeatured bool      `json:"is_featured" db:"is_featured"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
