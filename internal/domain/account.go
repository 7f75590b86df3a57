package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultListingLimit applies when an account has no positive listing limit.
const DefaultListingLimit = 50

// Role values stored on accounts
const (
	RoleAdmin   = "admin"
	RolePartner = "partner"
	RoleSeller  = "seller"
)

// Account represents a seller tenant (corretor) and its storefront profile
type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Slug         string    `json:"slug" db:"slug"`
	Role         string    `json:"role" db:"role"`
	Blocked      bool      `json:"blocked" db:"blocked"`
	ListingLimit int       `json:"listing_limit" db:"listing_limit"`

	Phone     string `json:"phone" db:"phone"`
	WhatsApp  string `json:"whatsapp" db:"whatsapp"`
	Bio       string `json:"bio" db:"bio"`
	City      string `json:"city" db:"city"`
	State     string `json:"state" db:"state"`
	Instagram string `json:"instagram" db:"instagram"`

	AvatarURL       string `json:"avatar_url" db:"avatar_url"`
	CoverURL        string `json:"cover_url" db:"cover_url"`
	CoverMobileURL  string `json:"cover_mobile_url" db:"cover_mobile_url"`
	BannerURL       string `json:"banner_url" db:"banner_url"`
	BannerMobileURL string `json:"banner_mobile_url" db:"banner_mobile_url"`

	// DisplaySettings is the storefront theme blob; the clone pipeline copies it untouched.
	DisplaySettings json.RawMessage `json:"display_settings,omitempty" db:"display_settings"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ListingLimitOr returns the product quota, falling back to fallback when the
// account has none. A non-positive fallback means DefaultListingLimit.
func (a *Account) ListingLimitOr(fallback int) int {
	if a != nil && a.ListingLimit > 0 {
		return a.ListingLimit
	}
	if fallback <= 0 {
		return DefaultListingLimit
	}
	return fallback
}

// ProfileImage names one of the account's profile image slots
type ProfileImage struct {
	Field string
	URL   *string
}

// ProfileImages returns pointers to the five profile image URL fields in a fixed order.
func (a *Account) ProfileImages() []ProfileImage {
	return []ProfileImage{
		{Field: "avatar", URL: &a.AvatarURL},
		{Field: "cover", URL: &a.CoverURL},
		{Field: "cover_mobile", URL: &a.CoverMobileURL},
		{Field: "banner", URL: &a.BannerURL},
		{Field: "banner_mobile", URL: &a.BannerMobileURL},
	}
}

// Inventory summarises what an account owns
type Inventory struct {
	AccountID               uuid.UUID `json:"account_id"`
	Email                   string    `json:"email"`
	Role                    string    `json:"role"`
	Blocked                 bool      `json:"blocked"`
	ListingLimit            int       `json:"listing_limit"`
	Categories              int       `json:"categories"`
	Products                int       `json:"products"`
	Images                  int       `json:"images"`
	ProductsWithoutFeatured int       `json:"products_without_featured_image"`
}
