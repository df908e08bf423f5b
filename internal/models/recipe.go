package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/shopspring/decimal"
)

const (
	MaxTitleLength     = 255
	PriceDecimalPlaces = 2
	PriceMaxDigits     = 5
)

// Recipe image upload states.
const (
	ImageStatusNone     = ""
	ImageStatusPending  = "pending"
	ImageStatusUploaded = "uploaded"
)

var maxPrice = decimal.New(1, PriceMaxDigits-PriceDecimalPlaces)

// Recipe is owned by exactly one Account.
type Recipe struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Link        string
	TimeMinutes int
	Price       decimal.Decimal
	ImageKey    string
	ImageStatus string
	Tags        []Tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Recipe) String() string {
	return r.Title
}

// RecipeParams are the owner-editable fields of a Recipe.
type RecipeParams struct {
	Title       string
	Description string
	Link        string
	TimeMinutes int
	Price       decimal.Decimal
}

// Validate checks the title and the numeric fields. Price must fit
// NUMERIC(5,2): non-negative, at most two decimal places, below 1000.
func (p RecipeParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title is longer than %d characters", common.ErrorValidation, MaxTitleLength)
	}
	if p.TimeMinutes < 0 {
		return fmt.Errorf("%w: time_minutes must not be negative", common.ErrorValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", common.ErrorValidation)
	}
	if !p.Price.Equal(p.Price.Truncate(PriceDecimalPlaces)) {
		return fmt.Errorf("%w: price has more than %d decimal places", common.ErrorValidation, PriceDecimalPlaces)
	}
	if p.Price.GreaterThanOrEqual(maxPrice) {
		return fmt.Errorf("%w: price has more than %d digits", common.ErrorValidation, PriceMaxDigits)
	}
	return nil
}

// Apply copies the params onto r.
func (p RecipeParams) Apply(r *Recipe) {
	r.Title = p.Title
	r.Description = p.Description
	r.Link = p.Link
	r.TimeMinutes = p.TimeMinutes
	r.Price = p.Price
}
