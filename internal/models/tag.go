package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
)

const MaxTagNameLength = 255

// Tag is a short label owned by one Account and attachable to its recipes.
type Tag struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

func (t *Tag) String() string {
	return t.Name
}

func ValidateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: tag name is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(name) > MaxTagNameLength {
		return fmt.Errorf("%w: tag name is longer than %d characters", common.ErrorValidation, MaxTagNameLength)
	}
	return nil
}
