package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	r := &Recipe{Title: "Sample Recipe Name", TimeMinutes: 5, Price: decimal.RequireFromString("5.50")}
	assert.Equal(t, "Sample Recipe Name", r.String())
	assert.Equal(t, r.Title, fmt.Sprint(r))

	tag := &Tag{Name: "Tag1"}
	assert.Equal(t, "Tag1", tag.String())

	a := &Account{Email: "test@example.com"}
	assert.Equal(t, "test@example.com", a.String())
}

func TestAccount_Flags(t *testing.T) {
	a := &Account{IsActive: true, IsStaff: true}
	assert.Equal(t, AccountFlags{IsActive: true, IsStaff: true}, a.Flags())
}

func TestRecipeParams_Validate(t *testing.T) {
	valid := RecipeParams{Title: "Soup", TimeMinutes: 5, Price: decimal.RequireFromString("5.50")}

	tests := []struct {
		name    string
		mutate  func(p *RecipeParams)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *RecipeParams) {}},
		{name: "zero values allowed", mutate: func(p *RecipeParams) { p.TimeMinutes = 0; p.Price = decimal.Zero }},
		{name: "max price", mutate: func(p *RecipeParams) { p.Price = decimal.RequireFromString("999.99") }},
		{name: "empty title", mutate: func(p *RecipeParams) { p.Title = "  " }, wantErr: true},
		{name: "long title", mutate: func(p *RecipeParams) { p.Title = strings.Repeat("x", MaxTitleLength+1) }, wantErr: true},
		{name: "255 runes ok", mutate: func(p *RecipeParams) { p.Title = strings.Repeat("é", MaxTitleLength) }},
		{name: "negative time", mutate: func(p *RecipeParams) { p.TimeMinutes = -1 }, wantErr: true},
		{name: "negative price", mutate: func(p *RecipeParams) { p.Price = decimal.RequireFromString("-0.01") }, wantErr: true},
		{name: "three places", mutate: func(p *RecipeParams) { p.Price = decimal.RequireFromString("5.505") }, wantErr: true},
		{name: "trailing zero places ok", mutate: func(p *RecipeParams) { p.Price = decimal.RequireFromString("5.500") }},
		{name: "too many digits", mutate: func(p *RecipeParams) { p.Price = decimal.RequireFromString("1000") }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrorValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecipeParams_Apply(t *testing.T) {
	p := RecipeParams{Title: "T", Description: "D", Link: "https://example.com", TimeMinutes: 3, Price: decimal.NewFromInt(2)}
	r := &Recipe{ID: "keep"}
	p.Apply(r)

	assert.Equal(t, "keep", r.ID)
	assert.Equal(t, "T", r.Title)
	assert.Equal(t, "D", r.Description)
	assert.Equal(t, "https://example.com", r.Link)
	assert.Equal(t, 3, r.TimeMinutes)
	assert.True(t, r.Price.Equal(decimal.NewFromInt(2)))
}

func TestValidateTagName(t *testing.T) {
	assert.NoError(t, ValidateTagName("Tag1"))
	assert.ErrorIs(t, ValidateTagName(""), common.ErrorValidation)
	assert.ErrorIs(t, ValidateTagName(" \t"), common.ErrorValidation)
	assert.ErrorIs(t, ValidateTagName(strings.Repeat("t", MaxTagNameLength+1)), common.ErrorValidation)
}
