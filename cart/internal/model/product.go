package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Stock     int32           `json:"stock"`
	Category  string          `json:"category"`
	Sizes     []string        `json:"sizes"`
	Colors    []string        `json:"colors"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OffersSize reports whether size can be selected. An empty selection is always allowed.
func (p Product) OffersSize(size string) bool {
	return size == "" || slices.Contains(p.Sizes, size)
}

func (p Product) OffersColor(color string) bool {
	return color == "" || slices.Contains(p.Colors, color)
}
