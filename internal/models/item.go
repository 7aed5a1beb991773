package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item описывает вещь в категории.
// Order хранится в колонке position и плотно нумерует вещи категории.
type Item struct {
	ID         uuid.UUID       `db:"id"`
	CategoryID uuid.UUID       `db:"category_id"`
	Brand      string          `db:"brand"`
	Size       string          `db:"size"`
	SKU        string          `db:"sku"`
	Price      decimal.Decimal `db:"price"`
	Color      string          `db:"color"`
	Sold       bool            `db:"sold"`
	Order      int             `db:"position"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}
