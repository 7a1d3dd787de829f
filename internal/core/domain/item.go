package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryGrocery     Category = "grocery"
	CategoryElectronics Category = "electronics"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryClothing, CategoryGrocery, CategoryElectronics, CategoryOther:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusSold      ItemStatus = "sold"
)

type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    Category
	SellerID    string
	Status      ItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i Item) Available() bool {
	return i.Status == ItemStatusAvailable
}
