package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type ItemSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category,omitempty"`
}

type LineItemDetails struct {
	Item        ItemSummary    `json:"item"`
	Seller      UserSummary    `json:"seller"`
	Status      LineItemStatus `json:"status"`
	OTP         string         `json:"otp,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// OrderDetails is an order with buyer, sellers and items resolved for display.
type OrderDetails struct {
	ID        string            `json:"id"`
	Buyer     UserSummary       `json:"buyer"`
	Items     []LineItemDetails `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	Status    OrderStatus       `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type DeliveryResult struct {
	Completed   bool        `json:"completed"`
	OrderStatus OrderStatus `json:"order_status"`
}

func SummarizeUser(u User) UserSummary {
	return UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func SummarizeItem(i Item) ItemSummary {
	return ItemSummary{ID: i.ID, Name: i.Name, Description: i.Description, Price: i.Price, Category: i.Category}
}
