// Package store holds plain domain types that know nothing about
// projections. They serve as projection sources in examples and tests.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Audit is embedded by records that track who touched them.
type Audit struct {
	CreatedBy string
	CreatedAt time.Time
}

func (a *Audit) Touch(by string) {
	a.CreatedBy = by
	a.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

// Product is an item available for sale. Prices are in cents.
type Product struct {
	ID         uuid.UUID `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Inventory  int       `json:"inventory_count"`
	Tags       map[string]string
}

func (p *Product) InStock() bool { return p.Inventory > 0 }

type Address struct {
	Street string
	City   string
}

// Customer places orders. Address is optional.
type Customer struct {
	Email    string
	FullName string
	Address  *Address
	IsActive bool
}

func (c *Customer) Greeting(prefix string) string {
	return prefix + " " + c.FullName
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderItem snapshots the price of a product at the time of purchase.
type OrderItem struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice int64
}

func (i OrderItem) Subtotal() int64 { return int64(i.Quantity) * i.UnitPrice }

// Order is a transaction made by a customer.
type Order struct {
	Audit

	Number   string
	Status   OrderStatus
	Customer *Customer
	Items    []OrderItem
	Labels   map[string]struct{}
	Meta     map[string]any
}

func (o *Order) GetNumber() string { return o.Number }

// TotalCents sums the item subtotals.
func (o *Order) TotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}

	return total
}

func (o *Order) Cancel() error {
	if o.Status == StatusShipped {
		return ErrShipped
	}

	o.Status = StatusCancelled

	return nil
}
