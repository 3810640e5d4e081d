package model

import "time"

// Order statuses.
const (
	OrderPending   = "PENDING"
	OrderCompleted = "COMPLETED"
	OrderCancelled = "CANCELLED"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	return s == OrderPending || s == OrderCompleted || s == OrderCancelled
}

// Order is a parts order placed by a client. The total price is
// never taken from the caller; it is recomputed from the items on
// every create and update.
//
// Fields:
//  ID         – primary key identifier.
//  ClientID   – user who placed the order.
//  Items      – ordered line items.
//  TotalPrice – Σ(quantity × unit price) over Items.
//  Status     – PENDING, COMPLETED or CANCELLED.
//  OrderDate  – when the order was placed.
type Order struct {
	ID         uint64      // orders.id
	ClientID   uint64      // orders.client_id
	Items      []OrderItem // order_items rows
	TotalPrice float64     // orders.total_price
	Status     string      // orders.status
	OrderDate  time.Time   // orders.order_date
}

// OrderItem is a single line in an order.
//
// Fields:
//  ID          – primary key identifier.
//  OrderID     – owning order.
//  ProductName – name of the ordered part.
//  Quantity    – number of units, at least 1.
//  UnitPrice   – price per unit.
type OrderItem struct {
	ID          uint64  `json:"-"`           // order_items.id
	OrderID     uint64  `json:"-"`           // order_items.order_id
	ProductName string  `json:"productName"` // order_items.product_name
	Quantity    int     `json:"quantity"`    // order_items.quantity
	UnitPrice   float64 `json:"unitPrice"`   // order_items.unit_price
}

// OrderTotal computes the authoritative total for a set of items.
func OrderTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}
