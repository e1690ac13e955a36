package models

import "time"

// Product approval statuses. Only approved products are ever surfaced
// to buyers, whether through suggestions or instant search.
const (
	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
	ProductStatusRejected = "rejected"
)

// Product represents a seller listing. The suggestion and search
// subsystems treat products as read-only.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	SellerID    int64     `json:"sellerId"`
	SellerName  *string   `json:"sellerName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
