package model

import "time"

// Uncategorized is the placeholder category assigned before resolution.
const Uncategorized = "uncategorized"

// Category is a spending category a transaction can be assigned to.
type Category struct {
	CreatedAt time.Time
	Name      string
	ID        int
}

// MerchantCategory records the category a merchant was last assigned.
type MerchantCategory struct {
	UpdatedAt time.Time
	Merchant  string
	Category  string
}
