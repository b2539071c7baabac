package domain

import "time"

// Product is a catalog row. The engines treat the catalog as read-only and
// join inventory against it; rows are provisioned through the admin surface.
type Product struct {
	ID             string
	OrganizationID string
	Slug           *string
	SKU            *string
	EAN            *string
	Title          string
	CreatedAt      time.Time
}
