// Package provider wraps the external subscription/billing API. Everything
// above it talks to the Client interface so the engine can be exercised
// without network access.
package provider

import "context"

// Client is the outbound surface the engine consumes. Prices are immutable on
// the provider side: a price change means a new price object plus
// deactivation of the old one, never an in-place update.
type Client interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	DeleteCustomer(ctx context.Context, customerID string) error

	CreateProduct(ctx context.Context, name, description string) (string, error)
	UpdateProductMetadata(ctx context.Context, productID, name, description string) error
	ArchiveProduct(ctx context.Context, productID string) error

	// CreatePrice creates a price for the product. interval is "month",
	// "year", or "" for a one-time price.
	CreatePrice(ctx context.Context, productID string, amountCents int64, currency, interval string) (string, error)
	DeactivatePrice(ctx context.Context, priceID string) error

	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error
}
