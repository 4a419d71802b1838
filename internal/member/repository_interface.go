package member

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	FindByID(ctx context.Context, id int) (*Member, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// CustomerRef reports the provider customer id, nil when the member was
	// never pushed to the provider.
	CustomerRef(ctx context.Context, userID int) (*string, error)
	SetCustomerRef(ctx context.Context, userID int, customerID string) error

	// ListOpenSubscriptionRefs returns the provider subscription ids of the
	// member's active and pending memberships, for the deletion cascade.
	ListOpenSubscriptionRefs(ctx context.Context, userID int) ([]string, error)

	// DeleteCascade removes the member and every dependent row in one
	// transaction: ledger entries, bookings, memberships, roles, stats,
	// then the profile itself.
	DeleteCascade(ctx context.Context, userID int) error
}
