package member

import (
	"time"

	"fitcore/internal/provider"
)

type Member struct {
	ID               int       `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Role             string    `db:"role" json:"role"`
	StripeCustomerID *string   `db:"stripe_customer_id" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Member       Member `json:"member"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// DeleteResult summarizes the account deletion cascade. Provider failures
// are reported, not fatal: the local data is gone either way.
type DeleteResult struct {
	UserID                 int                  `json:"user_id"`
	CancelledSubscriptions int                  `json:"cancelled_subscriptions"`
	CustomerDeleted        bool                 `json:"customer_deleted"`
	Errors                 []provider.ItemError `json:"errors,omitempty"`
}
