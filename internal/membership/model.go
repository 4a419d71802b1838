package membership

import "time"

type Status string

const (
	StatusPendingActivation Status = "pending_activation"
	StatusActive            Status = "active"
	StatusCancelled         Status = "cancelled"
)

// Cancellation reason codes recorded on the terminal transition.
const (
	ReasonMemberRequest     = "member_request"
	ReasonAdmin             = "admin"
	ReasonPlanDeleted       = "plan_deleted"
	ReasonMemberDeleted     = "member_deleted"
	ReasonUpgraded          = "upgraded"
	ReasonProviderCancelled = "provider_cancelled"
)

type Membership struct {
	ID                      int        `db:"id" json:"id"`
	UserID                  int        `db:"user_id" json:"user_id"`
	PlanID                  int        `db:"plan_id" json:"plan_id"`
	Status                  Status     `db:"status" json:"status"`
	StartDate               time.Time  `db:"start_date" json:"start_date"`
	EndDate                 *time.Time `db:"end_date" json:"end_date,omitempty"`
	StripeCustomerID        *string    `db:"stripe_customer_id" json:"-"`
	StripeSubscriptionID    *string    `db:"stripe_subscription_id" json:"-"`
	RemainingCredits        int        `db:"remaining_credits" json:"remaining_credits"`
	CancellationRequestedAt *time.Time `db:"cancellation_requested_at" json:"cancellation_requested_at,omitempty"`
	CancelReason            *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	UpgradedFrom            *int       `db:"upgraded_from" json:"upgraded_from,omitempty"`
	LastCreditUpdate        *time.Time `db:"last_credit_update" json:"last_credit_update,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateParams captures everything a purchase needs to write in one insert.
type CreateParams struct {
	UserID         int
	PlanID         int
	Status         Status
	StartDate      time.Time
	InitialCredits int
	CustomerID     *string
	SubscriptionID *string
	UpgradedFrom   *int
}
