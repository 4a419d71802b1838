package credit

import "time"

// Mode selects how an adjustment amount is applied to the balance.
type Mode string

const (
	ModeAdd      Mode = "add"
	ModeSubtract Mode = "subtract"
	ModeSet      Mode = "set"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeAdd, ModeSubtract, ModeSet:
		return true
	}
	return false
}

// Reason codes recorded on the audit row.
const (
	ReasonAdminAdjust = "admin_adjust"
	ReasonBooking     = "booking"
	ReasonRefund      = "refund"
)

// Adjustment is one audit row of the credit ledger. Rows are append-only;
// the balance on the membership is always reconstructible from them.
type Adjustment struct {
	ID              int       `db:"id" json:"id"`
	MembershipID    int       `db:"membership_id" json:"membership_id"`
	Delta           int       `db:"delta" json:"delta"`
	PreviousBalance int       `db:"previous_balance" json:"previous_balance"`
	NewBalance      int       `db:"new_balance" json:"new_balance"`
	Actor           string    `db:"actor" json:"actor"`
	Reason          string    `db:"reason" json:"reason"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AdjustResult reports the outcome of a ledger write. Clamped is set when a
// subtraction would have gone below zero and was floored instead.
type AdjustResult struct {
	Adjustment Adjustment `json:"adjustment"`
	UserID     int        `json:"user_id"`
	Balance    int        `json:"balance"`
	Clamped    bool       `json:"clamped"`
}
