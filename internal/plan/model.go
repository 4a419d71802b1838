package plan

import (
	"time"

	"fitcore/internal/apperr"
)

type RuleFamily string

const (
	RuleUnlimited   RuleFamily = "unlimited"
	RuleLimited     RuleFamily = "limited"
	RuleCredits     RuleFamily = "credits"
	RuleOpenGymOnly RuleFamily = "open_gym_only"

	// RuleNone is the deny-by-default family used when a legacy booking
	// type cannot be mapped. It is never stored.
	RuleNone RuleFamily = ""
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

type PaymentFrequency string

const (
	PayOneTime PaymentFrequency = "one_time"
	PayMonthly PaymentFrequency = "monthly"
	PayYearly  PaymentFrequency = "yearly"
)

// BookingRules is the resolved entitlement policy of a plan.
// LimitCount/LimitPeriod are meaningful only for RuleLimited.
type BookingRules struct {
	Family      RuleFamily `json:"family"`
	LimitCount  int        `json:"limit_count,omitempty"`
	LimitPeriod Period     `json:"limit_period,omitempty"`
}

type Plan struct {
	ID                  int              `db:"id" json:"id"`
	Name                string           `db:"name" json:"name"`
	RuleFamily          *string          `db:"rule_family" json:"rule_family,omitempty"`
	BookingType         *string          `db:"booking_type" json:"booking_type,omitempty"`
	LimitCount          *int             `db:"limit_count" json:"limit_count,omitempty"`
	LimitPeriod         *string          `db:"limit_period" json:"limit_period,omitempty"`
	CreditAmount        *int             `db:"credit_amount" json:"credit_amount,omitempty"`
	PriceCents          int64            `db:"price_cents" json:"price_cents"`
	Currency            string           `db:"currency" json:"currency"`
	PaymentFrequency    PaymentFrequency `db:"payment_frequency" json:"payment_frequency"`
	CancellationAllowed bool             `db:"cancellation_allowed" json:"cancellation_allowed"`
	StripeProductID     *string          `db:"stripe_product_id" json:"stripe_product_id,omitempty"`
	StripePriceID       *string          `db:"stripe_price_id" json:"stripe_price_id,omitempty"`
	SyncedPriceCents    *int64           `db:"synced_price_cents" json:"-"`
	IsActive            bool             `db:"is_active" json:"is_active"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// legacyFamilies maps pre-v2 free-form booking type codes onto rule families.
// Codes missing from the table deny by default instead of granting unlimited
// access.
var legacyFamilies = map[string]RuleFamily{
	"unlimited":     RuleUnlimited,
	"limited":       RuleLimited,
	"monthly_limit": RuleLimited,
	"weekly_limit":  RuleLimited,
	"credits":       RuleCredits,
	"open_gym_only": RuleOpenGymOnly,
}

// LegacyRuleFamily resolves a legacy booking-type code. ok is false for
// unknown codes.
func LegacyRuleFamily(code string) (RuleFamily, bool) {
	family, ok := legacyFamilies[code]
	return family, ok
}

// Rules resolves the plan's entitlement policy. The structured rule_family is
// authoritative; the legacy booking_type string is consulted only when the
// structured field is absent. Malformed structured data is a configuration
// error, not a denial.
func (p *Plan) Rules() (BookingRules, error) {
	if p.RuleFamily != nil && *p.RuleFamily != "" {
		return p.structuredRules(RuleFamily(*p.RuleFamily))
	}

	if p.BookingType != nil && *p.BookingType != "" {
		family, ok := LegacyRuleFamily(*p.BookingType)
		if !ok {
			return BookingRules{Family: RuleNone}, nil
		}
		if family == RuleLimited {
			return p.legacyLimitedRules(*p.BookingType)
		}
		return BookingRules{Family: family}, nil
	}

	return BookingRules{Family: RuleNone}, nil
}

func (p *Plan) structuredRules(family RuleFamily) (BookingRules, error) {
	switch family {
	case RuleUnlimited, RuleCredits, RuleOpenGymOnly:
		return BookingRules{Family: family}, nil
	case RuleLimited:
		if p.LimitCount == nil || *p.LimitCount <= 0 {
			return BookingRules{}, apperr.Validationf("plan %d: limited policy without a positive limit_count", p.ID)
		}
		period := PeriodMonth
		if p.LimitPeriod != nil {
			switch Period(*p.LimitPeriod) {
			case PeriodWeek, PeriodMonth:
				period = Period(*p.LimitPeriod)
			default:
				return BookingRules{}, apperr.Validationf("plan %d: unknown limit_period %q", p.ID, *p.LimitPeriod)
			}
		}
		return BookingRules{Family: RuleLimited, LimitCount: *p.LimitCount, LimitPeriod: period}, nil
	default:
		return BookingRules{}, apperr.Validationf("plan %d: unknown rule_family %q", p.ID, family)
	}
}

func (p *Plan) legacyLimitedRules(code string) (BookingRules, error) {
	if p.LimitCount == nil || *p.LimitCount <= 0 {
		return BookingRules{}, apperr.Validationf("plan %d: legacy limited policy without a positive limit_count", p.ID)
	}
	period := PeriodMonth
	switch code {
	case "weekly_limit":
		period = PeriodWeek
	case "monthly_limit":
		period = PeriodMonth
	default:
		if p.LimitPeriod != nil && Period(*p.LimitPeriod) == PeriodWeek {
			period = PeriodWeek
		}
	}
	return BookingRules{Family: RuleLimited, LimitCount: *p.LimitCount, LimitPeriod: period}, nil
}

// BillingInterval maps the payment frequency onto the provider's price
// interval ("" means a one-time price).
func (p *Plan) BillingInterval() string {
	switch p.PaymentFrequency {
	case PayMonthly:
		return "month"
	case PayYearly:
		return "year"
	default:
		return ""
	}
}
