package entitlement

import "fitcore/internal/plan"

// ResourceKind is what the member is trying to book.
type ResourceKind string

const (
	ResourceClass   ResourceKind = "class"
	ResourceOpenGym ResourceKind = "open_gym"
)

func (r ResourceKind) Valid() bool {
	return r == ResourceClass || r == ResourceOpenGym
}

// Denial reason codes returned to callers and used as metric labels.
const (
	ReasonOK                 = "ok"
	ReasonNoMembership       = "no_membership"
	ReasonLimitReached       = "limit_reached"
	ReasonNoCredits          = "no_credits"
	ReasonResourceNotCovered = "resource_not_covered"
	ReasonPlanNotBookable    = "plan_not_bookable"
)

// Decision is the outcome of an entitlement check. Remaining is set only
// when the policy meters usage (limited plans and credit packs).
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Remaining *int   `json:"remaining,omitempty"`
	Reason    string `json:"reason"`
}

// Evaluate applies a plan's booking policy to one prospective booking. It is
// pure: usageCount is the number of bookings already consumed in the current
// window, credits the membership's current balance.
//
// Open gym visits are unmetered on every bookable plan; limits and credits
// govern class bookings only.
func Evaluate(rules plan.BookingRules, resource ResourceKind, usageCount, credits int) Decision {
	if rules.Family == plan.RuleNone {
		return Decision{Allowed: false, Reason: ReasonPlanNotBookable}
	}

	if resource == ResourceOpenGym {
		return Decision{Allowed: true, Reason: ReasonOK}
	}

	switch rules.Family {
	case plan.RuleUnlimited:
		return Decision{Allowed: true, Reason: ReasonOK}

	case plan.RuleOpenGymOnly:
		return Decision{Allowed: false, Reason: ReasonResourceNotCovered}

	case plan.RuleLimited:
		remaining := rules.LimitCount - usageCount
		if remaining <= 0 {
			zero := 0
			return Decision{Allowed: false, Remaining: &zero, Reason: ReasonLimitReached}
		}
		return Decision{Allowed: true, Remaining: &remaining, Reason: ReasonOK}

	case plan.RuleCredits:
		if credits <= 0 {
			zero := 0
			return Decision{Allowed: false, Remaining: &zero, Reason: ReasonNoCredits}
		}
		balance := credits
		return Decision{Allowed: true, Remaining: &balance, Reason: ReasonOK}

	default:
		return Decision{Allowed: false, Reason: ReasonPlanNotBookable}
	}
}
