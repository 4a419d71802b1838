package entitlement

import (
	"context"
	"errors"
	"time"

	"fitcore/internal/apperr"
	"fitcore/internal/logger"
	"fitcore/internal/membership"
	"fitcore/internal/metrics"
	"fitcore/internal/plan"
)

// MembershipSource is the read side of the lifecycle store the evaluator
// needs. Satisfied by membership.Repository.
type MembershipSource interface {
	GetActiveByUser(ctx context.Context, userID int) (*membership.Membership, error)
}

// PlanSource is satisfied by *plan.Cache.
type PlanSource interface {
	Get(ctx context.Context, id int) (*plan.Plan, error)
}

type Service interface {
	// CanBook answers whether the user may book the resource at the given
	// instant. A missing membership is a denial, not an error; errors are
	// reserved for infrastructure and configuration failures.
	CanBook(ctx context.Context, userID int, resource ResourceKind, at time.Time) (Decision, error)
}

type service struct {
	memberships MembershipSource
	plans       PlanSource
	usage       UsageCounter
	location    *time.Location
}

func NewService(memberships MembershipSource, plans PlanSource, usage UsageCounter, location *time.Location) Service {
	if location == nil {
		location = time.UTC
	}
	return &service{
		memberships: memberships,
		plans:       plans,
		usage:       usage,
		location:    location,
	}
}

func (s *service) CanBook(ctx context.Context, userID int, resource ResourceKind, at time.Time) (Decision, error) {
	if !resource.Valid() {
		return Decision{}, apperr.Validationf("unknown resource kind %q", resource)
	}
	if at.IsZero() {
		at = time.Now()
	}

	m, err := s.memberships.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, membership.ErrNoActiveMembership) {
			decision := Decision{Allowed: false, Reason: ReasonNoMembership}
			metrics.RecordEntitlementCheck(false, ReasonNoMembership)
			return decision, nil
		}
		return Decision{}, err
	}

	p, err := s.plans.Get(ctx, m.PlanID)
	if err != nil {
		return Decision{}, err
	}
	rules, err := p.Rules()
	if err != nil {
		return Decision{}, err
	}

	usageCount := 0
	if rules.Family == plan.RuleLimited && resource == ResourceClass {
		from, to := UsageWindow(rules.LimitPeriod, at, s.location)
		usageCount, err = s.usage.CountBookings(ctx, userID, resource, from, to)
		if err != nil {
			return Decision{}, err
		}
	}

	decision := Evaluate(rules, resource, usageCount, m.RemainingCredits)
	metrics.RecordEntitlementCheck(decision.Allowed, decision.Reason)
	logger.Debug("entitlement check",
		"user_id", userID, "resource", resource,
		"allowed", decision.Allowed, "reason", decision.Reason)
	return decision, nil
}
