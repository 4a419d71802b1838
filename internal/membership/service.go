package membership

import (
	"context"
	"errors"
	"time"

	"fitcore/internal/apperr"
	"fitcore/internal/logger"
	"fitcore/internal/metrics"
	"fitcore/internal/plan"
	"fitcore/internal/provider"
)

// PlanSource is the read side of the plan store the lifecycle manager needs.
// Satisfied by *plan.Cache.
type PlanSource interface {
	Get(ctx context.Context, id int) (*plan.Plan, error)
}

// CustomerSource resolves a user's provider customer reference. Satisfied by
// the member repository.
type CustomerSource interface {
	CustomerRef(ctx context.Context, userID int) (*string, error)
}

// Notifier delivers member-facing notices about lifecycle changes. Failures
// must be swallowed by the implementation; notification is never on the
// critical path.
type Notifier interface {
	CancellationRequested(ctx context.Context, userID int, planName string, effectiveAt time.Time)
}

type NopNotifier struct{}

func (NopNotifier) CancellationRequested(context.Context, int, string, time.Time) {}

type Service interface {
	Purchase(ctx context.Context, userID, planID int, startDate time.Time) (*Membership, error)
	Upgrade(ctx context.Context, userID, targetPlanID int) (*Membership, error)
	RequestCancellation(ctx context.Context, userID, membershipID int) (*Membership, error)
	CancelNow(ctx context.Context, membershipID int, reason string) error
	ActivateDue(ctx context.Context, now time.Time) (int, error)
	Reconcile(ctx context.Context, ev provider.Event) error
	GetForUser(ctx context.Context, userID int) ([]Membership, error)
}

type service struct {
	repo      Repository
	plans     PlanSource
	customers CustomerSource
	provider  provider.Client
	notifier  Notifier
}

func NewService(repo Repository, plans PlanSource, customers CustomerSource, providerClient provider.Client, notifier Notifier) Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &service{
		repo:      repo,
		plans:     plans,
		customers: customers,
		provider:  providerClient,
		notifier:  notifier,
	}
}

// Purchase creates the membership record for a plan purchase. One-time plans
// (credit packs, facility passes) activate as soon as their start date is
// reached; recurring plans stay pending until the provider confirms the first
// payment, which arrives through Reconcile.
func (s *service) Purchase(ctx context.Context, userID, planID int, startDate time.Time) (*Membership, error) {
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Validation("plan is not available for purchase")
	}
	if _, err := p.Rules(); err != nil {
		return nil, err
	}

	hasOpen, err := s.repo.HasOpenMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasOpen {
		return nil, apperr.Wrap(apperr.KindConflict, ErrAlreadyHasOpen)
	}

	if startDate.IsZero() {
		startDate = time.Now()
	}

	status := StatusPendingActivation
	if p.BillingInterval() == "" && !startDate.After(time.Now()) {
		status = StatusActive
	}

	customerID, err := s.customers.CustomerRef(ctx, userID)
	if err != nil {
		logger.Error("purchase: customer ref lookup failed", "user_id", userID, "error", err)
		customerID = nil
	}

	created, err := s.repo.Create(ctx, CreateParams{
		UserID:         userID,
		PlanID:         planID,
		Status:         status,
		StartDate:      startDate,
		InitialCredits: initialCredits(p),
		CustomerID:     customerID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMembershipTransition(string(status), "purchase")
	logger.Info("membership created",
		"membership_id", created.ID, "user_id", userID, "plan_id", planID, "status", status)
	return created, nil
}

// Upgrade creates a new pending membership on the target plan referencing the
// current one. The same path covers plan upgrades, downgrades and
// credits-to-subscription conversion. The old membership is cancelled only
// when the provider confirms payment for the new one (see Reconcile), never
// at checkout time, so an abandoned checkout leaves it untouched.
func (s *service) Upgrade(ctx context.Context, userID, targetPlanID int) (*Membership, error) {
	current, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.PlanID == targetPlanID {
		return nil, apperr.Validation("membership is already on this plan")
	}

	target, err := s.plans.Get(ctx, targetPlanID)
	if err != nil {
		return nil, err
	}
	if !target.IsActive {
		return nil, apperr.Validation("target plan is not available")
	}

	created, err := s.repo.Create(ctx, CreateParams{
		UserID:         userID,
		PlanID:         targetPlanID,
		Status:         StatusPendingActivation,
		StartDate:      time.Now(),
		InitialCredits: initialCredits(target),
		CustomerID:     current.StripeCustomerID,
		UpgradedFrom:   &current.ID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMembershipTransition(string(StatusPendingActivation), "upgrade")
	logger.Info("upgrade membership created",
		"membership_id", created.ID, "user_id", userID,
		"from_plan", current.PlanID, "to_plan", targetPlanID)
	return created, nil
}

// RequestCancellation is the member-initiated path: it records the request
// and schedules the provider subscription to end at period end. The status
// stays active until reconciliation observes the period actually ending.
func (s *service) RequestCancellation(ctx context.Context, userID, membershipID int) (*Membership, error) {
	m, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMembershipNotFound)
	}
	if m.Status != StatusActive {
		return nil, apperr.Wrap(apperr.KindConflict, ErrAlreadyCancelled)
	}
	if m.CancellationRequestedAt != nil {
		return nil, apperr.Wrap(apperr.KindConflict, ErrCancellationPending)
	}

	p, err := s.plans.Get(ctx, m.PlanID)
	if err != nil {
		return nil, err
	}
	if !p.CancellationAllowed {
		return nil, apperr.Wrap(apperr.KindPolicyMismatch, ErrNotCancellable)
	}

	now := time.Now()
	marked, err := s.repo.MarkCancellationRequested(ctx, membershipID, now)
	if err != nil {
		return nil, err
	}
	if !marked {
		// lost the race against a concurrent request
		return nil, apperr.Wrap(apperr.KindConflict, ErrCancellationPending)
	}

	if m.StripeSubscriptionID != nil {
		if err := s.provider.CancelSubscription(ctx, *m.StripeSubscriptionID, true); err != nil {
			// local intent is committed; the period-end schedule has to be
			// retried operationally
			logger.Error("failed to schedule provider cancellation",
				"membership_id", membershipID, "subscription_id", *m.StripeSubscriptionID, "error", err)
		}
	}

	s.notifier.CancellationRequested(ctx, userID, p.Name, now)
	logger.Info("cancellation requested", "membership_id", membershipID, "user_id", userID)

	return s.repo.GetByID(ctx, membershipID)
}

// CancelNow is the administrative path: immediate, synchronous transition.
func (s *service) CancelNow(ctx context.Context, membershipID int, reason string) error {
	m, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return err
	}
	if m.Status == StatusCancelled {
		return apperr.Wrap(apperr.KindConflict, ErrAlreadyCancelled)
	}

	// local transition first: losing the race against a concurrent cancel
	// must not issue a second provider call
	transitioned, err := s.repo.Transition(ctx, membershipID,
		[]Status{StatusActive, StatusPendingActivation}, StatusCancelled, reason)
	if err != nil {
		return err
	}
	if !transitioned {
		return apperr.Wrap(apperr.KindConflict, ErrAlreadyCancelled)
	}

	if m.StripeSubscriptionID != nil {
		if err := s.provider.CancelSubscription(ctx, *m.StripeSubscriptionID, false); err != nil {
			logger.Error("failed to cancel provider subscription",
				"membership_id", membershipID, "subscription_id", *m.StripeSubscriptionID, "error", err)
		}
	}

	metrics.RecordMembershipTransition(string(StatusCancelled), reason)
	logger.Info("membership cancelled", "membership_id", membershipID, "reason", reason)
	return nil
}

// ActivateDue flips future-dated memberships whose start date has been
// reached. Run periodically; each transition is conditional, so overlapping
// sweeps cannot double-activate.
func (s *service) ActivateDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListPendingDue(ctx, now)
	if err != nil {
		return 0, err
	}

	activated := 0
	for _, m := range due {
		// recurring memberships wait for payment confirmation instead
		p, err := s.plans.Get(ctx, m.PlanID)
		if err != nil {
			logger.Error("activate sweep: plan lookup failed", "membership_id", m.ID, "error", err)
			continue
		}
		if p.BillingInterval() != "" && m.StripeSubscriptionID == nil {
			continue
		}

		ok, err := s.repo.Transition(ctx, m.ID,
			[]Status{StatusPendingActivation}, StatusActive, "start_date_reached")
		if err != nil {
			logger.Error("activate sweep: transition failed", "membership_id", m.ID, "error", err)
			continue
		}
		if ok {
			activated++
			metrics.RecordMembershipTransition(string(StatusActive), "start_date_reached")
		}
	}
	return activated, nil
}

// Reconcile maps a provider lifecycle event onto a local transition.
// Duplicate deliveries are no-ops: the conditional transition matches
// nothing the second time.
func (s *service) Reconcile(ctx context.Context, ev provider.Event) error {
	switch ev.Type {
	case provider.EventSubscriptionCancelled:
		return s.reconcileCancelled(ctx, ev)
	case provider.EventPaymentSucceeded:
		return s.reconcilePayment(ctx, ev)
	case provider.EventIgnored:
		return nil
	default:
		logger.Debug("reconcile: unhandled event type", "type", ev.Type, "event_id", ev.ProviderID)
		return nil
	}
}

func (s *service) reconcileCancelled(ctx context.Context, ev provider.Event) error {
	if ev.SubscriptionID == "" {
		return apperr.Validation("subscription cancelled event without subscription id")
	}

	m, err := s.repo.GetBySubscriptionRef(ctx, ev.SubscriptionID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			logger.Info("reconcile: cancelled event for unknown subscription",
				"subscription_id", ev.SubscriptionID, "event_id", ev.ProviderID)
			return nil
		}
		return err
	}

	transitioned, err := s.repo.Transition(ctx, m.ID,
		[]Status{StatusActive, StatusPendingActivation}, StatusCancelled, ReasonProviderCancelled)
	if err != nil {
		return err
	}
	if !transitioned {
		logger.Info("reconcile: duplicate cancellation event",
			"membership_id", m.ID, "event_id", ev.ProviderID)
		return nil
	}

	metrics.RecordMembershipTransition(string(StatusCancelled), ReasonProviderCancelled)
	logger.Info("membership cancelled via provider event",
		"membership_id", m.ID, "subscription_id", ev.SubscriptionID)
	return nil
}

func (s *service) reconcilePayment(ctx context.Context, ev provider.Event) error {
	if ev.SubscriptionID == "" {
		// one-time invoices carry no subscription; nothing to reconcile
		return nil
	}

	m, err := s.repo.GetBySubscriptionRef(ctx, ev.SubscriptionID)
	if err != nil {
		if !errors.Is(err, ErrMembershipNotFound) {
			return err
		}
		// first invoice of a new subscription: checkout never learns the
		// subscription id, so bind it to the customer's pending membership
		m, err = s.bindSubscription(ctx, ev)
		if err != nil {
			return err
		}
		if m == nil {
			logger.Info("reconcile: payment event for unknown subscription",
				"subscription_id", ev.SubscriptionID, "event_id", ev.ProviderID)
			return nil
		}
	}

	if m.Status == StatusPendingActivation {
		ok, err := s.repo.Transition(ctx, m.ID,
			[]Status{StatusPendingActivation}, StatusActive, "payment_confirmed")
		if err != nil {
			return err
		}
		if ok {
			metrics.RecordMembershipTransition(string(StatusActive), "payment_confirmed")
			logger.Info("membership activated via payment", "membership_id", m.ID)
		}
	}

	// confirmed payment on an upgrade retires the membership it replaces
	if m.UpgradedFrom != nil {
		if err := s.CancelNow(ctx, *m.UpgradedFrom, ReasonUpgraded); err != nil {
			if errors.Is(err, ErrAlreadyCancelled) || errors.Is(err, ErrMembershipNotFound) {
				return nil
			}
			return err
		}
	}
	return nil
}

// bindSubscription correlates a payment event with no matching subscription
// ref to the customer's pending membership and persists the ref. Returns nil
// without error when nothing correlates; the event is then dropped.
func (s *service) bindSubscription(ctx context.Context, ev provider.Event) (*Membership, error) {
	if ev.CustomerID == "" {
		return nil, nil
	}

	m, err := s.repo.GetPendingByCustomerRef(ctx, ev.CustomerID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.repo.SetProviderRefs(ctx, m.ID, nil, &ev.SubscriptionID); err != nil {
		return nil, err
	}
	m.StripeSubscriptionID = &ev.SubscriptionID

	logger.Info("reconcile: subscription bound to pending membership",
		"membership_id", m.ID, "subscription_id", ev.SubscriptionID, "customer_id", ev.CustomerID)
	return m, nil
}

func (s *service) GetForUser(ctx context.Context, userID int) ([]Membership, error) {
	return s.repo.ListByUser(ctx, userID)
}

func initialCredits(p *plan.Plan) int {
	rules, err := p.Rules()
	if err != nil || rules.Family != plan.RuleCredits {
		return 0
	}
	if p.CreditAmount == nil {
		return 0
	}
	return *p.CreditAmount
}
