package plan

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fitcore/internal/apperr"
	"fitcore/internal/logger"
	"fitcore/internal/metrics"
	"fitcore/internal/provider"
)

// SubscriptionRef identifies a membership that a plan-level cascade has to
// cancel, together with its provider subscription (empty when the membership
// was never synced to the provider).
type SubscriptionRef struct {
	MembershipID   int
	SubscriptionID string
}

// MembershipCanceller is the slice of the membership store the plan cascade
// needs. Implemented by membership.Repository.
type MembershipCanceller interface {
	ListCancellable(ctx context.Context, planID int) ([]SubscriptionRef, error)
	CancelAllForPlan(ctx context.Context, planID int, reason string) (int64, error)
}

// DeleteResult is the aggregate outcome of a DeletePlan cascade. The local
// deletion proceeds even when provider calls fail; failures are reported per
// item instead of aborting the batch.
type DeleteResult struct {
	AffectedMembers        int                  `json:"affected_members"`
	CancelledSubscriptions int                  `json:"cancelled_subscriptions"`
	Errors                 []provider.ItemError `json:"errors,omitempty"`
}

type CreateInput struct {
	Name                string           `json:"name" binding:"required"`
	RuleFamily          RuleFamily       `json:"rule_family" binding:"required"`
	LimitCount          *int             `json:"limit_count,omitempty"`
	LimitPeriod         *Period          `json:"limit_period,omitempty"`
	CreditAmount        *int             `json:"credit_amount,omitempty"`
	PriceCents          int64            `json:"price_cents" binding:"required"`
	Currency            string           `json:"currency"`
	PaymentFrequency    PaymentFrequency `json:"payment_frequency"`
	CancellationAllowed bool             `json:"cancellation_allowed"`
}

type UpdateInput struct {
	Name                string  `json:"name" binding:"required"`
	LimitCount          *int    `json:"limit_count,omitempty"`
	LimitPeriod         *Period `json:"limit_period,omitempty"`
	CreditAmount        *int    `json:"credit_amount,omitempty"`
	PriceCents          int64   `json:"price_cents" binding:"required"`
	Currency            string  `json:"currency"`
	CancellationAllowed bool    `json:"cancellation_allowed"`
	IsActive            bool    `json:"is_active"`
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Plan, error)
	Update(ctx context.Context, id int, in UpdateInput) (*Plan, error)
	Get(ctx context.Context, id int) (*Plan, error)
	List(ctx context.Context, onlyActive bool) ([]Plan, error)
	SyncPricing(ctx context.Context, id int) (*Plan, error)
	Delete(ctx context.Context, id int) (*DeleteResult, error)
}

const cascadeParallelism = 4

type service struct {
	repo        Repository
	cache       *Cache
	provider    provider.Client
	memberships MembershipCanceller
}

func NewService(repo Repository, cache *Cache, providerClient provider.Client, memberships MembershipCanceller) Service {
	return &service{
		repo:        repo,
		cache:       cache,
		provider:    providerClient,
		memberships: memberships,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Plan, error) {
	if in.Currency == "" {
		in.Currency = "EUR"
	}
	if in.PaymentFrequency == "" {
		in.PaymentFrequency = PayMonthly
	}

	family := string(in.RuleFamily)
	var periodStr *string
	if in.LimitPeriod != nil {
		str := string(*in.LimitPeriod)
		periodStr = &str
	}
	p := &Plan{
		Name:                in.Name,
		RuleFamily:          &family,
		LimitCount:          in.LimitCount,
		LimitPeriod:         periodStr,
		CreditAmount:        in.CreditAmount,
		PriceCents:          in.PriceCents,
		Currency:            in.Currency,
		PaymentFrequency:    in.PaymentFrequency,
		CancellationAllowed: in.CancellationAllowed,
		IsActive:            true,
	}
	if _, err := p.Rules(); err != nil {
		return nil, err
	}
	if in.PriceCents < 0 {
		return nil, apperr.Validation("price_cents must not be negative")
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	// Provision the provider product/price out of band of the local create:
	// a provider outage must not block plan administration.
	synced, err := s.SyncPricing(ctx, created.ID)
	if err != nil {
		logger.Error("plan created without provider pricing", "plan_id", created.ID, "error", err)
		return created, nil
	}
	return synced, nil
}

func (s *service) Update(ctx context.Context, id int, in UpdateInput) (*Plan, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = in.Name
	existing.LimitCount = in.LimitCount
	if in.LimitPeriod != nil {
		str := string(*in.LimitPeriod)
		existing.LimitPeriod = &str
	}
	if in.CreditAmount != nil {
		existing.CreditAmount = in.CreditAmount
	}
	existing.PriceCents = in.PriceCents
	if in.Currency != "" {
		existing.Currency = in.Currency
	}
	existing.CancellationAllowed = in.CancellationAllowed
	existing.IsActive = in.IsActive

	if _, err := existing.Rules(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return updated, nil
}

func (s *service) Get(ctx context.Context, id int) (*Plan, error) {
	return s.cache.Get(ctx, id)
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]Plan, error) {
	return s.repo.List(ctx, onlyActive)
}

// SyncPricing brings the provider's product and price objects in line with
// the stored plan. Provider prices are immutable: a changed price means a new
// price object and deactivation of the old one. An unchanged price only
// refreshes product metadata.
func (s *service) SyncPricing(ctx context.Context, id int) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.StripeProductID == nil {
		productID, err := s.provider.CreateProduct(ctx, p.Name, "")
		if err != nil {
			return nil, apperr.Provider("creating provider product", err)
		}
		priceID, err := s.provider.CreatePrice(ctx, productID, p.PriceCents, p.Currency, p.BillingInterval())
		if err != nil {
			// keep the product ref so a retry does not create duplicates
			if refErr := s.repo.SetProviderRefs(ctx, id, &productID, nil, nil); refErr != nil {
				logger.Error("failed to store provider product ref", "plan_id", id, "error", refErr)
			}
			return nil, apperr.Provider("creating provider price", err)
		}
		synced := p.PriceCents
		if err := s.repo.SetProviderRefs(ctx, id, &productID, &priceID, &synced); err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx, id)
		return s.repo.GetByID(ctx, id)
	}

	priceChanged := p.SyncedPriceCents == nil || *p.SyncedPriceCents != p.PriceCents
	if !priceChanged {
		if err := s.provider.UpdateProductMetadata(ctx, *p.StripeProductID, p.Name, ""); err != nil {
			return nil, apperr.Provider("updating provider product metadata", err)
		}
		return p, nil
	}

	newPriceID, err := s.provider.CreatePrice(ctx, *p.StripeProductID, p.PriceCents, p.Currency, p.BillingInterval())
	if err != nil {
		return nil, apperr.Provider("creating provider price", err)
	}
	if p.StripePriceID != nil {
		if err := s.provider.DeactivatePrice(ctx, *p.StripePriceID); err != nil {
			// old price stays active provider-side; the stored ref moves on
			logger.Error("failed to deactivate old provider price", "plan_id", id, "price_id", *p.StripePriceID, "error", err)
		}
	}
	synced := p.PriceCents
	if err := s.repo.SetProviderRefs(ctx, id, nil, &newPriceID, &synced); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return s.repo.GetByID(ctx, id)
}

// Delete runs the plan-deletion cascade. Provider-side actions happen before
// the local deletion so a crash mid-operation leaves recoverable state. The
// per-item provider failures never block the local intent.
func (s *service) Delete(ctx context.Context, id int) (*DeleteResult, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	refs, err := s.memberships.ListCancellable(ctx, id)
	if err != nil {
		return nil, err
	}

	var batch provider.BatchResult
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeParallelism)
	for _, ref := range refs {
		if ref.SubscriptionID == "" {
			continue
		}
		ref := ref
		g.Go(func() error {
			if err := s.provider.CancelSubscription(gctx, ref.SubscriptionID, false); err != nil {
				batch.AddFailure(ref.SubscriptionID, err)
				return nil
			}
			batch.AddSuccess(ref.SubscriptionID)
			return nil
		})
	}
	_ = g.Wait()

	if p.StripeProductID != nil {
		if err := s.provider.ArchiveProduct(ctx, *p.StripeProductID); err != nil {
			batch.AddFailure(*p.StripeProductID, err)
		}
	}

	if _, err := s.memberships.CancelAllForPlan(ctx, id, "plan_deleted"); err != nil {
		metrics.RecordCascade("delete_plan", "failed")
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.RecordCascade("delete_plan", "failed")
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	result := &DeleteResult{
		AffectedMembers:        len(refs),
		CancelledSubscriptions: batch.SuccessCount(),
		Errors:                 batch.Errors(),
	}
	outcome := "success"
	if len(result.Errors) > 0 {
		outcome = "partial"
	}
	metrics.RecordCascade("delete_plan", outcome)
	logger.Info("plan deleted",
		"plan_id", id,
		"affected_members", result.AffectedMembers,
		"cancelled_subscriptions", result.CancelledSubscriptions,
		"provider_errors", len(result.Errors),
	)
	return result, nil
}
