package credit

import (
	"context"

	"fitcore/internal/apperr"
	"fitcore/internal/logger"
	"fitcore/internal/metrics"
)

// Notifier delivers balance-change notices. Implementations must not fail
// the calling adjustment.
type Notifier interface {
	CreditsAdjusted(ctx context.Context, userID, membershipID, balance int)
}

type NopNotifier struct{}

func (NopNotifier) CreditsAdjusted(context.Context, int, int, int) {}

type Service interface {
	// Adjust is the administrative path. Subtractions that would go below
	// zero are clamped and flagged instead of rejected.
	Adjust(ctx context.Context, membershipID int, mode Mode, amount int, actor string) (*AdjustResult, error)

	// Debit is the consumption path used when a booking spends a credit.
	// It is strict: an insufficient balance is an error, never a clamp.
	Debit(ctx context.Context, membershipID, amount int, reason string) (*AdjustResult, error)

	History(ctx context.Context, membershipID int, limit, offset int) ([]Adjustment, error)
}

type service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &service{repo: repo, notifier: notifier}
}

func (s *service) Adjust(ctx context.Context, membershipID int, mode Mode, amount int, actor string) (*AdjustResult, error) {
	if !mode.Valid() {
		return nil, apperr.Validationf("unknown adjustment mode %q", mode)
	}
	if amount < 0 {
		return nil, apperr.Validation("amount must not be negative")
	}
	if amount == 0 && mode != ModeSet {
		return nil, apperr.Validation("amount must be positive")
	}
	if actor == "" {
		return nil, apperr.Validation("actor is required")
	}

	result, err := s.repo.Apply(ctx, membershipID, mode, amount, false, actor, ReasonAdminAdjust)
	if err != nil {
		return nil, err
	}

	metrics.RecordCreditAdjustment(string(mode), result.Clamped)
	logger.Info("credits adjusted",
		"membership_id", membershipID, "mode", mode, "amount", amount,
		"balance", result.Balance, "clamped", result.Clamped, "actor", actor)

	s.notifier.CreditsAdjusted(ctx, result.UserID, membershipID, result.Balance)
	return result, nil
}

func (s *service) Debit(ctx context.Context, membershipID, amount int, reason string) (*AdjustResult, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if reason == "" {
		reason = ReasonBooking
	}

	result, err := s.repo.Apply(ctx, membershipID, ModeSubtract, amount, true, "system", reason)
	if err != nil {
		return nil, err
	}

	metrics.RecordCreditAdjustment(string(ModeSubtract), false)
	logger.Debug("credits debited",
		"membership_id", membershipID, "amount", amount, "balance", result.Balance)
	return result, nil
}

func (s *service) History(ctx context.Context, membershipID int, limit, offset int) ([]Adjustment, error) {
	return s.repo.History(ctx, membershipID, limit, offset)
}
