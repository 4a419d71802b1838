package member

import (
	"context"
	"time"

	"fitcore/internal/logger"
)

// Mailer is the outbound side of member notifications. Satisfied by
// *email.Service.
type Mailer interface {
	SendCancellationNotice(ctx context.Context, to, name, planName string, effectiveAt time.Time) error
	SendCreditNotice(ctx context.Context, to, name string, balance int) error
}

// Notifier resolves user ids to mail addresses and forwards lifecycle and
// ledger notices. It satisfies the notifier interfaces of the membership and
// credit packages; every failure is logged and swallowed.
type Notifier struct {
	repo   Repository
	mailer Mailer
}

func NewNotifier(repo Repository, mailer Mailer) *Notifier {
	return &Notifier{repo: repo, mailer: mailer}
}

func (n *Notifier) CancellationRequested(ctx context.Context, userID int, planName string, effectiveAt time.Time) {
	m, err := n.repo.FindByID(ctx, userID)
	if err != nil {
		logger.Error("cancellation notice: member lookup failed", "user_id", userID, "error", err)
		return
	}
	if err := n.mailer.SendCancellationNotice(ctx, m.Email, m.Name, planName, effectiveAt); err != nil {
		logger.Error("cancellation notice failed", "user_id", userID, "error", err)
	}
}

func (n *Notifier) CreditsAdjusted(ctx context.Context, userID, membershipID, balance int) {
	m, err := n.repo.FindByID(ctx, userID)
	if err != nil {
		logger.Error("credit notice: member lookup failed", "user_id", userID, "error", err)
		return
	}
	if err := n.mailer.SendCreditNotice(ctx, m.Email, m.Name, balance); err != nil {
		logger.Error("credit notice failed", "user_id", userID, "membership_id", membershipID, "error", err)
	}
}
