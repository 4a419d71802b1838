package credit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fitcore/internal/apperr"
)

type MockLedger struct{ mock.Mock }

func (m *MockLedger) Apply(ctx context.Context, membershipID int, mode Mode, amount int, strict bool, actor, reason string) (*AdjustResult, error) {
	args := m.Called(ctx, membershipID, mode, amount, strict, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AdjustResult), args.Error(1)
}

func (m *MockLedger) History(ctx context.Context, membershipID int, limit, offset int) ([]Adjustment, error) {
	args := m.Called(ctx, membershipID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Adjustment), args.Error(1)
}

type recordingNotifier struct {
	userID, membershipID, balance int
	called                        bool
}

func (n *recordingNotifier) CreditsAdjusted(_ context.Context, userID, membershipID, balance int) {
	n.called = true
	n.userID = userID
	n.membershipID = membershipID
	n.balance = balance
}

func TestAdjust_ClampPropagatesToResult(t *testing.T) {
	ledger := new(MockLedger)
	notifier := &recordingNotifier{}
	svc := NewService(ledger, notifier)
	ctx := context.Background()

	ledger.On("Apply", ctx, 1, ModeSubtract, 100, false, "admin@gym.test", ReasonAdminAdjust).
		Return(&AdjustResult{
			Adjustment: Adjustment{MembershipID: 1, Delta: -30, PreviousBalance: 30, NewBalance: 0},
			UserID:     5,
			Balance:    0,
			Clamped:    true,
		}, nil)

	result, err := svc.Adjust(ctx, 1, ModeSubtract, 100, "admin@gym.test")
	require.NoError(t, err)
	assert.True(t, result.Clamped)
	assert.Equal(t, 0, result.Balance)
	assert.True(t, notifier.called)
	assert.Equal(t, 5, notifier.userID)
}

func TestAdjust_InvalidModeRejected(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, nil)

	_, err := svc.Adjust(context.Background(), 1, Mode("multiply"), 2, "admin@gym.test")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	ledger.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdjust_SetToZeroAllowed(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, nil)
	ctx := context.Background()

	ledger.On("Apply", ctx, 1, ModeSet, 0, false, "admin@gym.test", ReasonAdminAdjust).
		Return(&AdjustResult{Balance: 0}, nil)

	_, err := svc.Adjust(ctx, 1, ModeSet, 0, "admin@gym.test")
	assert.NoError(t, err)
}

func TestAdjust_ZeroAddRejected(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, nil)

	_, err := svc.Adjust(context.Background(), 1, ModeAdd, 0, "admin@gym.test")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDebit_IsStrict(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, nil)
	ctx := context.Background()

	ledger.On("Apply", ctx, 1, ModeSubtract, 1, true, "system", ReasonBooking).
		Return(nil, apperr.Wrap(apperr.KindConflict, ErrInsufficientCredits))

	_, err := svc.Debit(ctx, 1, 1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}
