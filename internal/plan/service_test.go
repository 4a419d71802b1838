package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct{ mock.Mock }

func (m *MockProvider) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	args := m.Called(ctx, email, name)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockProvider) CreateProduct(ctx context.Context, name, description string) (string, error) {
	args := m.Called(ctx, name, description)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) UpdateProductMetadata(ctx context.Context, productID, name, description string) error {
	return m.Called(ctx, productID, name, description).Error(0)
}

func (m *MockProvider) ArchiveProduct(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *MockProvider) CreatePrice(ctx context.Context, productID string, amountCents int64, currency, interval string) (string, error) {
	args := m.Called(ctx, productID, amountCents, currency, interval)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) DeactivatePrice(ctx context.Context, priceID string) error {
	return m.Called(ctx, priceID).Error(0)
}

func (m *MockProvider) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	return m.Called(ctx, subscriptionID, atPeriodEnd).Error(0)
}

type MockCanceller struct{ mock.Mock }

func (m *MockCanceller) ListCancellable(ctx context.Context, planID int) ([]SubscriptionRef, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SubscriptionRef), args.Error(1)
}

func (m *MockCanceller) CancelAllForPlan(ctx context.Context, planID int, reason string) (int64, error) {
	args := m.Called(ctx, planID, reason)
	return args.Get(0).(int64), args.Error(1)
}

func newServiceWithMocks() (Service, *MockPlanRepo, *MockProvider, *MockCanceller) {
	repo := new(MockPlanRepo)
	prov := new(MockProvider)
	canceller := new(MockCanceller)
	cache := NewCache(nil, repo, 0)
	svc := NewService(repo, cache, prov, canceller)
	return svc, repo, prov, canceller
}

func int64Ptr(v int64) *int64 { return &v }

func TestSyncPricing_PriceChanged(t *testing.T) {
	svc, repo, prov, _ := newServiceWithMocks()
	ctx := context.Background()

	oldPrice := "price_old"
	before := &Plan{
		ID:               3,
		Name:             "Weekly Two",
		PriceCents:       2500,
		Currency:         "EUR",
		PaymentFrequency: PayMonthly,
		StripeProductID:  strPtr("prod_1"),
		StripePriceID:    &oldPrice,
		SyncedPriceCents: int64Ptr(2000),
	}
	after := &Plan{
		ID:               3,
		Name:             "Weekly Two",
		PriceCents:       2500,
		StripeProductID:  strPtr("prod_1"),
		StripePriceID:    strPtr("price_new"),
		SyncedPriceCents: int64Ptr(2500),
	}

	repo.On("GetByID", mock.Anything, 3).Return(before, nil).Once()
	prov.On("CreatePrice", mock.Anything, "prod_1", int64(2500), "EUR", "month").Return("price_new", nil).Once()
	prov.On("DeactivatePrice", mock.Anything, "price_old").Return(nil).Once()
	repo.On("SetProviderRefs", mock.Anything, 3, (*string)(nil), mock.MatchedBy(func(p *string) bool {
		return p != nil && *p == "price_new"
	}), mock.MatchedBy(func(s *int64) bool {
		return s != nil && *s == 2500
	})).Return(nil).Once()
	repo.On("GetByID", mock.Anything, 3).Return(after, nil).Once()

	synced, err := svc.SyncPricing(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, synced.StripePriceID)
	assert.Equal(t, "price_new", *synced.StripePriceID)

	repo.AssertExpectations(t)
	prov.AssertExpectations(t)
}

func TestSyncPricing_PriceUnchanged_MetadataOnly(t *testing.T) {
	svc, repo, prov, _ := newServiceWithMocks()

	p := &Plan{
		ID:               3,
		Name:             "Weekly Two",
		PriceCents:       2000,
		Currency:         "EUR",
		StripeProductID:  strPtr("prod_1"),
		StripePriceID:    strPtr("price_old"),
		SyncedPriceCents: int64Ptr(2000),
	}

	repo.On("GetByID", mock.Anything, 3).Return(p, nil).Once()
	prov.On("UpdateProductMetadata", mock.Anything, "prod_1", "Weekly Two", "").Return(nil).Once()

	synced, err := svc.SyncPricing(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "price_old", *synced.StripePriceID)

	prov.AssertNotCalled(t, "CreatePrice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	prov.AssertExpectations(t)
}

func TestSyncPricing_FirstSyncProvisionsProductAndPrice(t *testing.T) {
	svc, repo, prov, _ := newServiceWithMocks()

	before := &Plan{
		ID:               4,
		Name:             "Credits 10",
		PriceCents:       9900,
		Currency:         "EUR",
		PaymentFrequency: PayOneTime,
	}
	after := &Plan{
		ID:              4,
		Name:            "Credits 10",
		StripeProductID: strPtr("prod_new"),
		StripePriceID:   strPtr("price_new"),
	}

	repo.On("GetByID", mock.Anything, 4).Return(before, nil).Once()
	prov.On("CreateProduct", mock.Anything, "Credits 10", "").Return("prod_new", nil).Once()
	prov.On("CreatePrice", mock.Anything, "prod_new", int64(9900), "EUR", "").Return("price_new", nil).Once()
	repo.On("SetProviderRefs", mock.Anything, 4, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("GetByID", mock.Anything, 4).Return(after, nil).Once()

	synced, err := svc.SyncPricing(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "prod_new", *synced.StripeProductID)
}

func TestDelete_PartialProviderFailureStillDeletesLocally(t *testing.T) {
	svc, repo, prov, canceller := newServiceWithMocks()
	ctx := context.Background()

	p := &Plan{ID: 7, Name: "Doomed", StripeProductID: strPtr("prod_7")}
	repo.On("GetByID", mock.Anything, 7).Return(p, nil).Once()

	canceller.On("ListCancellable", mock.Anything, 7).Return([]SubscriptionRef{
		{MembershipID: 1, SubscriptionID: "sub_1"},
		{MembershipID: 2, SubscriptionID: "sub_2"},
		{MembershipID: 3, SubscriptionID: "sub_3"},
	}, nil).Once()

	prov.On("CancelSubscription", mock.Anything, "sub_1", false).Return(nil).Once()
	prov.On("CancelSubscription", mock.Anything, "sub_2", false).Return(errors.New("provider timeout")).Once()
	prov.On("CancelSubscription", mock.Anything, "sub_3", false).Return(nil).Once()
	prov.On("ArchiveProduct", mock.Anything, "prod_7").Return(nil).Once()

	canceller.On("CancelAllForPlan", mock.Anything, 7, "plan_deleted").Return(int64(3), nil).Once()
	repo.On("Delete", mock.Anything, 7).Return(nil).Once()

	result, err := svc.Delete(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 3, result.AffectedMembers)
	assert.Equal(t, 2, result.CancelledSubscriptions)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "sub_2", result.Errors[0].ID)

	repo.AssertExpectations(t)
	canceller.AssertExpectations(t)
}

func TestDelete_MembershipsWithoutProviderRefSkipProviderCall(t *testing.T) {
	svc, repo, prov, canceller := newServiceWithMocks()

	p := &Plan{ID: 8, Name: "Local only"}
	repo.On("GetByID", mock.Anything, 8).Return(p, nil).Once()
	canceller.On("ListCancellable", mock.Anything, 8).Return([]SubscriptionRef{
		{MembershipID: 10},
		{MembershipID: 11},
	}, nil).Once()
	canceller.On("CancelAllForPlan", mock.Anything, 8, "plan_deleted").Return(int64(2), nil).Once()
	repo.On("Delete", mock.Anything, 8).Return(nil).Once()

	result, err := svc.Delete(context.Background(), 8)
	require.NoError(t, err)

	assert.Equal(t, 2, result.AffectedMembers)
	assert.Equal(t, 0, result.CancelledSubscriptions)
	assert.Empty(t, result.Errors)
	prov.AssertNotCalled(t, "CancelSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_InvalidRulesRejectedBeforeInsert(t *testing.T) {
	svc, repo, _, _ := newServiceWithMocks()

	_, err := svc.Create(context.Background(), CreateInput{
		Name:       "Broken",
		RuleFamily: RuleLimited,
		PriceCents: 1000,
		// limited without limit_count is malformed
	})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
