package member

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"fitcore/internal/apperr"
	"fitcore/internal/auth"
	"fitcore/internal/logger"
	"fitcore/internal/metrics"
	"fitcore/internal/provider"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// cascadeParallelism bounds concurrent provider calls during account
// deletion.
const cascadeParallelism = 4

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Member, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*Member, string, string, error)
	GetByID(ctx context.Context, userID int) (*Member, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *Member, error)

	// Delete removes the member everywhere: provider subscriptions are
	// cancelled, the provider customer deleted, then every local row. Local
	// deletion proceeds even when the provider is unreachable.
	Delete(ctx context.Context, userID int) (*DeleteResult, error)
}

type service struct {
	repo      Repository
	provider  provider.Client
	jwtSecret string
}

func NewService(repo Repository, providerClient provider.Client, jwtSecret string) Service {
	return &service{
		repo:      repo,
		provider:  providerClient,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Member, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", apperr.Wrap(apperr.KindConflict, ErrEmailExists)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	m, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, "member")
	if err != nil {
		return nil, "", "", err
	}

	// provider customer creation is out-of-band; a failure here is retried
	// the next time a purchase needs the reference
	if customerID, err := s.provider.CreateCustomer(ctx, m.Email, m.Name); err != nil {
		logger.Error("failed to create provider customer", "user_id", m.ID, "error", err)
	} else if err := s.repo.SetCustomerRef(ctx, m.ID, customerID); err != nil {
		logger.Error("failed to store provider customer ref", "user_id", m.ID, "error", err)
	} else {
		m.StripeCustomerID = &customerID
	}

	accessToken, refreshToken, err := auth.GenerateTokens(m.ID, m.Email, m.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	logger.Info("member registered", "user_id", m.ID)
	return m, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Member, string, string, error) {
	m, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", apperr.Wrap(apperr.KindValidation, ErrInvalidCredentials)
	}

	if !auth.CheckPassword(m.PasswordHash, req.Password) {
		return nil, "", "", apperr.Wrap(apperr.KindValidation, ErrInvalidCredentials)
	}

	accessToken, refreshToken, err := auth.GenerateTokens(m.ID, m.Email, m.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return m, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*Member, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *Member, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	m, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}

	newAccessToken, err := auth.GenerateAccessToken(m.ID, m.Email, m.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, m, nil
}

func (s *service) Delete(ctx context.Context, userID int) (*DeleteResult, error) {
	m, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	refs, err := s.repo.ListOpenSubscriptionRefs(ctx, userID)
	if err != nil {
		return nil, err
	}

	batch := &provider.BatchResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeParallelism)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if err := s.provider.CancelSubscription(gctx, ref, false); err != nil {
				batch.AddFailure(ref, err)
				return nil
			}
			batch.AddSuccess(ref)
			return nil
		})
	}
	_ = g.Wait()

	result := &DeleteResult{
		UserID:                 userID,
		CancelledSubscriptions: batch.SuccessCount(),
		Errors:                 batch.Errors(),
	}

	if m.StripeCustomerID != nil {
		if err := s.provider.DeleteCustomer(ctx, *m.StripeCustomerID); err != nil {
			logger.Error("failed to delete provider customer",
				"user_id", userID, "customer_id", *m.StripeCustomerID, "error", err)
			result.Errors = append(result.Errors, provider.ItemError{ID: *m.StripeCustomerID, Error: err.Error()})
		} else {
			result.CustomerDeleted = true
		}
	}

	if err := s.repo.DeleteCascade(ctx, userID); err != nil {
		metrics.RecordCascade("member_delete", "failed")
		return nil, err
	}

	outcome := "complete"
	if len(result.Errors) > 0 {
		outcome = "partial"
	}
	metrics.RecordCascade("member_delete", outcome)
	logger.Info("member deleted",
		"user_id", userID, "cancelled_subscriptions", result.CancelledSubscriptions,
		"provider_errors", len(result.Errors))
	return result, nil
}
