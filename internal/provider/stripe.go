package provider

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"fitcore/internal/logger"
	"fitcore/internal/metrics"
)

// StripeClient implements Client against the Stripe API. Every call runs
// under a bounded timeout so a provider outage cannot stall a cascade.
type StripeClient struct {
	api     *client.API
	timeout time.Duration
}

func NewStripeClient(apiKey string, timeout time.Duration) *StripeClient {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeClient{api: api, timeout: timeout}
}

func (s *StripeClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *StripeClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Name:   stripe.String(name),
	}
	cus, err := s.api.Customers.New(params)
	if err != nil {
		metrics.RecordProviderFailure("create_customer")
		return "", err
	}
	return cus.ID, nil
}

func (s *StripeClient) DeleteCustomer(ctx context.Context, customerID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	if _, err := s.api.Customers.Del(customerID, params); err != nil {
		metrics.RecordProviderFailure("delete_customer")
		logger.Error("provider: delete customer failed", "customer_id", customerID, "error", err)
		return err
	}
	return nil
}

func (s *StripeClient) CreateProduct(ctx context.Context, name, description string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(name),
	}
	if description != "" {
		params.Description = stripe.String(description)
	}
	prod, err := s.api.Products.New(params)
	if err != nil {
		metrics.RecordProviderFailure("create_product")
		return "", err
	}
	return prod.ID, nil
}

func (s *StripeClient) UpdateProductMetadata(ctx context.Context, productID, name, description string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(name),
	}
	if description != "" {
		params.Description = stripe.String(description)
	}
	if _, err := s.api.Products.Update(productID, params); err != nil {
		metrics.RecordProviderFailure("update_product")
		logger.Error("provider: update product failed", "product_id", productID, "error", err)
		return err
	}
	return nil
}

func (s *StripeClient) ArchiveProduct(ctx context.Context, productID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Active: stripe.Bool(false),
	}
	if _, err := s.api.Products.Update(productID, params); err != nil {
		metrics.RecordProviderFailure("archive_product")
		logger.Error("provider: archive product failed", "product_id", productID, "error", err)
		return err
	}
	return nil
}

func (s *StripeClient) CreatePrice(ctx context.Context, productID string, amountCents int64, currency, interval string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(currency),
	}
	if interval != "" {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		}
	}
	price, err := s.api.Prices.New(params)
	if err != nil {
		metrics.RecordProviderFailure("create_price")
		return "", err
	}
	return price.ID, nil
}

func (s *StripeClient) DeactivatePrice(ctx context.Context, priceID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.PriceParams{
		Params: stripe.Params{Context: ctx},
		Active: stripe.Bool(false),
	}
	if _, err := s.api.Prices.Update(priceID, params); err != nil {
		metrics.RecordProviderFailure("deactivate_price")
		logger.Error("provider: deactivate price failed", "price_id", priceID, "error", err)
		return err
	}
	return nil
}

func (s *StripeClient) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if atPeriodEnd {
		params := &stripe.SubscriptionParams{
			Params:            stripe.Params{Context: ctx},
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		if _, err := s.api.Subscriptions.Update(subscriptionID, params); err != nil {
			metrics.RecordProviderFailure("cancel_subscription")
			logger.Error("provider: schedule cancellation failed", "subscription_id", subscriptionID, "error", err)
			return err
		}
		return nil
	}

	params := &stripe.SubscriptionCancelParams{Params: stripe.Params{Context: ctx}}
	if _, err := s.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		metrics.RecordProviderFailure("cancel_subscription")
		logger.Error("provider: cancel subscription failed", "subscription_id", subscriptionID, "error", err)
		return err
	}
	return nil
}
