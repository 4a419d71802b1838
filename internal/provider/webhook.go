package provider

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

type EventType string

const (
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventPaymentSucceeded      EventType = "payment_succeeded"
	EventIgnored               EventType = "ignored"
)

// Event is the provider lifecycle event after translation into engine terms.
type Event struct {
	Type           EventType
	ProviderID     string
	SubscriptionID string
	CustomerID     string
}

// ParseWebhook verifies the signature and maps the raw payload to an Event.
func ParseWebhook(payload []byte, sigHeader, secret string) (Event, error) {
	ev, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return FromStripeEvent(ev)
}

// FromStripeEvent maps a verified Stripe event. Unknown event types map to
// EventIgnored rather than an error so new provider events never break the
// endpoint.
func FromStripeEvent(ev stripe.Event) (Event, error) {
	switch ev.Type {
	case "customer.subscription.deleted":
		var sub struct {
			ID       string `json:"id"`
			Customer string `json:"customer"`
		}
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("malformed subscription payload: %w", err)
		}
		return Event{
			Type:           EventSubscriptionCancelled,
			ProviderID:     string(ev.ID),
			SubscriptionID: sub.ID,
			CustomerID:     sub.Customer,
		}, nil

	case "invoice.payment_succeeded":
		var inv struct {
			Subscription string `json:"subscription"`
			Customer     string `json:"customer"`
		}
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return Event{}, fmt.Errorf("malformed invoice payload: %w", err)
		}
		return Event{
			Type:           EventPaymentSucceeded,
			ProviderID:     string(ev.ID),
			SubscriptionID: inv.Subscription,
			CustomerID:     inv.Customer,
		}, nil

	default:
		return Event{Type: EventIgnored, ProviderID: string(ev.ID)}, nil
	}
}
