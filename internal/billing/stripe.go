package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

type StripeClient struct {
	api           *client.API
	webhookSecret string
}

type StripeOption func(*stripe.BackendConfig)

// WithBackendURL points the client at another API host.
func WithBackendURL(url string) StripeOption {
	return func(cfg *stripe.BackendConfig) {
		cfg.URL = stripe.String(url)
	}
}

// NewStripeClient builds a client that never retries on its own: a retried
// customer creation after a timeout could create a second customer.
func NewStripeClient(apiKey, webhookSecret string, logger *zap.Logger, opts ...StripeOption) *StripeClient {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Named("stripe").Sugar(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	api := client.New(apiKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	})
	return &StripeClient{api: api, webhookSecret: webhookSecret}
}

func (s *StripeClient) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	params.AddMetadata("cpf", req.TaxID)

	customer, err := s.api.Customers.New(params)
	if err != nil {
		return "", classify("create customer", err)
	}
	return customer.ID, nil
}

// DeleteCustomer ignores ctx so a compensation still runs after the request
// that triggered it has been cancelled.
func (s *StripeClient) DeleteCustomer(_ context.Context, customerID string) error {
	if _, err := s.api.Customers.Del(customerID, nil); err != nil {
		return classify("delete customer", err)
	}
	return nil
}

func (s *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(req.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify("create checkout session", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the fields
// of the event types the reconciler handles. Other types come back with only
// ID, Type and Created set.
func (s *StripeClient) ParseWebhook(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := &Event{ID: evt.ID, Type: string(evt.Type), Created: evt.Created}
	if evt.Data == nil {
		return event, nil
	}

	switch event.Type {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrInvalidPayload, err)
		}
		if session.Customer != nil {
			event.CustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			event.SubscriptionID = session.Subscription.ID
		}
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrInvalidPayload, err)
		}
		if sub.Customer != nil {
			event.CustomerID = sub.Customer.ID
		}
		event.SubscriptionID = sub.ID
		event.Status = string(sub.Status)
	}
	return event, nil
}

// classify marks errors that carry no processor response as ambiguous.
func classify(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < 500 {
		return fmt.Errorf("stripe %s: %w", op, err)
	}
	return fmt.Errorf("stripe %s: %w: %w", op, ErrAmbiguous, err)
}
