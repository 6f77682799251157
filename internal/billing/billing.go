// Package billing talks to the external payment processor.
package billing

import (
	"context"
	"errors"
)

// Notification types the reconciler acts on.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	// ErrAmbiguous marks failures where the processor may or may not have
	// applied the request, such as timeouts and dropped connections.
	ErrAmbiguous = errors.New("billing request outcome unknown")
)

type CustomerRequest struct {
	Email string
	Name  string
	TaxID string
}

type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// Event is a verified notification reduced to the fields the reconciler reads.
type Event struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	// Status is the processor's subscription status, verbatim.
	Status string
	// Created is the processor-side creation time in Unix seconds.
	Created int64
}

type Client interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
