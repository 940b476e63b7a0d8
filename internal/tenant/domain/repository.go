package domain

import (
	"context"
	"errors"
)

// ErrTenantNotFound is returned when a lookup or single-row update matches no
// tenant.
var ErrTenantNotFound = errors.New("tenant not found")

// Repository defines access for tenant persistence. Find methods return
// (nil, nil) on a clean miss; only update methods report ErrTenantNotFound.
type Repository interface {
	// FindByEmail returns the tenant for a normalized email, or nil.
	FindByEmail(ctx context.Context, email string) (*Tenant, error)

	// FindByStripeCustomerID returns the tenant owning the Stripe customer, or nil.
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Tenant, error)

	// SetAutopilot persists the autopilot flag for the tenant matched by
	// normalized email and returns the updated row. ErrTenantNotFound when the
	// update matches zero rows.
	SetAutopilot(ctx context.Context, email string, enabled bool) (*Tenant, error)

	// SetAutopilotByCustomerID persists the autopilot flag for the tenant
	// matched by Stripe customer id. Matching zero rows is not an error here:
	// billing events may arrive for customers that never completed signup.
	SetAutopilotByCustomerID(ctx context.Context, customerID string, enabled bool) error

	// UpdateSubscription writes the subscription fields to the row matched by
	// Stripe customer id or subscription id. Idempotent for identical payloads.
	UpdateSubscription(ctx context.Context, update SubscriptionUpdate) error

	// UpsertFromCheckout creates or updates the tenant row for a completed
	// checkout, switching autopilot on.
	UpsertFromCheckout(ctx context.Context, checkout CheckoutUpsert) error
}
