package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a customer account. The row in the tenant store is the
// authoritative copy of the autopilot flag; the Coordinator only caches it.
type Tenant struct {
	ID                   uuid.UUID
	Email                Email
	AutopilotEnabled     bool
	SubscriptionStatus   *string
	CurrentPeriodEnd     *time.Time
	PlanCode             *string
	StripeSubscriptionID *string
	StripeCustomerID     *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SubscriptionUpdate carries the subscription fields written by the billing
// webhook handler. The row is matched by Stripe customer id or, failing that,
// by Stripe subscription id.
type SubscriptionUpdate struct {
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	CurrentPeriodEnd     *time.Time
	PlanCode             string
}

// CheckoutUpsert carries the fields written when a checkout session completes.
// The row is created when no tenant exists for the email yet.
type CheckoutUpsert struct {
	Email                Email
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	CurrentPeriodEnd     *time.Time
	PlanCode             string
}
