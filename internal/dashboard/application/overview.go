// Package application composes the dashboard overview: one tenant row plus
// the derived entitlement. Read-only.
package application

import (
	"context"
	"log/slog"
	"time"

	billingDomain "github.com/cerberoai/cerbero/internal/billing/domain"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
)

// Overview is the aggregate the dashboard UI consumes.
type Overview struct {
	Profile      Profile      `json:"profile"`
	Autopilot    Autopilot    `json:"autopilot"`
	Subscription Subscription `json:"subscription"`
}

// Profile holds the tenant identity fields.
type Profile struct {
	Email string `json:"email"`
}

// Autopilot holds the toggle state.
type Autopilot struct {
	Enabled bool `json:"enabled"`
}

// Subscription holds the billing fields plus the derived entitlement, which
// is recomputed on every read and never persisted.
type Subscription struct {
	Founder              bool    `json:"founder"`
	Active               bool    `json:"active"`
	Status               *string `json:"status"`
	CurrentPeriodEnd     *string `json:"currentPeriodEnd"`
	PlanCode             *string `json:"planCode"`
	StripeSubscriptionID *string `json:"stripeSubscriptionId"`
	StripeCustomerID     *string `json:"stripeCustomerId"`
}

// Service serves overview reads.
type Service struct {
	tenants  tenantDomain.Repository
	founders billingDomain.FounderList
	logger   *slog.Logger
}

// NewService creates the overview service.
func NewService(tenants tenantDomain.Repository, founders billingDomain.FounderList, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tenants: tenants, founders: founders, logger: logger}
}

// GetOverview returns the aggregate for the session tenant.
func (s *Service) GetOverview(ctx context.Context, sessionEmail string) (Overview, error) {
	email := tenantDomain.NormalizeEmail(sessionEmail)

	tenant, err := s.tenants.FindByEmail(ctx, email)
	if err != nil {
		return Overview{}, err
	}
	if tenant == nil {
		return Overview{}, tenantDomain.ErrTenantNotFound
	}

	entitlement := billingDomain.Classify(tenant.Email.String(), tenant.SubscriptionStatus, s.founders)

	var periodEnd *string
	if tenant.CurrentPeriodEnd != nil {
		iso := tenant.CurrentPeriodEnd.UTC().Format(time.RFC3339)
		periodEnd = &iso
	}

	return Overview{
		Profile:   Profile{Email: tenant.Email.String()},
		Autopilot: Autopilot{Enabled: tenant.AutopilotEnabled},
		Subscription: Subscription{
			Founder:              entitlement.Founder,
			Active:               entitlement.Active,
			Status:               tenant.SubscriptionStatus,
			CurrentPeriodEnd:     periodEnd,
			PlanCode:             tenant.PlanCode,
			StripeSubscriptionID: tenant.StripeSubscriptionID,
			StripeCustomerID:     tenant.StripeCustomerID,
		},
	}, nil
}
