package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	billingDomain "github.com/cerberoai/cerbero/internal/billing/domain"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
)

type fakeTenantRepo struct {
	tenant *tenantDomain.Tenant
}

func (f *fakeTenantRepo) FindByEmail(ctx context.Context, email string) (*tenantDomain.Tenant, error) {
	if f.tenant != nil && f.tenant.Email.String() == email {
		return f.tenant, nil
	}
	return nil, nil
}

func (f *fakeTenantRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*tenantDomain.Tenant, error) {
	return nil, nil
}

func (f *fakeTenantRepo) SetAutopilot(ctx context.Context, email string, enabled bool) (*tenantDomain.Tenant, error) {
	return nil, tenantDomain.ErrTenantNotFound
}

func (f *fakeTenantRepo) SetAutopilotByCustomerID(ctx context.Context, customerID string, enabled bool) error {
	return nil
}

func (f *fakeTenantRepo) UpdateSubscription(ctx context.Context, update tenantDomain.SubscriptionUpdate) error {
	return nil
}

func (f *fakeTenantRepo) UpsertFromCheckout(ctx context.Context, checkout tenantDomain.CheckoutUpsert) error {
	return nil
}

func TestGetOverview_ComposesTenantAndEntitlement(t *testing.T) {
	status := "active"
	plan := "price_pro"
	periodEnd := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeTenantRepo{tenant: &tenantDomain.Tenant{
		Email:              tenantDomain.EmailFromStore("user@example.com"),
		AutopilotEnabled:   true,
		SubscriptionStatus: &status,
		PlanCode:           &plan,
		CurrentPeriodEnd:   &periodEnd,
	}}
	svc := NewService(repo, billingDomain.FounderList{}, nil)

	overview, err := svc.GetOverview(context.Background(), "  USER@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", overview.Profile.Email)
	require.True(t, overview.Autopilot.Enabled)
	require.False(t, overview.Subscription.Founder)
	require.True(t, overview.Subscription.Active)
	require.NotNil(t, overview.Subscription.CurrentPeriodEnd)
	require.Equal(t, "2026-09-01T12:00:00Z", *overview.Subscription.CurrentPeriodEnd)
	require.NotNil(t, overview.Subscription.PlanCode)
	require.Equal(t, "price_pro", *overview.Subscription.PlanCode)
}

func TestGetOverview_FounderWithoutSubscription(t *testing.T) {
	repo := &fakeTenantRepo{tenant: &tenantDomain.Tenant{
		Email: tenantDomain.EmailFromStore("founder@example.com"),
	}}
	svc := NewService(repo, billingDomain.ParseFounderList("founder@example.com"), nil)

	overview, err := svc.GetOverview(context.Background(), "founder@example.com")
	require.NoError(t, err)
	require.True(t, overview.Subscription.Founder)
	require.True(t, overview.Subscription.Active)
	require.Nil(t, overview.Subscription.Status)
}

func TestGetOverview_UnknownTenant(t *testing.T) {
	svc := NewService(&fakeTenantRepo{}, billingDomain.FounderList{}, nil)

	_, err := svc.GetOverview(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, tenantDomain.ErrTenantNotFound)
}
