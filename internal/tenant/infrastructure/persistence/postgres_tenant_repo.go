package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/cerberoai/cerbero/internal/tenant/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantColumns = `id, email, autopilot_enabled, subscription_status,
	current_period_end, plan_code, stripe_subscription_id, stripe_customer_id,
	created_at, updated_at`

// PostgresTenantRepository implements tenant persistence with PostgreSQL.
type PostgresTenantRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTenantRepository creates a new repository.
func NewPostgresTenantRepository(pool *pgxpool.Pool) *PostgresTenantRepository {
	return &PostgresTenantRepository{pool: pool}
}

// FindByEmail returns the tenant for a normalized email, or nil.
func (r *PostgresTenantRepository) FindByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE lower(email) = $1
		LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email))
	return scanPgTenant(row)
}

// FindByStripeCustomerID returns the tenant owning the Stripe customer, or nil.
func (r *PostgresTenantRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE stripe_customer_id = $1
		LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query, customerID)
	return scanPgTenant(row)
}

// SetAutopilot persists the autopilot flag for the tenant matched by email.
func (r *PostgresTenantRepository) SetAutopilot(ctx context.Context, email string, enabled bool) (*domain.Tenant, error) {
	query := `
		UPDATE tenants
		SET autopilot_enabled = $1, updated_at = NOW()
		WHERE lower(email) = $2
		RETURNING ` + tenantColumns
	row := r.pool.QueryRow(ctx, query, enabled, domain.NormalizeEmail(email))
	tenant, err := scanPgTenant(row)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	return tenant, nil
}

// SetAutopilotByCustomerID persists the autopilot flag for the tenant matched
// by Stripe customer id. Zero matched rows is not an error.
func (r *PostgresTenantRepository) SetAutopilotByCustomerID(ctx context.Context, customerID string, enabled bool) error {
	query := `
		UPDATE tenants
		SET autopilot_enabled = $1, updated_at = NOW()
		WHERE stripe_customer_id = $2
	`
	_, err := r.pool.Exec(ctx, query, enabled, customerID)
	return err
}

// UpdateSubscription writes the subscription fields to the row matched by
// Stripe customer id or subscription id.
func (r *PostgresTenantRepository) UpdateSubscription(ctx context.Context, update domain.SubscriptionUpdate) error {
	query := `
		UPDATE tenants
		SET subscription_status = NULLIF($1, ''),
		    current_period_end = $2,
		    plan_code = COALESCE(NULLIF($3, ''), plan_code),
		    stripe_subscription_id = COALESCE(NULLIF($4, ''), stripe_subscription_id),
		    stripe_customer_id = COALESCE(NULLIF($5, ''), stripe_customer_id),
		    updated_at = NOW()
		WHERE ($5 <> '' AND stripe_customer_id = $5)
		   OR ($4 <> '' AND stripe_subscription_id = $4)
	`
	_, err := r.pool.Exec(ctx, query,
		update.Status,
		update.CurrentPeriodEnd,
		update.PlanCode,
		update.StripeSubscriptionID,
		update.StripeCustomerID,
	)
	return err
}

// UpsertFromCheckout creates or updates the tenant row for a completed
// checkout, switching autopilot on.
func (r *PostgresTenantRepository) UpsertFromCheckout(ctx context.Context, checkout domain.CheckoutUpsert) error {
	query := `
		INSERT INTO tenants (
			id, email, autopilot_enabled, subscription_status, current_period_end,
			plan_code, stripe_subscription_id, stripe_customer_id, created_at, updated_at
		) VALUES ($1, $2, TRUE, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NOW(), NOW())
		ON CONFLICT (lower(email)) DO UPDATE SET
			autopilot_enabled = TRUE,
			subscription_status = EXCLUDED.subscription_status,
			current_period_end = EXCLUDED.current_period_end,
			plan_code = EXCLUDED.plan_code,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		uuid.New(),
		checkout.Email.String(),
		checkout.Status,
		checkout.CurrentPeriodEnd,
		checkout.PlanCode,
		checkout.StripeSubscriptionID,
		checkout.StripeCustomerID,
	)
	return err
}

type pgRow interface {
	Scan(dest ...any) error
}

func scanPgTenant(row pgRow) (*domain.Tenant, error) {
	var (
		id                   uuid.UUID
		email                string
		autopilotEnabled     bool
		subscriptionStatus   *string
		currentPeriodEnd     *time.Time
		planCode             *string
		stripeSubscriptionID *string
		stripeCustomerID     *string
		createdAt            time.Time
		updatedAt            time.Time
	)

	err := row.Scan(
		&id,
		&email,
		&autopilotEnabled,
		&subscriptionStatus,
		&currentPeriodEnd,
		&planCode,
		&stripeSubscriptionID,
		&stripeCustomerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.Tenant{
		ID:                   id,
		Email:                domain.EmailFromStore(email),
		AutopilotEnabled:     autopilotEnabled,
		SubscriptionStatus:   subscriptionStatus,
		CurrentPeriodEnd:     currentPeriodEnd,
		PlanCode:             planCode,
		StripeSubscriptionID: stripeSubscriptionID,
		StripeCustomerID:     stripeCustomerID,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}, nil
}

var _ domain.Repository = (*PostgresTenantRepository)(nil)
