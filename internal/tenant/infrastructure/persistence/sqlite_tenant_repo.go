package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cerberoai/cerbero/internal/tenant/domain"
	"github.com/google/uuid"
)

// SQLiteTenantRepository implements tenant persistence with SQLite.
type SQLiteTenantRepository struct {
	dbConn *sql.DB
}

// NewSQLiteTenantRepository creates a new repository.
func NewSQLiteTenantRepository(dbConn *sql.DB) *SQLiteTenantRepository {
	return &SQLiteTenantRepository{dbConn: dbConn}
}

// FindByEmail returns the tenant for a normalized email, or nil.
func (r *SQLiteTenantRepository) FindByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE lower(email) = ?
		LIMIT 1
	`
	row := r.dbConn.QueryRowContext(ctx, query, domain.NormalizeEmail(email))
	return scanSQLiteTenant(row)
}

// FindByStripeCustomerID returns the tenant owning the Stripe customer, or nil.
func (r *SQLiteTenantRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE stripe_customer_id = ?
		LIMIT 1
	`
	row := r.dbConn.QueryRowContext(ctx, query, customerID)
	return scanSQLiteTenant(row)
}

// SetAutopilot persists the autopilot flag for the tenant matched by email.
func (r *SQLiteTenantRepository) SetAutopilot(ctx context.Context, email string, enabled bool) (*domain.Tenant, error) {
	normalized := domain.NormalizeEmail(email)
	query := `
		UPDATE tenants
		SET autopilot_enabled = ?, updated_at = ?
		WHERE lower(email) = ?
	`
	result, err := r.dbConn.ExecContext(ctx, query, boolToInt(enabled), time.Now().UTC().Format(time.RFC3339), normalized)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrTenantNotFound
	}
	return r.FindByEmail(ctx, normalized)
}

// SetAutopilotByCustomerID persists the autopilot flag for the tenant matched
// by Stripe customer id. Zero matched rows is not an error.
func (r *SQLiteTenantRepository) SetAutopilotByCustomerID(ctx context.Context, customerID string, enabled bool) error {
	query := `
		UPDATE tenants
		SET autopilot_enabled = ?, updated_at = ?
		WHERE stripe_customer_id = ?
	`
	_, err := r.dbConn.ExecContext(ctx, query, boolToInt(enabled), time.Now().UTC().Format(time.RFC3339), customerID)
	return err
}

// UpdateSubscription writes the subscription fields to the row matched by
// Stripe customer id or subscription id.
func (r *SQLiteTenantRepository) UpdateSubscription(ctx context.Context, update domain.SubscriptionUpdate) error {
	var periodEnd sql.NullString
	if update.CurrentPeriodEnd != nil {
		periodEnd = sql.NullString{String: update.CurrentPeriodEnd.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `
		UPDATE tenants
		SET subscription_status = NULLIF(?, ''),
		    current_period_end = ?,
		    plan_code = COALESCE(NULLIF(?, ''), plan_code),
		    stripe_subscription_id = COALESCE(NULLIF(?, ''), stripe_subscription_id),
		    stripe_customer_id = COALESCE(NULLIF(?, ''), stripe_customer_id),
		    updated_at = ?
		WHERE (? <> '' AND stripe_customer_id = ?)
		   OR (? <> '' AND stripe_subscription_id = ?)
	`
	_, err := r.dbConn.ExecContext(ctx, query,
		update.Status,
		periodEnd,
		update.PlanCode,
		update.StripeSubscriptionID,
		update.StripeCustomerID,
		time.Now().UTC().Format(time.RFC3339),
		update.StripeCustomerID,
		update.StripeCustomerID,
		update.StripeSubscriptionID,
		update.StripeSubscriptionID,
	)
	return err
}

// UpsertFromCheckout creates or updates the tenant row for a completed
// checkout, switching autopilot on.
func (r *SQLiteTenantRepository) UpsertFromCheckout(ctx context.Context, checkout domain.CheckoutUpsert) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var periodEnd sql.NullString
	if checkout.CurrentPeriodEnd != nil {
		periodEnd = sql.NullString{String: checkout.CurrentPeriodEnd.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `
		INSERT INTO tenants (
			id, email, autopilot_enabled, subscription_status, current_period_end,
			plan_code, stripe_subscription_id, stripe_customer_id, created_at, updated_at
		) VALUES (?, ?, 1, NULLIF(?, ''), ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)
		ON CONFLICT (lower(email)) DO UPDATE SET
			autopilot_enabled = 1,
			subscription_status = excluded.subscription_status,
			current_period_end = excluded.current_period_end,
			plan_code = excluded.plan_code,
			stripe_subscription_id = excluded.stripe_subscription_id,
			stripe_customer_id = excluded.stripe_customer_id,
			updated_at = excluded.updated_at
	`
	_, err := r.dbConn.ExecContext(ctx, query,
		uuid.New().String(),
		checkout.Email.String(),
		checkout.Status,
		periodEnd,
		checkout.PlanCode,
		checkout.StripeSubscriptionID,
		checkout.StripeCustomerID,
		now,
		now,
	)
	return err
}

func scanSQLiteTenant(row *sql.Row) (*domain.Tenant, error) {
	var (
		idStr                string
		email                string
		autopilotEnabled     int
		subscriptionStatus   sql.NullString
		currentPeriodEndStr  sql.NullString
		planCode             sql.NullString
		stripeSubscriptionID sql.NullString
		stripeCustomerID     sql.NullString
		createdAtStr         string
		updatedAtStr         string
	)

	err := row.Scan(
		&idStr,
		&email,
		&autopilotEnabled,
		&subscriptionStatus,
		&currentPeriodEndStr,
		&planCode,
		&stripeSubscriptionID,
		&stripeCustomerID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	id, _ := uuid.Parse(idStr)
	createdAt, _ := time.Parse(time.RFC3339, createdAtStr)
	updatedAt, _ := time.Parse(time.RFC3339, updatedAtStr)

	var currentPeriodEnd *time.Time
	if currentPeriodEndStr.Valid {
		t, _ := time.Parse(time.RFC3339, currentPeriodEndStr.String)
		currentPeriodEnd = &t
	}

	return &domain.Tenant{
		ID:                   id,
		Email:                domain.EmailFromStore(email),
		AutopilotEnabled:     autopilotEnabled != 0,
		SubscriptionStatus:   nullableString(subscriptionStatus),
		CurrentPeriodEnd:     currentPeriodEnd,
		PlanCode:             nullableString(planCode),
		StripeSubscriptionID: nullableString(stripeSubscriptionID),
		StripeCustomerID:     nullableString(stripeCustomerID),
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

var _ domain.Repository = (*SQLiteTenantRepository)(nil)
