// Package application implements the autopilot toggle service.
package application

import (
	"context"
	"errors"
	"log/slog"

	autopilotDomain "github.com/cerberoai/cerbero/internal/autopilot/domain"
	"github.com/cerberoai/cerbero/internal/shared/infrastructure/eventbus"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
)

// ErrEmailMismatch is returned when a request body claims a different tenant
// than the session identity. It guards against a client toggling someone
// else's account.
var ErrEmailMismatch = errors.New("claimed email does not match session")

// State is the toggle state returned to the caller.
type State struct {
	Email   string
	Enabled bool
}

// Service reads and writes the autopilot flag. The tenant store write is
// authoritative; the Coordinator notify that follows is best-effort.
type Service struct {
	tenants  tenantDomain.Repository
	notifier autopilotDomain.Notifier
	audit    *eventbus.Emitter
	logger   *slog.Logger
}

// NewService creates the toggle service.
func NewService(tenants tenantDomain.Repository, notifier autopilotDomain.Notifier, audit *eventbus.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tenants: tenants, notifier: notifier, audit: audit, logger: logger}
}

// GetState returns the stored autopilot flag for the session tenant.
func (s *Service) GetState(ctx context.Context, sessionEmail string) (State, error) {
	email := tenantDomain.NormalizeEmail(sessionEmail)

	tenant, err := s.tenants.FindByEmail(ctx, email)
	if err != nil {
		return State{}, err
	}
	if tenant == nil {
		return State{}, tenantDomain.ErrTenantNotFound
	}

	return State{Email: tenant.Email.String(), Enabled: tenant.AutopilotEnabled}, nil
}

// SetState persists the autopilot flag for the session tenant and then
// notifies the Coordinator. Notify failure never fails the call or rolls the
// flag back. Repeating the same value re-persists it and notifies again.
func (s *Service) SetState(ctx context.Context, sessionEmail string, enabled bool, claimedEmail string) (State, error) {
	email := tenantDomain.NormalizeEmail(sessionEmail)

	if claimedEmail != "" && tenantDomain.NormalizeEmail(claimedEmail) != email {
		return State{}, ErrEmailMismatch
	}

	tenant, err := s.tenants.SetAutopilot(ctx, email, enabled)
	if err != nil {
		return State{}, err
	}

	s.logger.Info("autopilot flag updated",
		"tenant_id", tenant.ID,
		"email", tenant.Email.String(),
		"enabled", enabled,
	)

	result := s.notifier.Notify(ctx, email, enabled)
	if !result.Delivered {
		s.logger.Warn("coordinator notify not delivered",
			"email", email,
			"enabled", enabled,
			"reason", result.Reason,
		)
	}

	s.audit.Emit(ctx, eventbus.RoutingKeyAutopilotToggled, email, map[string]any{
		"enabled":              enabled,
		"coordinator_notified": result.Delivered,
	})

	return State{Email: tenant.Email.String(), Enabled: tenant.AutopilotEnabled}, nil
}
