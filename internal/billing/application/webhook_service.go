// Package application implements the billing webhook event handler. Events
// arrive at-least-once, in no guaranteed order, so every handler is
// idempotent against re-delivery and reads current store state before acting.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	billingDomain "github.com/cerberoai/cerbero/internal/billing/domain"
	"github.com/cerberoai/cerbero/internal/notify"
	"github.com/cerberoai/cerbero/internal/shared/infrastructure/eventbus"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
)

// SubscriptionDetails is what the payment gateway reports for a subscription.
type SubscriptionDetails struct {
	Status           string
	CurrentPeriodEnd *time.Time
	PlanCode         string
}

// PaymentGateway is the payment provider capability the handler calls. The
// provider SDK itself stays behind this boundary.
type PaymentGateway interface {
	// CustomerEmail returns the email on file for a provider customer.
	CustomerEmail(ctx context.Context, customerID string) (string, error)

	// SubscriptionDetails retrieves status, period end and plan for a subscription.
	SubscriptionDetails(ctx context.Context, subscriptionID string) (SubscriptionDetails, error)

	// EnsureCustomer returns a provider customer id for the email, creating
	// one when the checkout session carried none.
	EnsureCustomer(ctx context.Context, email string) (string, error)
}

// EventDedup guards non-idempotent side effects (notification emails) against
// the provider's at-least-once redelivery. State writes don't need it.
type EventDedup interface {
	// FirstDelivery reports whether the event id has not been seen before.
	FirstDelivery(ctx context.Context, eventID string) bool
}

// Event is a verified webhook event, dispatched by type.
type Event struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// WebhookService applies billing events to the tenant store.
type WebhookService struct {
	tenants  tenantDomain.Repository
	gateway  PaymentGateway
	mailer   notify.Mailer
	dedup    EventDedup
	founders billingDomain.FounderList
	audit    *eventbus.Emitter
	logger   *slog.Logger
}

// NewWebhookService creates the billing event handler.
func NewWebhookService(
	tenants tenantDomain.Repository,
	gateway PaymentGateway,
	mailer notify.Mailer,
	dedup EventDedup,
	founders billingDomain.FounderList,
	audit *eventbus.Emitter,
	logger *slog.Logger,
) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{
		tenants:  tenants,
		gateway:  gateway,
		mailer:   mailer,
		dedup:    dedup,
		founders: founders,
		audit:    audit,
		logger:   logger,
	}
}

// HandleEvent dispatches one event. A non-nil error means a store write
// failed and the provider should redeliver; every other outcome acknowledges
// the event, including types this service does not handle.
func (s *WebhookService) HandleEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
		return s.handleSubscriptionChange(ctx, event)
	case "invoice.upcoming":
		return s.handleInvoiceUpcoming(ctx, event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(ctx, event)
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	default:
		s.logger.Info("billing event ignored (unhandled type)",
			"event_id", event.ID,
			"type", event.Type,
		)
		return nil
	}
}

func (s *WebhookService) handleSubscriptionChange(ctx context.Context, event Event) error {
	var payload subscriptionPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode subscription payload: %w", err)
	}

	customerID := payload.Customer.String()
	if customerID == "" && payload.ID == "" {
		s.logger.Warn("subscription event carries no identifiers, skipping",
			"event_id", event.ID,
			"type", event.Type,
		)
		return nil
	}

	// Email is only needed for the founder check; its resolution failing must
	// not block the subscription-state write.
	email := s.resolveEmail(ctx, event,
		s.storeEmailResolver(customerID),
		s.gatewayEmailResolver(customerID),
	)

	update := tenantDomain.SubscriptionUpdate{
		StripeCustomerID:     customerID,
		StripeSubscriptionID: payload.ID,
		Status:               payload.Status,
		CurrentPeriodEnd:     payload.periodEnd(),
		PlanCode:             payload.planCode(),
	}
	if err := s.tenants.UpdateSubscription(ctx, update); err != nil {
		return fmt.Errorf("update subscription state: %w", err)
	}

	status := billingDomain.SubscriptionStatus(payload.Status)
	if customerID != "" && status.IsRevoking() && !s.founders.Contains(email) {
		if err := s.tenants.SetAutopilotByCustomerID(ctx, customerID, false); err != nil {
			return fmt.Errorf("disable autopilot for %s: %w", customerID, err)
		}
		s.logger.Info("autopilot disabled for lapsed subscription",
			"event_id", event.ID,
			"stripe_customer_id", customerID,
			"status", payload.Status,
		)
	}

	s.audit.Emit(ctx, eventbus.RoutingKeySubscriptionChanged, email, map[string]any{
		"event_id":           event.ID,
		"type":               event.Type,
		"stripe_customer_id": customerID,
		"status":             payload.Status,
	})

	return nil
}

func (s *WebhookService) handleInvoiceUpcoming(ctx context.Context, event Event) error {
	var payload invoicePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode invoice payload: %w", err)
	}

	customerID := payload.Customer.String()
	email := s.resolveEmail(ctx, event,
		staticEmailResolver(payload.CustomerEmail),
		s.storeEmailResolver(customerID),
		s.gatewayEmailResolver(customerID),
	)
	if email == "" {
		// Expected for some invoices; acknowledged without error.
		s.logger.Info("invoice.upcoming without resolvable email",
			"event_id", event.ID,
			"invoice_id", payload.ID,
			"stripe_customer_id", customerID,
		)
		return nil
	}

	s.sendOnce(ctx, event, notify.Message{
		To:      email,
		Subject: "Cerbero AI – Il tuo abbonamento sta per rinnovarsi",
		Text: "Il tuo abbonamento Cerbero Autopilot sta per rinnovarsi automaticamente. " +
			"Se non desideri il rinnovo, puoi gestire il piano dal tuo account Stripe / Cerbero.",
	})

	return nil
}

func (s *WebhookService) handleInvoicePaymentFailed(ctx context.Context, event Event) error {
	var payload invoicePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode invoice payload: %w", err)
	}

	customerID := payload.Customer.String()
	email := s.resolveEmail(ctx, event,
		staticEmailResolver(payload.CustomerEmail),
		s.storeEmailResolver(customerID),
		s.gatewayEmailResolver(customerID),
	)

	if customerID != "" && !s.founders.Contains(email) {
		if err := s.tenants.SetAutopilotByCustomerID(ctx, customerID, false); err != nil {
			return fmt.Errorf("disable autopilot for %s: %w", customerID, err)
		}
		s.logger.Info("autopilot paused after failed payment",
			"event_id", event.ID,
			"stripe_customer_id", customerID,
		)
	}

	if email != "" {
		s.sendOnce(ctx, event, notify.Message{
			To:      email,
			Subject: "Cerbero AI – Pagamento non riuscito",
			Text:    "Il pagamento non è andato a buon fine. Autopilot è stato messo in pausa.",
		})
	}

	return nil
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event Event) error {
	var payload checkoutSessionPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode checkout session payload: %w", err)
	}

	email, err := tenantDomain.NewEmail(payload.email())
	if err != nil {
		s.logger.Warn("checkout session without usable email, skipping",
			"event_id", event.ID,
			"session_id", payload.ID,
		)
		return nil
	}

	customerID := payload.Customer.String()
	if customerID == "" {
		customerID, err = s.gateway.EnsureCustomer(ctx, email.String())
		if err != nil {
			s.logger.Warn("checkout: ensure customer failed",
				"event_id", event.ID,
				"email", email.String(),
				"error", err,
			)
		}
	}
	if customerID == "" {
		s.logger.Warn("checkout session without customer id, skipping",
			"event_id", event.ID,
			"session_id", payload.ID,
		)
		return nil
	}

	checkout := tenantDomain.CheckoutUpsert{
		Email:                email,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: payload.Subscription.String(),
	}

	if subID := payload.Subscription.String(); subID != "" {
		details, err := s.gateway.SubscriptionDetails(ctx, subID)
		if err != nil {
			// The tenant row is still activated; status arrives with the next
			// subscription.updated event.
			s.logger.Warn("checkout: subscription retrieve failed",
				"event_id", event.ID,
				"stripe_subscription_id", subID,
				"error", err,
			)
		} else {
			checkout.Status = details.Status
			checkout.CurrentPeriodEnd = details.CurrentPeriodEnd
			checkout.PlanCode = details.PlanCode
		}
	}

	if err := s.tenants.UpsertFromCheckout(ctx, checkout); err != nil {
		return fmt.Errorf("upsert tenant from checkout: %w", err)
	}

	s.sendOnce(ctx, event, notify.Message{
		To:      email.String(),
		Subject: "Cerbero AI – Autotrading attivato",
		Text:    "Il tuo abbonamento Cerbero Autopilot è attivo.",
	})

	s.audit.Emit(ctx, eventbus.RoutingKeySubscriptionChanged, email.String(), map[string]any{
		"event_id":           event.ID,
		"type":               event.Type,
		"stripe_customer_id": customerID,
	})

	return nil
}

// emailResolver is one step of the fallback chain. Returning an empty string
// (or an error, which is logged) moves resolution to the next step.
type emailResolver func(ctx context.Context) (string, error)

func (s *WebhookService) resolveEmail(ctx context.Context, event Event, resolvers ...emailResolver) string {
	for _, resolve := range resolvers {
		email, err := resolve(ctx)
		if err != nil {
			s.logger.Warn("email resolution step failed",
				"event_id", event.ID,
				"type", event.Type,
				"error", err,
			)
			continue
		}
		if email = tenantDomain.NormalizeEmail(email); email != "" {
			return email
		}
	}
	return ""
}

func staticEmailResolver(email string) emailResolver {
	return func(context.Context) (string, error) {
		return email, nil
	}
}

func (s *WebhookService) storeEmailResolver(customerID string) emailResolver {
	return func(ctx context.Context) (string, error) {
		if customerID == "" {
			return "", nil
		}
		tenant, err := s.tenants.FindByStripeCustomerID(ctx, customerID)
		if err != nil {
			return "", fmt.Errorf("tenant lookup by customer id: %w", err)
		}
		if tenant == nil {
			return "", nil
		}
		return tenant.Email.String(), nil
	}
}

func (s *WebhookService) gatewayEmailResolver(customerID string) emailResolver {
	return func(ctx context.Context) (string, error) {
		if customerID == "" {
			return "", nil
		}
		email, err := s.gateway.CustomerEmail(ctx, customerID)
		if err != nil {
			return "", fmt.Errorf("customer retrieve: %w", err)
		}
		return email, nil
	}
}

// sendOnce sends a notification email, guarded by the event-id dedup so a
// redelivered event cannot double-send. Send failures are logged only.
func (s *WebhookService) sendOnce(ctx context.Context, event Event, msg notify.Message) {
	if s.dedup != nil && event.ID != "" && !s.dedup.FirstDelivery(ctx, event.ID) {
		s.logger.Info("duplicate event delivery, skipping email",
			"event_id", event.ID,
			"type", event.Type,
		)
		return
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("notification email failed",
			"event_id", event.ID,
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return
	}

	s.logger.Info("notification email sent",
		"event_id", event.ID,
		"to", msg.To,
		"subject", msg.Subject,
	)
}
