package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	autopilotApp "github.com/cerberoai/cerbero/internal/autopilot/application"
	billingApp "github.com/cerberoai/cerbero/internal/billing/application"
	dashboardApp "github.com/cerberoai/cerbero/internal/dashboard/application"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// Handler holds the request handlers for all inbound endpoints.
type Handler struct {
	sessions      SessionResolver
	autopilot     *autopilotApp.Service
	overview      *dashboardApp.Service
	webhooks      *billingApp.WebhookService
	webhookSecret string
	logger        *slog.Logger
}

// HandlerConfig holds dependencies for the handler.
type HandlerConfig struct {
	Sessions      SessionResolver
	Autopilot     *autopilotApp.Service
	Overview      *dashboardApp.Service
	Webhooks      *billingApp.WebhookService
	WebhookSecret string
	Logger        *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		sessions:      cfg.Sessions,
		autopilot:     cfg.Autopilot,
		overview:      cfg.Overview,
		webhooks:      cfg.Webhooks,
		webhookSecret: cfg.WebhookSecret,
		logger:        cfg.Logger,
	}
}

// GetAutopilotState handles GET /api/autopilot/toggle
func (h *Handler) GetAutopilotState(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Resolve(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	state, err := h.autopilot.GetState(r.Context(), session.Email)
	if err != nil {
		if errors.Is(err, tenantDomain.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		h.logger.Error("autopilot state read failed", "email", session.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"enabled": state.Enabled,
	})
}

type toggleRequest struct {
	Enabled *bool  `json:"enabled"`
	Email   string `json:"email"`
}

// SetAutopilotState handles POST /api/autopilot/toggle
func (h *Handler) SetAutopilotState(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Resolve(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled must be a boolean")
		return
	}

	state, err := h.autopilot.SetState(r.Context(), session.Email, *body.Enabled, body.Email)
	if err != nil {
		switch {
		case errors.Is(err, autopilotApp.ErrEmailMismatch):
			writeError(w, http.StatusForbidden, "forbidden")
		case errors.Is(err, tenantDomain.ErrTenantNotFound):
			writeError(w, http.StatusNotFound, "tenant not found")
		default:
			h.logger.Error("autopilot toggle failed", "email", session.Email, "error", err)
			writeError(w, http.StatusInternalServerError, "server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"email":   state.Email,
		"enabled": state.Enabled,
	})
}

type overviewResponse struct {
	OK bool `json:"ok"`
	dashboardApp.Overview
}

// GetOverview handles GET /api/dashboard/overview
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Resolve(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	overview, err := h.overview.GetOverview(r.Context(), session.Email)
	if err != nil {
		if errors.Is(err, tenantDomain.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		h.logger.Error("overview read failed", "email", session.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{OK: true, Overview: overview})
}

// StripeWebhook handles POST /api/stripe/webhook. Every event of a subscribed
// type is acknowledged unless a store write fails, so the provider does not
// redeliver forever.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(h.webhookSecret) == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "webhook secret not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing Stripe signature"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid Stripe signature"})
		return
	}

	err = h.webhooks.HandleEvent(r.Context(), billingApp.Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: event.Data.Raw,
	})
	if err != nil {
		h.logger.Error("billing webhook processing failed",
			"event_id", event.ID,
			"type", event.Type,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
