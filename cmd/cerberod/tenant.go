package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cerberoai/cerbero/internal/app"
	billingDomain "github.com/cerberoai/cerbero/internal/billing/domain"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
	"github.com/cerberoai/cerbero/pkg/config"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Inspect tenant records",
}

var tenantShowCmd = &cobra.Command{
	Use:   "show <email>",
	Short: "Print the stored tenant row and its derived entitlement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTenantShow(cmd, args[0])
	},
}

func init() {
	tenantCmd.AddCommand(tenantShowCmd)
	rootCmd.AddCommand(tenantCmd)
}

// tenantView is the printable shape of one tenant row plus its entitlement,
// mirroring what the dashboard overview serves.
type tenantView struct {
	ID                   string  `json:"id"`
	Email                string  `json:"email"`
	AutopilotEnabled     bool    `json:"autopilotEnabled"`
	Founder              bool    `json:"founder"`
	Active               bool    `json:"active"`
	SubscriptionStatus   *string `json:"subscriptionStatus"`
	CurrentPeriodEnd     *string `json:"currentPeriodEnd"`
	PlanCode             *string `json:"planCode"`
	StripeSubscriptionID *string `json:"stripeSubscriptionId"`
	StripeCustomerID     *string `json:"stripeCustomerId"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

func newTenantView(tenant *tenantDomain.Tenant, founders billingDomain.FounderList) tenantView {
	entitlement := billingDomain.Classify(tenant.Email.String(), tenant.SubscriptionStatus, founders)

	var periodEnd *string
	if tenant.CurrentPeriodEnd != nil {
		iso := tenant.CurrentPeriodEnd.UTC().Format(time.RFC3339)
		periodEnd = &iso
	}

	return tenantView{
		ID:                   tenant.ID.String(),
		Email:                tenant.Email.String(),
		AutopilotEnabled:     tenant.AutopilotEnabled,
		Founder:              entitlement.Founder,
		Active:               entitlement.Active,
		SubscriptionStatus:   tenant.SubscriptionStatus,
		CurrentPeriodEnd:     periodEnd,
		PlanCode:             tenant.PlanCode,
		StripeSubscriptionID: tenant.StripeSubscriptionID,
		StripeCustomerID:     tenant.StripeCustomerID,
		CreatedAt:            tenant.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            tenant.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func runTenantShow(cmd *cobra.Command, rawEmail string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr so the JSON row stays pipeable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := cmd.Context()
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	email := tenantDomain.NormalizeEmail(rawEmail)
	tenant, err := container.TenantRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if tenant == nil {
		return fmt.Errorf("tenant %s not found", email)
	}

	view := newTenantView(tenant, billingDomain.ParseFounderList(cfg.FounderEmails))
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
