// Package stripegateway implements the payment-provider capabilities the
// billing event handler calls, backed by the Stripe API.
package stripegateway

import (
	"context"
	"fmt"
	"time"

	"github.com/cerberoai/cerbero/internal/billing/application"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
)

// Client talks to the Stripe API.
type Client struct{}

// NewClient wires the Stripe API key and returns the gateway.
func NewClient(apiKey string) *Client {
	stripe.Key = apiKey
	return &Client{}
}

// CustomerEmail returns the email on file for a Stripe customer.
func (c *Client) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := customer.Get(customerID, params)
	if err != nil {
		return "", fmt.Errorf("retrieve customer %s: %w", customerID, err)
	}
	return cust.Email, nil
}

// SubscriptionDetails retrieves status, period end and plan for a subscription.
func (c *Client) SubscriptionDetails(ctx context.Context, subscriptionID string) (application.SubscriptionDetails, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return application.SubscriptionDetails{}, fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}

	details := application.SubscriptionDetails{Status: string(sub.Status)}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.CurrentPeriodEnd > 0 {
			t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			details.CurrentPeriodEnd = &t
		}
		if item.Price != nil {
			details.PlanCode = item.Price.ID
		}
	}
	return details, nil
}

// EnsureCustomer creates a Stripe customer for the email. Used when a
// checkout session completes without a customer reference.
func (c *Client) EnsureCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer for %s: %w", email, err)
	}
	return cust.ID, nil
}

var _ application.PaymentGateway = (*Client)(nil)
