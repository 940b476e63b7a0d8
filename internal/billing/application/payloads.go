package application

import (
	"encoding/json"
	"time"
)

// stripeRef is an expandable Stripe reference: either a bare id string or an
// object carrying an "id" field, depending on how the event was expanded.
type stripeRef string

func (r *stripeRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*r = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = stripeRef(s)
		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = stripeRef(obj.ID)
	return nil
}

func (r stripeRef) String() string { return string(r) }

type subscriptionPayload struct {
	ID               string    `json:"id"`
	Customer         stripeRef `json:"customer"`
	Status           string    `json:"status"`
	CurrentPeriodEnd int64     `json:"current_period_end"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// periodEnd returns the renewal timestamp, preferring the top-level field and
// falling back to the first subscription item (newer API versions moved it
// there).
func (p subscriptionPayload) periodEnd() *time.Time {
	epoch := p.CurrentPeriodEnd
	if epoch == 0 && len(p.Items.Data) > 0 {
		epoch = p.Items.Data[0].CurrentPeriodEnd
	}
	if epoch == 0 {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}

func (p subscriptionPayload) planCode() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	return p.Items.Data[0].Price.ID
}

type invoicePayload struct {
	ID            string    `json:"id"`
	CustomerEmail string    `json:"customer_email"`
	Customer      stripeRef `json:"customer"`
}

type checkoutSessionPayload struct {
	ID              string    `json:"id"`
	Customer        stripeRef `json:"customer"`
	Subscription    stripeRef `json:"subscription"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

func (p checkoutSessionPayload) email() string {
	if p.CustomerDetails.Email != "" {
		return p.CustomerDetails.Email
	}
	if p.CustomerEmail != "" {
		return p.CustomerEmail
	}
	return p.Metadata["email"]
}
