package domain

import "strings"

// SubscriptionStatus represents the current billing state as reported by the
// payment provider. Values outside this set are stored verbatim.
type SubscriptionStatus string

const (
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionTrialing          SubscriptionStatus = "trialing"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionCanceled          SubscriptionStatus = "canceled"
	SubscriptionUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionIncompleteExpired SubscriptionStatus = "incomplete_expired"
)

// IsEntitling reports whether the status alone grants access.
func (s SubscriptionStatus) IsEntitling() bool {
	switch SubscriptionStatus(strings.ToLower(string(s))) {
	case SubscriptionActive, SubscriptionTrialing:
		return true
	}
	return false
}

// IsRevoking reports whether the status should switch autopilot off for
// non-founder tenants.
func (s SubscriptionStatus) IsRevoking() bool {
	switch SubscriptionStatus(strings.ToLower(string(s))) {
	case SubscriptionCanceled, SubscriptionUnpaid, SubscriptionPastDue, SubscriptionIncompleteExpired:
		return true
	}
	return false
}
