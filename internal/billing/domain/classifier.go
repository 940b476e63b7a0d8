package domain

import (
	"strings"

	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
)

// FounderList is the allow-list of emails entitled regardless of payment
// status. It comes from configuration as a comma-delimited string.
type FounderList map[string]struct{}

// ParseFounderList parses a comma-delimited, case-insensitive allow-list.
func ParseFounderList(raw string) FounderList {
	list := FounderList{}
	for _, entry := range strings.Split(strings.ToLower(raw), ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			list[entry] = struct{}{}
		}
	}
	return list
}

// Contains reports whether the normalized email is on the allow-list.
func (f FounderList) Contains(email string) bool {
	if len(f) == 0 {
		return false
	}
	_, ok := f[tenantDomain.NormalizeEmail(email)]
	return ok
}

// Entitlement is the derived access state for a tenant. It is never
// persisted; every read recomputes it.
type Entitlement struct {
	Founder bool
	Active  bool
}

// Classify derives the entitlement from the stored subscription status and the
// founder allow-list. A nil status means no subscription has ever been
// reported for the tenant.
func Classify(email string, status *string, founders FounderList) Entitlement {
	founder := founders.Contains(email)

	active := founder
	if !active && status != nil {
		active = SubscriptionStatus(*status).IsEntitling()
	}

	return Entitlement{Founder: founder, Active: active}
}
