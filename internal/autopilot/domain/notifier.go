// Package domain holds the autopilot toggle contracts.
package domain

import "context"

// NotifyResult reports the outcome of a best-effort Coordinator notify.
// Callers log it; it never becomes a request failure.
type NotifyResult struct {
	Delivered bool
	Reason    string
}

// Notifier delivers toggle notifications to the Coordinator, at most once.
type Notifier interface {
	Notify(ctx context.Context, email string, enabled bool) NotifyResult
}
