// Package notifications publishes resolution outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled. The
// resolved and errors toggles in [notifications] silence each message class
// independently.
package notifications
