package stripe

import "strings"

// NormalizeStatus folds Stripe subscription states into the few the service
// distinguishes.
func NormalizeStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "":
		return "none"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(s)
	}
}

// IsActive reports whether a subscription in this state grants its tier.
func IsActive(status string) bool {
	switch NormalizeStatus(status) {
	case "active", "trialing":
		return true
	}
	return false
}
