package types

// SubscriptionStatus mirrors the billing provider's subscription lifecycle
// states. Stored verbatim on the profile so support can see exactly what the
// provider last reported.
type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = ""
	SubscriptionStatusOnTrial   SubscriptionStatus = "on_trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid    SubscriptionStatus = "unpaid"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// GrantsPro reports whether a subscription in this status entitles the
// creator to pro features. Cancelled subscriptions keep access until the
// provider emits subscription_expired at the end of the paid period.
func (s SubscriptionStatus) GrantsPro() bool {
	switch s {
	case SubscriptionStatusOnTrial, SubscriptionStatusActive, SubscriptionStatusPastDue, SubscriptionStatusCancelled:
		return true
	default:
		return false
	}
}

// CollabStatus is the lifecycle state of a brand collaboration request.
type CollabStatus string

const (
	CollabStatusPending  CollabStatus = "pending"
	CollabStatusAccepted CollabStatus = "accepted"
	CollabStatusDeclined CollabStatus = "declined"
)

// IsTerminal reports whether the collab request has been responded to.
func (s CollabStatus) IsTerminal() bool {
	return s == CollabStatusAccepted || s == CollabStatusDeclined
}
