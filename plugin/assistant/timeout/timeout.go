// Package timeout defines the default bounds for calls that leave the process.
package timeout

import "time"

const (
	// FeedTimeout bounds one playbill or news fetch.
	FeedTimeout = 10 * time.Second

	// CalendarTimeout bounds one external calendar call.
	CalendarTimeout = 15 * time.Second

	// LockWaitTimeout bounds how long a message waits behind the same performer's previous one.
	LockWaitTimeout = 30 * time.Second

	// PendingTTL is how long an unanswered suggestion stays confirmable.
	PendingTTL = 30 * time.Minute

	// ListingTTL is how long a fetched playbill is served from cache.
	ListingTTL = 30 * time.Minute
)
