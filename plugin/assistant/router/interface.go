// Package router classifies a performer's message into exactly one Command
// and extracts its slots.
package router

import (
	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/store"
)

// Kind is the intent of a message.
type Kind string

const (
	KindAddEvent              Kind = "add_event"
	KindDeleteEvent           Kind = "delete_event"
	KindQueryCurrentWeek      Kind = "query_current_week"
	KindQueryNextWeek         Kind = "query_next_week"
	KindQueryVenueCurrentWeek Kind = "query_venue_current_week"
	KindQueryVenueNextWeek    Kind = "query_venue_next_week"
	KindConfirmPending        Kind = "confirm_pending"
	KindNewsRequest           Kind = "news_request"
	KindConductorRequest      Kind = "conductor_request"
	KindClarify               Kind = "clarify"
	KindUnknown               Kind = "unknown"
)

// ClarifyReason says what a Clarify command should ask for.
type ClarifyReason string

const (
	ReasonGeneral            ClarifyReason = "general"
	ReasonMissingTitleAdd    ClarifyReason = "missing_title_add"
	ReasonMissingTitleDelete ClarifyReason = "missing_title_delete"
	ReasonMissingDate        ClarifyReason = "missing_date"
	ReasonMissingTime        ClarifyReason = "missing_time"
	ReasonMissingDateAndTime ClarifyReason = "missing_date_and_time"
	ReasonUnknownMonth       ClarifyReason = "unknown_month"
	ReasonInvalidDate        ClarifyReason = "invalid_date"
	ReasonNothingPending     ClarifyReason = "nothing_pending"
)

// Command is the structured form of one message. Slots not relevant to Kind are zero.
type Command struct {
	Kind Kind

	Title     string
	Date      chrono.Date
	StartTime string
	EndTime   string
	Hall      store.Hall
	EventKind store.EventKind

	// Conductor answers a KindConductorRequest whose Title was recognised.
	Conductor string
	Reason    ClarifyReason
}
