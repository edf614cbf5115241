// Package session keeps per-performer conversational state between messages.
package session

import (
	"context"

	"github.com/hrygo/backstage/store"
)

// PendingStore holds at most one PendingSuggestion per owner. Save overwrites.
type PendingStore interface {
	Save(ctx context.Context, suggestion *PendingSuggestion) error
	// Load returns nil, nil when the owner has nothing pending.
	Load(ctx context.Context, ownerID int64) (*PendingSuggestion, error)
	Clear(ctx context.Context, ownerID int64) error
}

// PendingSuggestion is a listing-derived event set offered to a performer and
// awaiting a yes. Candidates carry no ID and no external ref.
type PendingSuggestion struct {
	OwnerID    int64          `json:"owner_id"`
	Candidates []*store.Event `json:"candidates"`
	CreatedAt  int64          `json:"created_at"`
}
