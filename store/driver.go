package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// SystemSetting model related methods.
	GetSystemSetting(ctx context.Context, name string) (string, error)
	UpsertSystemSetting(ctx context.Context, name, value string) error

	// User model related methods.
	UpsertUser(ctx context.Context, upsert *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// Event model related methods.
	// UpsertEvent replaces any existing row with the same (owner_id, title, date).
	UpsertEvent(ctx context.Context, upsert *Event) (*Event, error)
	ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error)
	// DeleteEvent removes the matching row and returns it, or nil when nothing matched.
	DeleteEvent(ctx context.Context, delete *DeleteEvent) (*Event, error)
}
