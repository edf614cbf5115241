package store

import (
	"context"
)

// User is a performer, keyed by the chat identity.
type User struct {
	ID          int64
	DisplayName string
	Instrument  string
	CreatedTs   int64
	UpdatedTs   int64
}

type FindUser struct {
	ID *int64
}

// UpsertUser creates the user or refreshes its display name and instrument.
func (s *Store) UpsertUser(ctx context.Context, upsert *User) (*User, error) {
	return s.driver.UpsertUser(ctx, upsert)
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser returns the first matching user, or nil.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
