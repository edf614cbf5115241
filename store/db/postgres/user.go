package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/backstage/store"
)

func (d *DB) UpsertUser(ctx context.Context, upsert *store.User) (*store.User, error) {
	now := time.Now().Unix()
	stmt := `INSERT INTO performer (id, display_name, instrument, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (id) DO UPDATE SET
			display_name = CASE WHEN EXCLUDED.display_name = '' THEN performer.display_name ELSE EXCLUDED.display_name END,
			instrument = CASE WHEN EXCLUDED.instrument = '' THEN performer.instrument ELSE EXCLUDED.instrument END,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, display_name, instrument, created_ts, updated_ts`

	user := &store.User{}
	if err := d.db.QueryRowContext(ctx, stmt, upsert.ID, upsert.DisplayName, upsert.Instrument, now, now).Scan(
		&user.ID,
		&user.DisplayName,
		&user.Instrument,
		&user.CreatedTs,
		&user.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, display_name, instrument, created_ts, updated_ts
		FROM performer
		WHERE `+strings.Join(where, " AND ")+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	list := make([]*store.User, 0)
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.DisplayName, &user.Instrument, &user.CreatedTs, &user.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return list, nil
}
