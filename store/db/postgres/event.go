package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/backstage/store"
)

const eventColumns = `id, uid, owner_id, title, date, start_time, end_time, hall, kind, role, external_ref, created_ts, updated_ts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*store.Event, error) {
	var event store.Event
	if err := row.Scan(
		&event.ID,
		&event.UID,
		&event.OwnerID,
		&event.Title,
		&event.Date,
		&event.StartTime,
		&event.EndTime,
		&event.Hall,
		&event.Kind,
		&event.Role,
		&event.ExternalRef,
		&event.CreatedTs,
		&event.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpsertEvent(ctx context.Context, upsert *store.Event) (*store.Event, error) {
	if upsert.UID == "" {
		upsert.UID = shortuuid.New()
	}
	now := time.Now().Unix()
	fields := []string{
		"uid", "owner_id", "title", "date", "start_time", "end_time",
		"hall", "kind", "role", "external_ref", "created_ts", "updated_ts",
	}
	args := []any{
		upsert.UID, upsert.OwnerID, upsert.Title, upsert.Date, upsert.StartTime, upsert.EndTime,
		upsert.Hall, upsert.Kind, upsert.Role, upsert.ExternalRef, now, now,
	}

	stmt := `INSERT INTO event (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (owner_id, title, date) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			hall = EXCLUDED.hall,
			kind = EXCLUDED.kind,
			role = EXCLUDED.role,
			external_ref = EXCLUDED.external_ref,
			updated_ts = EXCLUDED.updated_ts
		RETURNING ` + eventColumns

	event, err := scanEvent(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert event: %w", err)
	}
	return event, nil
}

func (d *DB) ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Title; v != nil {
		where, args = append(where, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Date; v != nil {
		where, args = append(where, "date = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DateFrom; v != nil {
		where, args = append(where, "date >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DateTo; v != nil {
		where, args = append(where, "date <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + eventColumns + `
		FROM event
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date ASC, start_time ASC, id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		list = append(list, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteEvent(ctx context.Context, delete *store.DeleteEvent) (*store.Event, error) {
	stmt := `DELETE FROM event
		WHERE owner_id = ` + placeholder(1) + ` AND title = ` + placeholder(2) + ` AND date = ` + placeholder(3) + `
		RETURNING ` + eventColumns

	event, err := scanEvent(d.db.QueryRowContext(ctx, stmt, delete.OwnerID, delete.Title, delete.Date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	return event, nil
}
