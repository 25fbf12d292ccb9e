package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

const sqliteDraftSchema = `
CREATE TABLE IF NOT EXISTS wizard_drafts (
	id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	service_type TEXT NOT NULL,
	item_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wizard_drafts_expires ON wizard_drafts (expires_at);
`

// SQLiteDraftRepository keeps drafts in a local file so a single instance
// survives restarts without a MySQL server. Timestamps are Unix milliseconds.
type SQLiteDraftRepository struct {
	db *sql.DB
}

func NewSQLiteDraftRepository(db *sql.DB) *SQLiteDraftRepository {
	return &SQLiteDraftRepository{db: db}
}

func (r *SQLiteDraftRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteDraftSchema); err != nil {
		return fmt.Errorf("creating wizard_drafts table: %w", err)
	}
	return nil
}

func (r *SQLiteDraftRepository) Save(ctx context.Context, d domain.Draft) error {
	query := `
		INSERT INTO wizard_drafts (id, state, service_type, item_id, payload, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.State, string(d.ServiceType), d.ItemID, string(d.Payload),
		d.UpdatedAt.UnixMilli(), d.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving draft %s: %w", d.ID, err)
	}
	return nil
}

func (r *SQLiteDraftRepository) FindByID(ctx context.Context, id string, now time.Time) (*domain.Draft, error) {
	query := `
		SELECT id, state, service_type, item_id, payload, updated_at, expires_at
		FROM wizard_drafts
		WHERE id = ? AND expires_at > ?
	`

	var (
		d                  domain.Draft
		service, payload   string
		updated, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id, now.UnixMilli()).Scan(
		&d.ID, &d.State, &service, &d.ItemID, &payload, &updated, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("wizard %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying draft by id: %w", err)
	}
	d.ServiceType = domain.ServiceType(service)
	d.Payload = []byte(payload)
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	d.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &d, nil
}

func (r *SQLiteDraftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wizard_drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

func (r *SQLiteDraftRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wizard_drafts WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("deleting expired drafts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}
