package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

const mysqlDraftSchema = `
CREATE TABLE IF NOT EXISTS WizardDrafts (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	state VARCHAR(20) NOT NULL,
	serviceType VARCHAR(20) NOT NULL,
	itemId VARCHAR(128) NOT NULL,
	payload JSON NOT NULL,
	updatedAt DATETIME(3) NOT NULL,
	expiresAt DATETIME(3) NOT NULL,
	INDEX idx_expires (expiresAt)
)`

type MySQLDraftRepository struct {
	db               *sql.DB
	logger           *zap.Logger
	maxRetryAttempts int
}

func NewMySQLDraftRepository(db *sql.DB, logger *zap.Logger, maxRetryAttempts int) *MySQLDraftRepository {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &MySQLDraftRepository{db: db, logger: logger, maxRetryAttempts: maxRetryAttempts}
}

func (r *MySQLDraftRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, mysqlDraftSchema); err != nil {
		return fmt.Errorf("creating WizardDrafts table: %w", err)
	}
	return nil
}

// Save upserts the draft. Concurrent saves of the same wizard can deadlock
// on the primary key; those are retried with backoff.
func (r *MySQLDraftRepository) Save(ctx context.Context, d domain.Draft) error {
	query := `
		INSERT INTO WizardDrafts (id, state, serviceType, itemId, payload, updatedAt, expiresAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			state = VALUES(state),
			payload = VALUES(payload),
			updatedAt = VALUES(updatedAt),
			expiresAt = VALUES(expiresAt)
	`
	backoffs := []time.Duration{0, 50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

	var err error
	for attempt := 1; attempt <= r.maxRetryAttempts; attempt++ {
		_, err = r.db.ExecContext(ctx, query,
			d.ID, d.State, string(d.ServiceType), d.ItemID, []byte(d.Payload),
			d.UpdatedAt.UTC(), d.ExpiresAt.UTC(),
		)
		if err == nil {
			return nil
		}
		if !isDeadlockError(err) || attempt == r.maxRetryAttempts {
			break
		}
		base := backoffs[min(attempt, len(backoffs)-1)]
		jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
		r.logger.Warn("deadlock saving draft, retrying",
			zap.String("wizardId", d.ID), zap.Int("attempt", attempt), zap.Int("maxAttempts", r.maxRetryAttempts))
		time.Sleep(base + jitter)
	}
	return fmt.Errorf("saving draft %s: %w", d.ID, err)
}

func (r *MySQLDraftRepository) FindByID(ctx context.Context, id string, now time.Time) (*domain.Draft, error) {
	query := `
		SELECT id, state, serviceType, itemId, payload, updatedAt, expiresAt
		FROM WizardDrafts
		WHERE id = ? AND expiresAt > ?
	`

	var (
		d       domain.Draft
		service string
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, query, id, now.UTC()).Scan(
		&d.ID, &d.State, &service, &d.ItemID, &payload, &d.UpdatedAt, &d.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("wizard %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying draft by id: %w", err)
	}
	d.ServiceType = domain.ServiceType(service)
	d.Payload = payload
	return &d, nil
}

func (r *MySQLDraftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM WizardDrafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

func (r *MySQLDraftRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM WizardDrafts WHERE expiresAt <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired drafts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
