package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/A1iAshoor/s3-relay/internal/common"
	"github.com/A1iAshoor/s3-relay/internal/dbx"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
)

// PostgresRepository implements the queue-entry store over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `id, uuid, owner_type, owner_id, owner_slot, filename, content_type, public_url, private_url, state, created_at, imported_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (*models.QueueEntry, error) {
	var item models.QueueEntry
	var importedAt sql.NullTime
	err := row.Scan(&item.ID, &item.UUID, &item.Owner.Type, &item.Owner.ID, &item.Owner.Slot,
		&item.Filename, &item.ContentType, &item.PublicURL, &item.PrivateURL,
		&item.State, &item.CreatedAt, &importedAt)
	if err != nil {
		return nil, err
	}
	if importedAt.Valid {
		item.ImportedAt = &importedAt.Time
	}
	return &item, nil
}

// Create inserts a pending entry. The uuid uniqueness constraint makes
// exactly one caller win under concurrent duplicate reports; losers get
// ErrDuplicateUpload.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.QueueEntry) error {
	query := `
		INSERT INTO queue_entries (id, uuid, owner_type, owner_id, owner_slot, filename, content_type, public_url, private_url, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (uuid) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UUID, entry.Owner.Type, entry.Owner.ID, entry.Owner.Slot,
		entry.Filename, entry.ContentType, entry.PublicURL, entry.PrivateURL, models.StatePending)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrDuplicateUpload
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// GetByID returns one entry by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE id=$1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entry: %w", err)
	}
	return entry, nil
}

// SelectPending returns pending entries in creation order, optionally
// scoped to one owner.
func (r *PostgresRepository) SelectPending(ctx context.Context, owner *models.OwnerRef) ([]*models.QueueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE state=$1`
	args := []any{models.StatePending}
	if owner != nil {
		query += ` AND owner_type=$2 AND owner_id=$3`
		args = append(args, owner.Type, owner.ID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entries: %w", err)
	}
	defer rows.Close()

	var result []*models.QueueEntry
	for rows.Next() {
		item, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkImported transitions pending -> imported and stamps imported_at. The
// UPDATE only matches pending rows, so the reverse transition is impossible
// here. Calling it on an already-imported entry is a no-op success so
// ingestion workers can retry safely.
func (r *PostgresRepository) MarkImported(ctx context.Context, id string) (*models.QueueEntry, error) {
	query := `UPDATE queue_entries SET state=$1, imported_at=now() WHERE id=$2 AND state=$3`
	result, err := r.db.ExecContext(ctx, query, models.StateImported, id, models.StatePending)
	if err != nil {
		return nil, fmt.Errorf("failed to mark imported: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra > 1 {
		return nil, fmt.Errorf("wrong rows affected count: %d", ra)
	}

	// ra == 0 covers both a missing row and an already-imported one;
	// GetByID distinguishes them.
	entry, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.State != models.StateImported {
		return nil, fmt.Errorf("queue entry %s left in state %q", id, entry.State)
	}
	return entry, nil
}

// Delete removes an entry, regardless of state. Used for retention cleanup
// of orphaned or never-imported entries.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM queue_entries WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}
