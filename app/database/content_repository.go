package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ContentRepositoryImpl handles database operations for raw content items
type ContentRepositoryImpl struct {
	db *DB
}

var _ ContentRepository = (*ContentRepositoryImpl)(nil)

// NewContentRepository creates a new content repository
func NewContentRepository(db *DB) *ContentRepositoryImpl {
	return &ContentRepositoryImpl{db: db}
}

// UpsertItem inserts or updates an item by id. The stage status of an
// existing row is deliberately left untouched so re-ingesting an
// already-processed item does not queue it again.
func (r *ContentRepositoryImpl) UpsertItem(item ContentItem) error {
	_, err := r.db.Exec(`
		INSERT INTO raw_content (id, source, account, title, content, publish_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			account = excluded.account,
			title = excluded.title,
			content = excluded.content,
			publish_date = excluded.publish_date,
			updated_at = CURRENT_TIMESTAMP
	`, item.ID, item.Source, item.Account, item.Title, item.Content, item.PublishDate.UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

// ClaimNext atomically assigns the oldest pending item to the caller by
// moving it to processing within a single write transaction. Returns
// (nil, nil) when no pending item exists. The transaction is opened in
// immediate mode (see NewConnection), so two concurrent callers can never
// claim the same row.
func (r *ContentRepositoryImpl) ClaimNext() (*ContentItem, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	var item ContentItem
	err = tx.QueryRow(`
		SELECT id, source, account, title, content, publish_date, stage_status, created_at, updated_at
		FROM raw_content
		WHERE stage_status = ?
		ORDER BY publish_date ASC
		LIMIT 1
	`, StatusPending).Scan(
		&item.ID, &item.Source, &item.Account, &item.Title, &item.Content,
		&item.PublishDate, &item.StageStatus, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select pending item: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE raw_content
		SET stage_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, StatusProcessing, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark item as processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	item.StageStatus = StatusProcessing
	return &item, nil
}

// SetStatus updates the stage status of a single item
func (r *ContentRepositoryImpl) SetStatus(itemID string, status string) error {
	_, err := r.db.Exec(`
		UPDATE raw_content
		SET stage_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, itemID)

	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	return nil
}

// RecoverOnStartup resets every item stuck in processing or error back to
// pending. Called once before any worker starts; this is the sole retry
// mechanism for failed items.
func (r *ContentRepositoryImpl) RecoverOnStartup() (int, error) {
	res, err := r.db.Exec(`
		UPDATE raw_content
		SET stage_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE stage_status IN (?, ?)
	`, StatusPending, StatusProcessing, StatusError)

	if err != nil {
		return 0, fmt.Errorf("failed to recover items: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count recovered items: %w", err)
	}

	return int(affected), nil
}

// GetItem returns a single item by id, or nil if it does not exist
func (r *ContentRepositoryImpl) GetItem(itemID string) (*ContentItem, error) {
	var item ContentItem
	err := r.db.QueryRow(`
		SELECT id, source, account, title, content, publish_date, stage_status, created_at, updated_at
		FROM raw_content
		WHERE id = ?
	`, itemID).Scan(
		&item.ID, &item.Source, &item.Account, &item.Title, &item.Content,
		&item.PublishDate, &item.StageStatus, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// LatestPublishDate returns the most recent publish date stored for a
// (source, account) pair, or nil when no item exists yet. Used by the
// ingestion scheduler as the fetch watermark.
func (r *ContentRepositoryImpl) LatestPublishDate(source, account string) (*time.Time, error) {
	var latest time.Time
	err := r.db.QueryRow(`
		SELECT publish_date
		FROM raw_content
		WHERE source = ? AND account = ?
		ORDER BY publish_date DESC
		LIMIT 1
	`, source, account).Scan(&latest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest publish date: %w", err)
	}

	return &latest, nil
}

// GetStatusCounts returns the number of items per stage status
func (r *ContentRepositoryImpl) GetStatusCounts() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT stage_status, COUNT(*)
		FROM raw_content
		GROUP BY stage_status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}

	return counts, nil
}
