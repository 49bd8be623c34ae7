package database

import (
	"database/sql"
	"fmt"
)

// ChannelRepositoryImpl handles database operations for the channel
// metadata cache
type ChannelRepositoryImpl struct {
	db *DB
}

var _ ChannelRepository = (*ChannelRepositoryImpl)(nil)

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepositoryImpl {
	return &ChannelRepositoryImpl{db: db}
}

// GetChannel returns cached channel metadata for an account, or nil when
// the account has not been resolved yet
func (r *ChannelRepositoryImpl) GetChannel(accountName string) (*ChannelMetadata, error) {
	var meta ChannelMetadata
	err := r.db.QueryRow(`
		SELECT account_name, source, channel_id, channel_title, subscriber_count, resolved_at, last_checked
		FROM channel_metadata
		WHERE account_name = ?
	`, accountName).Scan(
		&meta.AccountName, &meta.Source, &meta.ChannelID, &meta.ChannelTitle,
		&meta.SubscriberCount, &meta.ResolvedAt, &meta.LastChecked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel metadata: %w", err)
	}

	return &meta, nil
}

// UpsertChannel inserts or replaces the cached metadata for an account
func (r *ChannelRepositoryImpl) UpsertChannel(meta ChannelMetadata) error {
	_, err := r.db.Exec(`
		INSERT INTO channel_metadata (account_name, source, channel_id, channel_title, subscriber_count, resolved_at, last_checked)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(account_name) DO UPDATE SET
			source = excluded.source,
			channel_id = excluded.channel_id,
			channel_title = excluded.channel_title,
			subscriber_count = excluded.subscriber_count,
			resolved_at = CURRENT_TIMESTAMP,
			last_checked = CURRENT_TIMESTAMP
	`, meta.AccountName, meta.Source, meta.ChannelID, meta.ChannelTitle, meta.SubscriberCount)

	if err != nil {
		return fmt.Errorf("failed to upsert channel metadata: %w", err)
	}

	return nil
}

// UpdateSubscriberCount refreshes the cached subscriber count and bumps
// last_checked without touching the resolution fields
func (r *ChannelRepositoryImpl) UpdateSubscriberCount(accountName string, subscriberCount int64) error {
	_, err := r.db.Exec(`
		UPDATE channel_metadata
		SET subscriber_count = ?, last_checked = CURRENT_TIMESTAMP
		WHERE account_name = ?
	`, subscriberCount, accountName)

	if err != nil {
		return fmt.Errorf("failed to update subscriber count: %w", err)
	}

	return nil
}
