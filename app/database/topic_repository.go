package database

import (
	"fmt"
	"strings"
	"time"
)

// TopicRepositoryImpl handles database operations for derived topics
type TopicRepositoryImpl struct {
	db *DB
}

var _ TopicRepository = (*TopicRepositoryImpl)(nil)

// NewTopicRepository creates a new topic repository
func NewTopicRepository(db *DB) *TopicRepositoryImpl {
	return &TopicRepositoryImpl{db: db}
}

// ReplaceTopics deletes all existing topic rows for an item and inserts
// the new set within one transaction. The topic set for an item is always
// replaced as a whole, never merged.
func (r *TopicRepositoryImpl) ReplaceTopics(itemID string, topics []Topic) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM topics WHERE raw_content_id = ?`, itemID); err != nil {
		return fmt.Errorf("failed to delete existing topics: %w", err)
	}

	for _, topic := range topics {
		_, err := tx.Exec(`
			INSERT INTO topics (raw_content_id, name, content, keywords, generated_by_model)
			VALUES (?, ?, ?, ?, ?)
		`, itemID, topic.Name, topic.Content, topic.Keywords, topic.GeneratedByModel)
		if err != nil {
			return fmt.Errorf("failed to insert topic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit topic replacement: %w", err)
	}

	return nil
}

// GetTopicsByItem returns all topics derived from a single item
func (r *TopicRepositoryImpl) GetTopicsByItem(itemID string) ([]Topic, error) {
	rows, err := r.db.Query(`
		SELECT id, raw_content_id, name, content, keywords, generated_at, generated_by_model
		FROM topics
		WHERE raw_content_id = ?
		ORDER BY id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var topic Topic
		err := rows.Scan(&topic.ID, &topic.RawContentID, &topic.Name, &topic.Content,
			&topic.Keywords, &topic.GeneratedAt, &topic.GeneratedByModel)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic rows: %w", err)
	}

	return topics, nil
}

// TopicsByDateRange returns topics whose owning item was published within
// the trailing N-day window (inclusive lower bound), newest first.
// When account is non-empty, results are filtered to that handle using
// case- and @-insensitive comparison.
func (r *TopicRepositoryImpl) TopicsByDateRange(days int, account string) ([]TopicSummary, error) {
	// Truncate to whole seconds so an item published exactly N days ago
	// is not pushed out of the window by query-time nanoseconds.
	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour).Truncate(time.Second)

	rows, err := r.db.Query(`
		SELECT t.id, t.name, c.account, c.source, c.publish_date, m.subscriber_count
		FROM topics t
		JOIN raw_content c ON c.id = t.raw_content_id
		LEFT JOIN channel_metadata m ON m.account_name = c.account
		WHERE c.publish_date >= ?
		ORDER BY c.publish_date DESC, t.id
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics by date range: %w", err)
	}
	defer rows.Close()

	wantAccount := NormalizeAccount(account)

	var summaries []TopicSummary
	for rows.Next() {
		var summary TopicSummary
		err := rows.Scan(&summary.TopicID, &summary.TopicName, &summary.Account,
			&summary.Source, &summary.PublishDate, &summary.SubscriberCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic summary row: %w", err)
		}

		// Handle filtering uses Unicode case folding, which SQLite's
		// ASCII-only LOWER cannot do, so it happens here.
		if wantAccount != "" && NormalizeAccount(summary.Account) != wantAccount {
			continue
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic summary rows: %w", err)
	}

	return summaries, nil
}

// TopicsByIDs returns the full topic records for an explicit id set,
// de-duplicated and joined back to the owning item, grouped by item.
func (r *TopicRepositoryImpl) TopicsByIDs(ids []int64) ([]TopicDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	placeholders := strings.Repeat("?,", len(unique))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	rows, err := r.db.Query(`
		SELECT t.id, t.name, t.content, c.account, c.source, c.publish_date, m.subscriber_count
		FROM topics t
		JOIN raw_content c ON c.id = t.raw_content_id
		LEFT JOIN channel_metadata m ON m.account_name = c.account
		WHERE t.id IN (`+placeholders+`)
		ORDER BY c.publish_date DESC, t.raw_content_id, t.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics by ids: %w", err)
	}
	defer rows.Close()

	var details []TopicDetail
	for rows.Next() {
		var detail TopicDetail
		err := rows.Scan(&detail.TopicID, &detail.TopicTitle, &detail.Content,
			&detail.Account, &detail.Source, &detail.PublishDate, &detail.SubscriberCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic detail row: %w", err)
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic detail rows: %w", err)
	}

	return details, nil
}

// GetTopicCount returns the total number of stored topics
func (r *TopicRepositoryImpl) GetTopicCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get topic count: %w", err)
	}
	return count, nil
}
