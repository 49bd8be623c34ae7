package database

import (
	"time"
)

// Stage status values for raw content items. An item left in processing
// or error is reset to pending on the next startup; there is no terminal
// failure state.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// ContentItem represents one ingested unit (e.g. one video transcript)
type ContentItem struct {
	ID          string // Platform-scoped dedup key, e.g. "yt:video:abc123"
	Source      string
	Account     string
	Title       string
	Content     string
	PublishDate time.Time
	StageStatus string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Topic represents a distilled unit derived from exactly one content item
type Topic struct {
	ID               int64
	RawContentID     string
	Name             string
	Content          string
	Keywords         string
	GeneratedAt      time.Time
	GeneratedByModel string
}

// ChannelMetadata caches resolved channel details per (source, account).
// Absence of a row degrades to an unknown subscriber count.
type ChannelMetadata struct {
	AccountName     string
	Source          string
	ChannelID       string
	ChannelTitle    string
	SubscriberCount *int64
	ResolvedAt      *time.Time
	LastChecked     *time.Time
}

// TopicSummary is one row of the trailing-window topic listing
type TopicSummary struct {
	TopicID         int64
	TopicName       string
	Account         string
	Source          string
	PublishDate     time.Time
	SubscriberCount *int64
}

// TopicDetail is one row of the by-ids topic lookup, joined back to the
// owning item
type TopicDetail struct {
	TopicID         int64
	TopicTitle      string
	Content         string
	Account         string
	Source          string
	PublishDate     time.Time
	SubscriberCount *int64
}
