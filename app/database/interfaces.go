package database

import (
	"time"
)

type ContentRepository interface {
	UpsertItem(item ContentItem) error
	ClaimNext() (*ContentItem, error)
	SetStatus(itemID string, status string) error
	RecoverOnStartup() (int, error)

	GetItem(itemID string) (*ContentItem, error)
	LatestPublishDate(source, account string) (*time.Time, error)
	GetStatusCounts() (map[string]int, error)
}

type TopicRepository interface {
	ReplaceTopics(itemID string, topics []Topic) error

	GetTopicsByItem(itemID string) ([]Topic, error)
	TopicsByDateRange(days int, account string) ([]TopicSummary, error)
	TopicsByIDs(ids []int64) ([]TopicDetail, error)
	GetTopicCount() (int, error)
}

type ChannelRepository interface {
	GetChannel(accountName string) (*ChannelMetadata, error)
	UpsertChannel(meta ChannelMetadata) error
	UpdateSubscriberCount(accountName string, subscriberCount int64) error
}
