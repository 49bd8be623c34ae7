package api

import (
	"time"

	"github.com/feedlab/topicast/app/database"
)

type Handler struct {
	contentRepo database.ContentRepository
	topicRepo   database.TopicRepository
	version     string
}

// TopicSummaryResponse is one row of GET /api/topics
type TopicSummaryResponse struct {
	TopicID         int64     `json:"topic_id"`
	TopicName       string    `json:"topic_name"`
	Account         string    `json:"account"`
	Source          string    `json:"source"`
	PublishDate     time.Time `json:"publish_date"`
	SubscriberCount *int64    `json:"subscriber_count"`
}

// TopicDetailResponse is one row of GET /api/topics/details
type TopicDetailResponse struct {
	TopicID         int64     `json:"topic_id"`
	TopicTitle      string    `json:"topic_title"`
	Content         string    `json:"content"`
	Account         string    `json:"account"`
	Source          string    `json:"source"`
	PublishDate     time.Time `json:"publish_date"`
	SubscriberCount *int64    `json:"subscriber_count"`
}
