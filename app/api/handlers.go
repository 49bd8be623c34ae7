package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedlab/topicast/app/database"
)

const defaultWindowDays = 7

func NewHandler(contentRepo database.ContentRepository, topicRepo database.TopicRepository,
	version string) *Handler {
	return &Handler{
		contentRepo: contentRepo,
		topicRepo:   topicRepo,
		version:     version,
	}
}

// GetTopics lists topics from the trailing window, newest first.
// days defaults to 7; account optionally narrows to one channel.
func (h *Handler) GetTopics(c *gin.Context) {
	days := defaultWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	account := c.Query("account")

	topics, err := h.topicRepo.TopicsByDateRange(days, account)
	if err != nil {
		slog.Error("Database error", "operation", "topics_by_date_range", "days", days, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]TopicSummaryResponse, 0, len(topics))
	for _, topic := range topics {
		results = append(results, TopicSummaryResponse{
			TopicID:         topic.TopicID,
			TopicName:       topic.TopicName,
			Account:         topic.Account,
			Source:          topic.Source,
			PublishDate:     topic.PublishDate,
			SubscriberCount: topic.SubscriberCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": results,
		"total":  len(results),
		"days":   days,
	})
}

// GetTopicDetails returns full topic bodies for a comma-separated list
// of topic ids. Unknown ids are silently omitted.
func (h *Handler) GetTopicDetails(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ids parameter"})
		return
	}

	ids, err := parseIDList(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must be a comma-separated list of integers"})
		return
	}

	topics, err := h.topicRepo.TopicsByIDs(ids)
	if err != nil {
		slog.Error("Database error", "operation", "topics_by_ids", "count", len(ids), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]TopicDetailResponse, 0, len(topics))
	for _, topic := range topics {
		results = append(results, TopicDetailResponse{
			TopicID:         topic.TopicID,
			TopicTitle:      topic.TopicTitle,
			Content:         topic.Content,
			Account:         topic.Account,
			Source:          topic.Source,
			PublishDate:     topic.PublishDate,
			SubscriberCount: topic.SubscriberCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": results,
		"total":  len(results),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if counts, err := h.contentRepo.GetStatusCounts(); err == nil {
		health["items"] = counts
	} else {
		slog.Error("Database error", "operation", "status_counts", "error", err)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"version": h.version,
	}

	if counts, err := h.contentRepo.GetStatusCounts(); err == nil {
		stats["items_by_status"] = counts
	} else {
		slog.Error("Database error", "operation", "status_counts", "error", err)
	}

	if count, err := h.topicRepo.GetTopicCount(); err == nil {
		stats["topic_count"] = count
	} else {
		slog.Error("Database error", "operation", "topic_count", "error", err)
	}

	c.JSON(http.StatusOK, stats)
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
