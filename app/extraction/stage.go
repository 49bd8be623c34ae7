package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/feedlab/topicast/app/database"
)

// Stage turns one raw content item into validated topic records via a
// structured-output model call. Its Claim/Process/HandleError methods are
// the three operations plugged into a worker pool.
type Stage struct {
	contentRepo  database.ContentRepository
	topicRepo    database.TopicRepository
	client       CompletionClient
	model        string
	systemPrompt string
}

func NewStage(contentRepo database.ContentRepository, topicRepo database.TopicRepository,
	client CompletionClient, model, systemPrompt string) *Stage {
	return &Stage{
		contentRepo:  contentRepo,
		topicRepo:    topicRepo,
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
	}
}

// Claim fetches the next pending item, moving it to processing
func (s *Stage) Claim() (*database.ContentItem, error) {
	return s.contentRepo.ClaimNext()
}

// Process distills one item into topics and persists them atomically.
// The model call happens outside any store transaction.
func (s *Stage) Process(ctx context.Context, item *database.ContentItem) error {
	userPrompt := fmt.Sprintf("Source: %s\nAccount: %s\n\n%s", item.Source, item.Account, item.Content)

	result, err := s.client.Complete(ctx, s.systemPrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	topics, err := s.parseTopics(result.Content)
	if err != nil {
		return err
	}

	dbTopics := make([]database.Topic, 0, len(topics))
	for _, topic := range topics {
		dbTopics = append(dbTopics, database.Topic{
			Name:             topic.Name,
			Content:          topic.Content,
			Keywords:         topic.Keywords,
			GeneratedByModel: s.model,
		})
	}

	if err := s.topicRepo.ReplaceTopics(item.ID, dbTopics); err != nil {
		return fmt.Errorf("failed to store topics: %w", err)
	}

	if err := s.contentRepo.SetStatus(item.ID, database.StatusDone); err != nil {
		return fmt.Errorf("failed to mark item as done: %w", err)
	}

	slog.Info("Topics extracted",
		"item_id", item.ID,
		"account", item.Account,
		"topics", len(dbTopics),
		"finish_reason", result.FinishReason)

	return nil
}

// HandleError marks the failed item with status error. A nil item means
// the claim itself failed and there is nothing to mark.
func (s *Stage) HandleError(item *database.ContentItem, err error) {
	if item == nil {
		slog.Error("Failed to claim next item", "error", err)
		return
	}

	slog.Error("Topic extraction failed", "item_id", item.ID, "account", item.Account, "error", err)

	if statusErr := s.contentRepo.SetStatus(item.ID, database.StatusError); statusErr != nil {
		slog.Error("Failed to mark item as errored", "item_id", item.ID, "error", statusErr)
	}
}

// parseTopics decodes the model response, trims each entry and drops
// entries whose trimmed name or content is empty. A zero-topic result is
// an explicit error: silently succeeding with nothing stored would hide
// model-quality regressions.
func (s *Stage) parseTopics(content string) ([]topicEntry, error) {
	var response topicResponse
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	topics := make([]topicEntry, 0, len(response.Topics))
	for _, entry := range response.Topics {
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Content = strings.TrimSpace(entry.Content)
		if entry.Name == "" || entry.Content == "" {
			slog.Warn("Dropping topic with empty name or content")
			continue
		}
		topics = append(topics, entry)
	}

	if len(topics) == 0 {
		return nil, fmt.Errorf("model returned no usable topics")
	}

	return topics, nil
}
