package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// topicSchema constrains the model response to a non-empty list of
// name/content/keywords entries.
var topicSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"topics": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":      "string",
						"minLength": 1,
						"maxLength": 120,
					},
					"content": map[string]any{
						"type":      "string",
						"minLength": 1,
					},
					"keywords": map[string]any{
						"type":      "string",
						"minLength": 1,
					},
				},
				"required":             []string{"name", "content", "keywords"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"topics"},
	"additionalProperties": false,
}

// OpenAIClient implements CompletionClient against any OpenAI-compatible
// chat completions endpoint using strict JSON-schema response formatting
type OpenAIClient struct {
	client openai.Client
	model  string
}

var _ CompletionClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a completion client for the given endpoint and model
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
		),
		model: model,
	}
}

// Complete issues one chat completion request constrained to topicSchema
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (*CompletionResult, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "topic_extraction",
					Description: openai.String("Topics distilled from one content item"),
					Schema:      topicSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("model returned empty content (finish reason: %s)", choice.FinishReason)
	}

	return &CompletionResult{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}
