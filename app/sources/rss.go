package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/feedlab/topicast/app/database"
)

// RSSAdapter ingests one RSS or Atom feed. With article extraction
// enabled it follows each entry link and keeps the readable article
// body instead of the feed excerpt.
type RSSAdapter struct {
	account        string
	feedURL        string
	extractArticle bool
	httpClient     *http.Client
	parser         *gofeed.Parser
	contentRepo    database.ContentRepository
	userAgent      string
	timeout        time.Duration
}

var _ Adapter = (*RSSAdapter)(nil)

func NewRSSAdapter(account, feedURL string, extractArticle bool, httpClient *http.Client,
	contentRepo database.ContentRepository, userAgent string, timeout time.Duration) *RSSAdapter {
	return &RSSAdapter{
		account:        account,
		feedURL:        feedURL,
		extractArticle: extractArticle,
		httpClient:     httpClient,
		parser:         gofeed.NewParser(),
		contentRepo:    contentRepo,
		userAgent:      userAgent,
		timeout:        timeout,
	}
}

func (a *RSSAdapter) Source() string {
	return "rss"
}

func (a *RSSAdapter) Account() string {
	return a.account
}

func (a *RSSAdapter) Fetch(ctx context.Context, since time.Time) error {
	data, err := fetchURL(ctx, a.httpClient, a.feedURL, a.userAgent, a.timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := a.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	newCount := 0
	for _, entry := range feed.Items {
		publishDate := entryDate(entry)
		if publishDate == nil {
			slog.Debug("Skipping feed entry without publish date", "account", a.account, "title", entry.Title)
			continue
		}
		if !publishDate.After(since) {
			continue
		}

		item := database.ContentItem{
			ID:          entryID(entry),
			Source:      a.Source(),
			Account:     a.account,
			Title:       entry.Title,
			Content:     a.entryContent(ctx, entry),
			PublishDate: publishDate.UTC(),
		}

		if err := a.contentRepo.UpsertItem(item); err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
		newCount++
	}

	slog.Info("RSS feed ingested", "account", a.account, "total", len(feed.Items), "new", newCount)
	return nil
}

// entryContent picks the richest body available for one entry. Article
// extraction failures fall back to the feed-provided text.
func (a *RSSAdapter) entryContent(ctx context.Context, entry *gofeed.Item) string {
	if a.extractArticle && entry.Link != "" {
		if article, err := a.fetchArticle(ctx, entry.Link); err != nil {
			slog.Warn("Article extraction failed, using feed content", "account", a.account, "link", entry.Link, "error", err)
		} else if article != "" {
			return article
		}
	}

	if entry.Content != "" {
		return entry.Content
	}
	return entry.Description
}

func (a *RSSAdapter) fetchArticle(ctx context.Context, link string) (string, error) {
	data, err := fetchURL(ctx, a.httpClient, link, a.userAgent, a.timeout)
	if err != nil {
		return "", err
	}

	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid article URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract article: %w", err)
	}

	return strings.TrimSpace(article.TextContent), nil
}

// entryID builds the dedup key from the entry GUID, falling back to the
// entry link when the feed omits GUIDs
func entryID(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return "rss:" + entry.GUID
	}
	return "rss:" + entry.Link
}

// entryDate prefers the updated timestamp over the published one so an
// edited article is re-ingested
func entryDate(entry *gofeed.Item) *time.Time {
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed
	}
	return entry.PublishedParsed
}
