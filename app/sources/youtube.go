package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedlab/topicast/app/database"
)

const youtubeFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// subscriberCountRefresh is how stale a cached subscriber count may get
// before the adapter re-checks the channel page
const subscriberCountRefresh = 24 * time.Hour

var (
	channelIDPattern   = regexp.MustCompile(`"channelId":"(UC[\w-]{22})"`)
	channelNamePattern = regexp.MustCompile(`<meta property="og:title" content="([^"]+)"`)
	subscriberPattern  = regexp.MustCompile(`"subscriberCountText":\{"simpleText":"([\d.,]+[KM]?)\s`)
)

// YouTubeAdapter ingests the uploads feed of one YouTube channel. The
// @handle is resolved to a channel id by scraping the channel page once
// and cached in channel_metadata together with title and subscriber count.
type YouTubeAdapter struct {
	account     string
	httpClient  *http.Client
	parser      *gofeed.Parser
	contentRepo database.ContentRepository
	channelRepo database.ChannelRepository
	userAgent   string
	timeout     time.Duration
}

var _ Adapter = (*YouTubeAdapter)(nil)

func NewYouTubeAdapter(account string, httpClient *http.Client, contentRepo database.ContentRepository,
	channelRepo database.ChannelRepository, userAgent string, timeout time.Duration) *YouTubeAdapter {
	return &YouTubeAdapter{
		account:     account,
		httpClient:  httpClient,
		parser:      gofeed.NewParser(),
		contentRepo: contentRepo,
		channelRepo: channelRepo,
		userAgent:   userAgent,
		timeout:     timeout,
	}
}

func (a *YouTubeAdapter) Source() string {
	return "youtube"
}

func (a *YouTubeAdapter) Account() string {
	return a.account
}

// Fetch resolves the channel, downloads its uploads feed and upserts
// every video published after since
func (a *YouTubeAdapter) Fetch(ctx context.Context, since time.Time) error {
	meta, err := a.resolveChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve channel: %w", err)
	}

	data, err := fetchURL(ctx, a.httpClient, youtubeFeedURL+meta.ChannelID, a.userAgent, a.timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch uploads feed: %w", err)
	}

	feed, err := a.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse uploads feed: %w", err)
	}

	newCount := 0
	for _, entry := range feed.Items {
		if entry.PublishedParsed == nil {
			slog.Debug("Skipping feed entry without publish date", "account", a.account, "title", entry.Title)
			continue
		}
		if !entry.PublishedParsed.After(since) {
			continue
		}

		item := database.ContentItem{
			ID:          entry.GUID,
			Source:      a.Source(),
			Account:     a.account,
			Title:       entry.Title,
			Content:     videoContent(entry),
			PublishDate: entry.PublishedParsed.UTC(),
		}
		if item.ID == "" {
			item.ID = "yt:link:" + entry.Link
		}

		if err := a.contentRepo.UpsertItem(item); err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
		newCount++
	}

	slog.Info("YouTube channel ingested", "account", a.account, "total", len(feed.Items), "new", newCount)
	return nil
}

// resolveChannel returns cached channel metadata, scraping the channel
// page on a cache miss. A stale subscriber count is refreshed
// best-effort: a failed refresh never fails the fetch.
func (a *YouTubeAdapter) resolveChannel(ctx context.Context) (*database.ChannelMetadata, error) {
	cached, err := a.channelRepo.GetChannel(a.account)
	if err != nil {
		return nil, err
	}

	if cached != nil && cached.ChannelID != "" {
		if cached.LastChecked == nil || time.Since(*cached.LastChecked) > subscriberCountRefresh {
			if fresh, err := a.scrapeChannelPage(ctx); err != nil {
				slog.Warn("Failed to refresh subscriber count", "account", a.account, "error", err)
			} else if fresh.SubscriberCount != nil {
				if err := a.channelRepo.UpdateSubscriberCount(a.account, *fresh.SubscriberCount); err != nil {
					slog.Warn("Failed to store refreshed subscriber count", "account", a.account, "error", err)
				} else {
					cached.SubscriberCount = fresh.SubscriberCount
				}
			}
		}
		return cached, nil
	}

	meta, err := a.scrapeChannelPage(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.channelRepo.UpsertChannel(*meta); err != nil {
		return nil, fmt.Errorf("failed to cache channel metadata: %w", err)
	}

	return meta, nil
}

func (a *YouTubeAdapter) scrapeChannelPage(ctx context.Context) (*database.ChannelMetadata, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(a.account), "@")
	pageURL := "https://www.youtube.com/@" + url.PathEscape(handle) + "/about"

	data, err := fetchURL(ctx, a.httpClient, pageURL, a.userAgent, a.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel page: %w", err)
	}

	page := string(data)

	idMatch := channelIDPattern.FindStringSubmatch(page)
	if idMatch == nil {
		return nil, fmt.Errorf("channel id not found on channel page")
	}

	meta := &database.ChannelMetadata{
		AccountName: a.account,
		Source:      a.Source(),
		ChannelID:   idMatch[1],
	}

	if nameMatch := channelNamePattern.FindStringSubmatch(page); nameMatch != nil {
		meta.ChannelTitle = nameMatch[1]
	}

	if subMatch := subscriberPattern.FindStringSubmatch(page); subMatch != nil {
		if count, err := parseSubscriberCount(subMatch[1]); err == nil {
			meta.SubscriberCount = &count
		} else {
			slog.Debug("Unparseable subscriber count", "account", a.account, "raw", subMatch[1])
		}
	}

	return meta, nil
}

// parseSubscriberCount converts YouTube's abbreviated count ("1.23M",
// "12.5K", "987") into an absolute number
func parseSubscriberCount(raw string) (int64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, fmt.Errorf("empty subscriber count")
	}

	multiplier := int64(1)
	switch raw[len(raw)-1] {
	case 'K':
		multiplier = 1_000
		raw = raw[:len(raw)-1]
	case 'M':
		multiplier = 1_000_000
		raw = raw[:len(raw)-1]
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subscriber count: %w", err)
	}

	return int64(value * float64(multiplier)), nil
}

// videoContent assembles the text body for one feed entry: the title
// plus the media description YouTube ships in the media:group extension
func videoContent(entry *gofeed.Item) string {
	description := entry.Description

	if description == "" {
		if media, ok := entry.Extensions["media"]; ok {
			for _, group := range media["group"] {
				for _, desc := range group.Children["description"] {
					if desc.Value != "" {
						description = desc.Value
						break
					}
				}
			}
		}
	}

	if description == "" {
		return entry.Title
	}
	return entry.Title + "\n\n" + description
}
