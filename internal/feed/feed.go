package feed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/domain"
)

const defaultSearchBase = "https://slickdeals.net/newsearch.php"

// Client queries the Slickdeals deal search RSS feed, restricted to the
// Amazon store. Availability and entry count are not guaranteed; callers
// treat a fetch failure as zero entries.
type Client struct {
	parser     *gofeed.Parser
	logger     *zap.Logger
	searchBase string // overridable in tests
}

// NewClient creates a feed client.
func NewClient(logger *zap.Logger) *Client {
	return &Client{
		parser:     gofeed.NewParser(),
		logger:     logger,
		searchBase: defaultSearchBase,
	}
}

// Search fetches deal listings for the keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]domain.FeedEntry, error) {
	feedURL := c.searchURL(keyword)

	parsed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse deals feed for %q: %w", keyword, err)
	}

	entries := make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		pub := time.Now()
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		}
		entries = append(entries, domain.FeedEntry{
			Title:     item.Title,
			Link:      item.Link,
			Published: pub,
		})
	}

	c.logger.Debug("feed entries fetched", zap.String("keyword", keyword), zap.Int("count", len(entries)))
	return entries, nil
}

func (c *Client) searchURL(keyword string) string {
	q := url.Values{}
	q.Set("src", "SearchBarV2")
	q.Set("q", keyword)
	q.Set("searcharea", "deals")
	q.Set("searchin", "first")
	q.Set("store", "amazon.com")
	q.Set("rss", "1")
	return c.searchBase + "?" + q.Encode()
}
