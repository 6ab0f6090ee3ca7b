package rainforest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/domain"
)

const defaultEndpoint = "https://api.rainforestapi.com/request"

// Client queries the Rainforest product API for the top Amazon search
// result. It is an optional fallback: without an API key the lookup is
// skipped entirely.
type Client struct {
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
	endpoint string // overridable in tests
}

// New creates a Client. An empty apiKey produces a client whose lookups
// are no-ops.
func New(apiKey string, client *http.Client, logger *zap.Logger) *Client {
	return &Client{
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
		endpoint: defaultEndpoint,
	}
}

// Enabled reports whether an API credential is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	SearchResults []struct {
		ASIN  string `json:"asin"`
		Title string `json:"title"`
		Image string `json:"image"`
	} `json:"search_results"`
}

// TopProduct returns the most prominent Amazon search result for the
// keyword as a Deal, or nil when the lookup is disabled or empty.
func (c *Client) TopProduct(ctx context.Context, keyword, tag string) (*domain.Deal, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("type", "search")
	params.Set("amazon_domain", "amazon.com")
	params.Set("search_term", keyword)
	params.Set("sort_by", "featured")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rainforest request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rainforest request: unexpected status %d", resp.StatusCode)
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("rainforest response: %w", err)
	}
	if len(data.SearchResults) == 0 {
		return nil, nil
	}

	first := data.SearchResults[0]
	image := first.Image
	if image == "" {
		image = domain.PlaceholderImage
	}

	return &domain.Deal{
		Title: first.Title,
		Link:  fmt.Sprintf("https://www.amazon.com/dp/%s?tag=%s", first.ASIN, url.QueryEscape(tag)),
		Image: image,
	}, nil
}
