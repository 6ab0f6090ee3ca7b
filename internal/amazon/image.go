package amazon

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/cache"
	"github.com/user/dealbot-service/internal/domain"
	"github.com/user/dealbot-service/internal/monitoring"
)

// Selectors for the main product image on an Amazon product page, in
// priority order. Best-effort heuristics, not a contract.
var productImageSelectors = []string{
	"#landingImage",
	"#imgBlkFront",
	".a-dynamic-image",
	`[data-a-image-name="landingImage"]`,
	"#main-image-container img",
}

var metaImageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[property="product:image"]`,
}

// Filename fragments that mark an image as decoration rather than a
// product shot.
var skipImagePatterns = []string{
	"icon", "avatar", "logo", "spinner", "loading", "placeholder",
	"blank", "spacer", "pixel.gif", "facebook", "twitter", "social",
	"badge",
}

// ImageResolver fetches and caches best-effort product image URLs by
// ASIN. It never returns an error: any failure yields the placeholder.
type ImageResolver struct {
	client  *http.Client
	cache   *cache.Images
	metrics *monitoring.Metrics
	logger  *zap.Logger

	productBase string // overridable in tests
}

// NewImageResolver creates an ImageResolver backed by the shared image
// cache. The client's timeout bounds each product-page fetch.
func NewImageResolver(client *http.Client, images *cache.Images, m *monitoring.Metrics, logger *zap.Logger) *ImageResolver {
	return &ImageResolver{
		client:      client,
		cache:       images,
		metrics:     m,
		logger:      logger,
		productBase: "https://www.amazon.com/dp/",
	}
}

// ResolveImage returns a product image URL for the ASIN, or the
// placeholder sentinel. Results are cached write-through so repeated
// queries for the same product skip the page fetch.
func (r *ImageResolver) ResolveImage(ctx context.Context, asin string) string {
	if asin == "" {
		return domain.PlaceholderImage
	}
	if cached, ok := r.cache.Get(asin); ok {
		r.metrics.IncCache("image", "hit")
		return cached
	}
	r.metrics.IncCache("image", "miss")

	img := r.scrapeProductImage(ctx, asin)
	if img == "" {
		return domain.PlaceholderImage
	}
	r.cache.Set(asin, img)
	return img
}

func (r *ImageResolver) scrapeProductImage(ctx context.Context, asin string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.productBase+asin, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.metrics.IncFetchError("product_page")
		r.logger.Debug("product page fetch failed", zap.String("asin", asin), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	for _, selector := range productImageSelectors {
		if src := ImgSrc(doc.Find(selector).First()); IsProductImage(src) {
			return src
		}
	}
	if src := FindMetaImage(doc); IsProductImage(src) {
		return src
	}
	if src := FindStructuredDataImage(doc); IsProductImage(src) {
		return src
	}
	return ""
}

// UserAgent identifies the bot on outbound page fetches.
const UserAgent = "DalyaDealBot/1.0 (+https://example.com)"

// ImgSrc returns the src or lazy-loading data-src of an img selection.
func ImgSrc(sel *goquery.Selection) string {
	if src, ok := sel.Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := sel.Attr("data-src"); ok {
		return src
	}
	return ""
}

// FindMetaImage checks open-graph and related meta tags for an image.
func FindMetaImage(doc *goquery.Document) string {
	for _, selector := range metaImageSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}

// FindStructuredDataImage digs an image URL out of JSON-LD blocks. The
// image field may be a string, a list, or an object with a url key;
// malformed blocks are skipped.
func FindStructuredDataImage(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data struct {
			Image any `json:"image"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		if img := structuredImageValue(data.Image); img != "" {
			found = img
			return false
		}
		return true
	})
	return found
}

func structuredImageValue(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case []any:
		if len(img) > 0 {
			return structuredImageValue(img[0])
		}
	case map[string]any:
		if u, ok := img["url"].(string); ok {
			return u
		}
	}
	return ""
}

// IsProductImage rejects empty values, data URIs and obvious
// non-product images (icons, logos, social badges) by filename keyword.
func IsProductImage(url string) bool {
	if url == "" || strings.HasPrefix(url, "data:") {
		return false
	}
	lower := strings.ToLower(url)
	for _, pattern := range skipImagePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}
