package enrich

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/amazon"
	"github.com/user/dealbot-service/internal/domain"
	"github.com/user/dealbot-service/internal/monitoring"
	"github.com/user/dealbot-service/internal/scorer"
)

var priceRe = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)

// Words that mark a listing as an actual deal. Entries with no price
// and none of these in the title are not worth showing.
var dealIndicators = []string{
	"deal", "sale", "discount", "off", "save", "clearance", "limited",
	"special", "offer", "bargain", "best", "top", "free", "coupon",
	"promo",
}

// Selectors tried in order when hunting for the Amazon product link on
// an entry page.
var amazonLinkSelectors = []string{
	`a[href*="amazon.com"]`,
	`a[href*="amzn.to"]`,
	`a[data-href*="amazon.com"]`,
	`button[data-url*="amazon.com"]`,
}

// Containers likely to hold the main deal image on an entry page.
var imageContainerSelectors = []string{
	"div.dealContent", "div.dealImage", "div.threadContent",
	"div.cept-post-content", "article", "main",
}

var priorityImageSelectors = []string{
	"img.dealImage",
	`img[class*="product"]`,
	`img[class*="main"]`,
	`img[class*="primary"]`,
	`img[data-src*="amazon"]`,
	`img[src*="amazon"]`,
}

// ImageResolver resolves a product image URL by ASIN.
type ImageResolver interface {
	ResolveImage(ctx context.Context, asin string) string
}

// Enricher turns a raw feed entry into a scored, monetized Deal, or
// rejects it. Rejections are silent: they log at debug level, bump a
// counter and never abort sibling work.
type Enricher struct {
	client     *http.Client
	normalizer *amazon.Normalizer
	images     ImageResolver
	scorer     *scorer.Scorer
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewEnricher creates an Enricher. The client's timeout bounds each
// entry-page fetch.
func NewEnricher(client *http.Client, n *amazon.Normalizer, images ImageResolver, s *scorer.Scorer, m *monitoring.Metrics, logger *zap.Logger) *Enricher {
	return &Enricher{
		client:     client,
		normalizer: n,
		images:     images,
		scorer:     s,
		metrics:    m,
		logger:     logger,
	}
}

// Enrich processes one feed entry and returns the resulting Deal, or
// nil when the entry is rejected.
func (e *Enricher) Enrich(ctx context.Context, entry domain.FeedEntry, keyword, tag string) *domain.Deal {
	base := e.scorer.Score(entry.Title, keyword)
	if !e.scorer.Relevant(base) {
		e.reject(entry, "low_score")
		return nil
	}

	price := ExtractPrice(entry.Title)
	if price == 0 && !HasDealIndicator(entry.Title) {
		e.reject(entry, "not_a_deal")
		return nil
	}

	doc, err := e.fetchEntryPage(ctx, entry.Link)
	if err != nil {
		e.metrics.IncFetchError("entry_page")
		e.reject(entry, "fetch_failed")
		return nil
	}

	href := findAmazonLink(doc)
	if href == "" {
		e.reject(entry, "no_amazon_link")
		return nil
	}

	clean, err := e.normalizer.Normalize(ctx, href, tag)
	if err != nil {
		// Resolved somewhere off-domain; the entry is dropped, the run
		// continues.
		e.reject(entry, "not_amazon")
		return nil
	}

	img := extractEntryPageImage(doc, entry.Link)
	if img == "" {
		img = e.images.ResolveImage(ctx, amazon.ExtractASIN(clean))
	}

	e.metrics.IncDealEmitted()
	return &domain.Deal{
		Title: entry.Title,
		Link:  clean,
		Image: img,
		Score: e.scorer.Boost(base, price > 0, img != domain.PlaceholderImage),
		Price: price,
	}
}

func (e *Enricher) reject(entry domain.FeedEntry, reason string) {
	e.metrics.IncRejection(reason)
	e.logger.Debug("entry rejected", zap.String("title", entry.Title), zap.String("reason", reason))
}

func (e *Enricher) fetchEntryPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", amazon.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return goquery.NewDocumentFromReader(resp.Body)
}

// ExtractPrice scans a title for a $<digits>[.<digits>] amount.
// Returns 0 when absent, meaning "unknown".
func ExtractPrice(title string) float64 {
	m := priceRe.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	price, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return price
}

// HasDealIndicator reports whether the title is textually marked as a
// deal.
func HasDealIndicator(title string) bool {
	lower := strings.ToLower(title)
	for _, word := range dealIndicators {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// findAmazonLink locates an Amazon product link on the entry page:
// direct selectors first, then any anchor or button whose target
// mentions amazon or a known wrapper.
func findAmazonLink(doc *goquery.Document) string {
	for _, selector := range amazonLinkSelectors {
		if href := linkTarget(doc.Find(selector).First()); href != "" {
			return href
		}
	}

	var href string
	doc.Find("a, button").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate := linkTarget(sel)
		lower := strings.ToLower(candidate)
		if candidate != "" && (strings.Contains(lower, "amazon") ||
			strings.Contains(lower, "amzn") ||
			strings.Contains(lower, "skimresources")) {
			href = candidate
			return false
		}
		return true
	})
	return href
}

func linkTarget(sel *goquery.Selection) string {
	for _, attr := range []string{"href", "data-href", "data-url"} {
		if v, ok := sel.Attr(attr); ok && v != "" {
			return v
		}
	}
	return ""
}

// extractEntryPageImage hunts for the main deal image on the entry
// page: priority selectors inside known containers, any plausibly
// sized image, then meta tags and JSON-LD. Relative URLs are resolved
// against the page URL. Empty string when nothing qualifies.
func extractEntryPageImage(doc *goquery.Document, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	for _, containerSel := range imageContainerSelectors {
		container := doc.Find(containerSel).First()
		if container.Length() == 0 {
			continue
		}

		for _, selector := range priorityImageSelectors {
			if src := amazon.ImgSrc(container.Find(selector).First()); amazon.IsProductImage(src) {
				return absoluteURL(base, src)
			}
		}

		var found string
		container.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := amazon.ImgSrc(img)
			if !amazon.IsProductImage(src) {
				return true
			}
			if tooSmall(img) {
				return true
			}
			found = src
			return false
		})
		if found != "" {
			return absoluteURL(base, found)
		}
	}

	if src := amazon.FindMetaImage(doc); amazon.IsProductImage(src) {
		return absoluteURL(base, src)
	}
	if src := amazon.FindStructuredDataImage(doc); amazon.IsProductImage(src) {
		return absoluteURL(base, src)
	}
	return ""
}

// tooSmall rejects images with declared dimensions under 100px. Images
// without size attributes are accepted.
func tooSmall(img *goquery.Selection) bool {
	w, wok := img.Attr("width")
	h, hok := img.Attr("height")
	if !wok || !hok {
		return false
	}
	wv, werr := strconv.Atoi(w)
	hv, herr := strconv.Atoi(h)
	if werr != nil || herr != nil {
		return false
	}
	return wv < 100 || hv < 100
}

// absoluteURL resolves a possibly relative reference against the entry
// page URL.
func absoluteURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
