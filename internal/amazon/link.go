package amazon

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrNotAmazonLink is returned when a resolved URL does not belong to
// the Amazon domain. Callers recover by falling back to a search link.
var ErrNotAmazonLink = errors.New("not an amazon link")

// Hosts known to wrap the real destination in a query parameter.
var redirectWrapperHosts = []string{"slickdeals.net", "go.skimresources.com"}

// Tracking parameters stripped from every normalized link.
var trackingParams = []string{
	"ascsubtag", "ref", "ref_", "psc", "crid", "qid", "sr", "th",
	"linkCode", "linkId",
}

// Normalizer resolves redirect wrappers and short links and rewrites
// Amazon product URLs to clean, tagged affiliate links.
type Normalizer struct {
	client *http.Client
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer. The client's timeout bounds
// short-link redirect resolution.
func NewNormalizer(client *http.Client, logger *zap.Logger) *Normalizer {
	return &Normalizer{client: client, logger: logger}
}

// Normalize unwraps redirect wrappers, resolves short-link redirects,
// validates the Amazon domain, strips tracking parameters and sets the
// affiliate tag. Returns ErrNotAmazonLink when the resolved host is not
// Amazon; that failure is recoverable, never fatal to a pipeline run.
func (n *Normalizer) Normalize(ctx context.Context, rawURL, tag string) (string, error) {
	target := extractEmbeddedURL(rawURL)

	// Short links (amzn.to, bit.ly) need a network round-trip. Links
	// already on the Amazon domain skip it.
	if !isAmazonURL(target) {
		target = n.resolveRedirects(ctx, target)
	}

	parsed, err := url.Parse(target)
	if err != nil || !IsAmazonHost(parsed.Hostname()) {
		return "", ErrNotAmazonLink
	}

	q := parsed.Query()
	for _, junk := range trackingParams {
		q.Del(junk)
	}
	q.Set("tag", tag)
	parsed.RawQuery = q.Encode()

	return strings.TrimRight(parsed.String(), "&?"), nil
}

// resolveRedirects follows HTTP redirects with a HEAD request and
// returns the final URL. On any failure the input is kept as-is rather
// than failing the normalization.
func (n *Normalizer) resolveRedirects(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Debug("redirect resolution failed", zap.String("url", rawURL), zap.Error(err))
		return rawURL
	}
	defer resp.Body.Close()
	return resp.Request.URL.String()
}

// extractEmbeddedURL returns the url= or u= parameter value when the
// host is a known redirect wrapper, otherwise the input unchanged.
func extractEmbeddedURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := strings.ToLower(parsed.Hostname())
	wrapped := false
	for _, h := range redirectWrapperHosts {
		if strings.Contains(host, h) {
			wrapped = true
			break
		}
	}
	if !wrapped {
		return rawURL
	}
	q := parsed.Query()
	for _, key := range []string{"url", "u"} {
		if v := q.Get(key); v != "" {
			return v // url.Values already decodes the parameter
		}
	}
	return rawURL
}

// IsAmazonHost reports whether host belongs to the Amazon domain or its
// short-link domain.
func IsAmazonHost(host string) bool {
	host = strings.ToLower(host)
	return strings.Contains(host, ".amazon.") ||
		host == "amazon.com" ||
		host == "a.co" ||
		strings.HasSuffix(host, ".a.co")
}

func isAmazonURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return IsAmazonHost(parsed.Hostname())
}

// SearchLink builds a direct Amazon search URL for the keyword with the
// affiliate tag attached.
func SearchLink(keyword, tag string) string {
	q := url.QueryEscape(strings.TrimSpace(keyword))
	return "https://www.amazon.com/s?k=" + q + "&tag=" + url.QueryEscape(tag)
}

var asinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/ASIN/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)asin=([A-Z0-9]{10})`),
}

// ExtractASIN pulls the product identifier out of an Amazon URL. The
// first matching pattern wins; empty string when none match.
func ExtractASIN(rawURL string) string {
	for _, p := range asinPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}
