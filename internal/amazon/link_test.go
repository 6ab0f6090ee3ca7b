package amazon

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func failingClient() *http.Client {
	return &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("no network in tests")
	})}
}

func newTestNormalizer(client *http.Client) *Normalizer {
	if client == nil {
		client = failingClient()
	}
	return NewNormalizer(client, zap.NewNop())
}

func TestNormalizeStripsTrackingAndSetsTag(t *testing.T) {
	n := newTestNormalizer(nil)
	got, err := n.Normalize(context.Background(), "https://www.amazon.com/dp/B0TESTASIN?ref=abc&psc=1&qid=123&sr=8-1", "mytag-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://www.amazon.com/dp/B0TESTASIN?tag=mytag-20"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeRoundTripOnlyOverwritesTag(t *testing.T) {
	n := newTestNormalizer(nil)
	first, err := n.Normalize(context.Background(), "https://www.amazon.com/dp/B0TESTASIN?crid=x&tag=old-20", "new-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := n.Normalize(context.Background(), first, "new-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("re-normalizing changed the URL: %q vs %q", first, second)
	}
}

func TestNormalizeUnwrapsRedirectWrapper(t *testing.T) {
	n := newTestNormalizer(nil)
	wrapped := "https://slickdeals.net/?pno=123&url=https%3A%2F%2Fwww.amazon.com%2Fdp%2FB0TESTASIN%3Fref%3Dx"
	got, err := n.Normalize(context.Background(), wrapped, "t-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://www.amazon.com/dp/B0TESTASIN?tag=t-20"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeResolvesShortLink(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Host {
		case "amzn.to":
			return &http.Response{
				StatusCode: http.StatusMovedPermanently,
				Header:     http.Header{"Location": []string{"https://www.amazon.com/dp/B0TESTASIN?ref=sl"}},
				Body:       http.NoBody,
				Request:    r,
			}, nil
		default:
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
		}
	})}

	n := newTestNormalizer(client)
	got, err := n.Normalize(context.Background(), "https://amzn.to/3xyz", "t-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://www.amazon.com/dp/B0TESTASIN?tag=t-20"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeKeepsURLWhenRedirectFails(t *testing.T) {
	// The HEAD fails, the unresolved host is not Amazon, so the link is
	// rejected rather than the pipeline erroring out.
	n := newTestNormalizer(nil)
	_, err := n.Normalize(context.Background(), "https://amzn.to/unresolvable", "t-20")
	if !errors.Is(err, ErrNotAmazonLink) {
		t.Fatalf("expected ErrNotAmazonLink, got %v", err)
	}
}

func TestNormalizeRejectsOffDomain(t *testing.T) {
	n := newTestNormalizer(nil)
	_, err := n.Normalize(context.Background(), "https://www.walmart.com/ip/12345", "t-20")
	if !errors.Is(err, ErrNotAmazonLink) {
		t.Fatalf("expected ErrNotAmazonLink, got %v", err)
	}
}

func TestIsAmazonHost(t *testing.T) {
	cases := map[string]bool{
		"www.amazon.com":  true,
		"amazon.com":      true,
		"smile.amazon.de": true,
		"a.co":            true,
		"www.a.co":        true,
		"www.walmart.com": false,
		"amazon.evil.com": false,
		"slickdeals.net":  false,
	}
	for host, want := range cases {
		if got := IsAmazonHost(host); got != want {
			t.Errorf("IsAmazonHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestExtractASIN(t *testing.T) {
	cases := map[string]string{
		"https://www.amazon.com/dp/B0TESTASIN?tag=x":              "B0TESTASIN",
		"https://www.amazon.com/gp/product/B0TESTASIN":            "B0TESTASIN",
		"https://www.amazon.com/Some-Product/product/B0TESTAS1N":  "B0TESTAS1N",
		"https://www.amazon.com/exec/obidos/ASIN/B0TESTASIN":      "B0TESTASIN",
		"https://www.amazon.com/s?asin=B0TESTASIN":                "B0TESTASIN",
		"https://www.amazon.com/s?k=mouse":                        "",
	}
	for rawURL, want := range cases {
		if got := ExtractASIN(rawURL); got != want {
			t.Errorf("ExtractASIN(%q) = %q, want %q", rawURL, got, want)
		}
	}
}

func TestSearchLink(t *testing.T) {
	got := SearchLink(" wireless mouse ", "t-20")
	want := "https://www.amazon.com/s?k=wireless+mouse&tag=t-20"
	if got != want {
		t.Fatalf("SearchLink = %q, want %q", got, want)
	}
}
