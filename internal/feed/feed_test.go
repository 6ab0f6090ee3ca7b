package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Slickdeals Search</title>
    <item>
      <title>50% off Wireless Mouse Deal - $19.99</title>
      <link>https://slickdeals.net/f/111-wireless-mouse</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 MST</pubDate>
    </item>
    <item>
      <title>Mechanical Keyboard Sale</title>
      <link>https://slickdeals.net/f/222-keyboard</link>
    </item>
  </channel>
</rss>`

func TestSearchParsesEntries(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":     r.URL.Query().Get("q"),
			"store": r.URL.Query().Get("store"),
			"rss":   r.URL.Query().Get("rss"),
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())
	c.searchBase = srv.URL

	entries, err := c.Search(context.Background(), "wireless mouse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Link != "https://slickdeals.net/f/111-wireless-mouse" {
		t.Fatalf("unexpected link %q", entries[0].Link)
	}
	if entries[0].Published.IsZero() {
		t.Fatal("expected a publication time")
	}

	if gotQuery["q"] != "wireless mouse" {
		t.Fatalf("query keyword = %q, want %q", gotQuery["q"], "wireless mouse")
	}
	if gotQuery["store"] != "amazon.com" {
		t.Fatalf("store filter = %q, want amazon.com", gotQuery["store"])
	}
	if gotQuery["rss"] != "1" {
		t.Fatalf("rss flag = %q, want 1", gotQuery["rss"])
	}
}

func TestSearchErrorOnBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())
	c.searchBase = srv.URL

	if _, err := c.Search(context.Background(), "mouse"); err == nil {
		t.Fatal("expected an error on an unavailable feed")
	}
}
