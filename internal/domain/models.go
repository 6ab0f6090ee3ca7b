package domain

import "time"

// PlaceholderImage is the sentinel returned when no real product image
// could be resolved. It is a small inline "No Image" SVG so the frontend
// never has to special-case a missing image.
const PlaceholderImage = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTYwIiBoZWlnaHQ9IjE2MCIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj48cmVjdCB3aWR0aD0iMTYwIiBoZWlnaHQ9IjE2MCIgZmlsbD0iI2Y1ZjVmNSIvPjx0ZXh0IHg9IjgwIiB5PSI4MCIgZm9udC1mYW1pbHk9IkFyaWFsIiBmb250LXNpemU9IjE0IiBmaWxsPSIjNjY2IiB0ZXh0LWFuY2hvcj0ibWlkZGxlIiBkb21pbmFudC1iYXNlbGluZT0ibWlkZGxlIj5ObyBJbWFnZTwvdGV4dD48L3N2Zz4="

// FeedEntry is a single listing pulled from the deals feed.
type FeedEntry struct {
	Title     string
	Link      string
	Published time.Time
}

// Deal is one enriched, ranked product listing. The Link always points
// at the Amazon domain and carries the affiliate tag.
type Deal struct {
	Title    string  `json:"title"`
	Link     string  `json:"amazon_link"`
	Image    string  `json:"image"`
	Score    float64 `json:"score"`
	Price    float64 `json:"price,omitempty"`
	Category string  `json:"category,omitempty"`
}

// HasImage reports whether the deal carries a real product image rather
// than the placeholder sentinel.
func (d Deal) HasImage() bool {
	return d.Image != "" && d.Image != PlaceholderImage
}

// QueryResult is the payload returned to callers. Deals is never empty:
// the pipeline guarantees at least a search-fallback deal.
type QueryResult struct {
	Deals []Deal `json:"deals"`
}
