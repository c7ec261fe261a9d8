package models

import "time"

// ProductRecord holds one marketplace listing as observed at extraction time.
// Records are created by the response extractor and never mutated afterwards;
// the ingestion sink consumes them once.
type ProductRecord struct {
	Title string `json:"title"`
	// Price is the raw display string, e.g. "¥1200", after the
	// ten-thousand textual form has been expanded.
	Price string `json:"price"`
	// PriceCents is the parsed price in cents. -1 marks an unparseable or
	// explicitly anomalous price; it is never a real negative price.
	PriceCents int64  `json:"price_cents"`
	Area       string `json:"area"`
	Seller     string `json:"seller"`
	Link       string `json:"link"`
	ImageURL   string `json:"image_url"`
	// PublishTime is nil when the source field is missing or non-numeric.
	PublishTime *time.Time `json:"publish_time,omitempty"`
}

// StoredProduct is the persisted, deduplicated form of a ProductRecord.
// LinkHash is unique across the store: one row per distinct canonical link.
type StoredProduct struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Price       string     `json:"price"`
	PriceCents  int64      `json:"price_cents"`
	Area        string     `json:"area"`
	Seller      string     `json:"seller"`
	Link        string     `json:"link"`
	LinkHash    string     `json:"link_hash"`
	ImageURL    string     `json:"image_url"`
	PublishTime *time.Time `json:"publish_time,omitempty"`
}
