package models

import "time"

// Model for the feed_entries table
// SourceID must reference an already-persisted FeedSource before the entry
// can be written.
type FeedEntry struct {
	ID       int64 `db:"id"`
	SourceID int64 `db:"source_id"`

	// ExternalID is the source format's own item identifier (RSS guid,
	// JSON Feed id), used to match entries across re-fetches
	ExternalID string `db:"external_id"`

	Title       string    `db:"title"`
	Link        string    `db:"link"`
	Description string    `db:"description"`
	Content     string    `db:"content"`
	Author      string    `db:"author"`
	PublishedAt time.Time `db:"published_at"`
	ImageURL    string    `db:"image_url"`
}
