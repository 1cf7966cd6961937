package models

import (
	"database/sql"
	"time"
)

// Model for the feed_sources table
// A FeedSource with ID <= 0 has never been persisted; the store inserts
// such a record instead of updating it.
type FeedSource struct {
	ID          int64    `db:"id"`
	URI         string   `db:"uri"`
	Name        string   `db:"name"`
	Link        string   `db:"link"`
	Description string   `db:"description"`
	Language    string   `db:"language"`
	FeedType    FeedType `db:"feed_type"`

	// ImageURI is the upstream-declared artwork location; ImageCache holds the
	// resolved bytes once the direct location failed or was never declared
	ImageURI   string `db:"image_uri"`
	ImageCache []byte `db:"image_cache"`

	// FolderID is NULL for unsorted sources
	FolderID sql.NullInt64 `db:"folder_id"`

	LastUpdated time.Time `db:"last_updated"`
	// LastUpdatedString keeps the source-provided raw date verbatim for display
	LastUpdatedString string `db:"last_updated_string"`
}

// Persisted reports whether the source has been assigned a storage identity
func (s *FeedSource) Persisted() bool {
	return s.ID > 0
}
