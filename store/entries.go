package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/feedhaven/feedhaven/models"
)

// GetFeedEntries returns all entries belonging to the given source
func (s *Store) GetFeedEntries(ctx context.Context, sourceID int64) []models.FeedEntry {
	if !s.IsInitialized() {
		return nil
	}

	entries := []models.FeedEntry{}
	err := s.db.SelectContext(ctx, &entries, "SELECT * FROM feed_entries WHERE source_id = ?", sourceID)
	if err != nil {
		s.fail("get feed entries", err)
		return nil
	}
	return entries
}

// UpsertFeedEntries writes a batch of entries, inserting the ones without an
// identity and updating the rest. The inserts and updates run concurrently.
// If any entry is missing a positive parent source id the whole batch is
// rejected before a single row is touched. Returns the number of writes that
// affected at least one row.
func (s *Store) UpsertFeedEntries(ctx context.Context, entries []*models.FeedEntry) int {
	if !s.IsInitialized() {
		return 0
	}

	// Precondition runs before any write, so the batch is all-or-nothing
	// with respect to the parent requirement
	for _, entry := range entries {
		if entry.SourceID <= 0 {
			s.fail("upsert feed entries", ErrMissingParent)
			return 0
		}
	}

	var rows atomic.Int64
	var wg sync.WaitGroup
	// Each goroutine writes its own slot, so no synchronization is needed here
	written := make([]bool, len(entries))
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry *models.FeedEntry) {
			defer wg.Done()
			ok := false
			if entry.ID <= 0 {
				ok = s.insertFeedEntry(ctx, entry)
			} else {
				ok = s.updateFeedEntry(ctx, entry)
			}
			if ok {
				written[i] = true
				rows.Add(1)
			}
		}(i, entry)
	}
	wg.Wait()

	// Notify only for entries whose write actually landed
	for i, entry := range entries {
		if written[i] {
			s.notifyEntryUpdated(entry)
		}
	}
	return int(rows.Load())
}

// RemoveFeedEntry deletes a single entry. Reports whether a row was removed.
func (s *Store) RemoveFeedEntry(ctx context.Context, entry *models.FeedEntry) bool {
	if !s.IsInitialized() {
		return false
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM feed_entries WHERE id = ?", entry.ID)
	if err != nil {
		s.fail("remove feed entry", err)
		return false
	}

	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false
	}
	s.notifyEntryRemoved(entry)
	return true
}

func (s *Store) insertFeedEntry(ctx context.Context, entry *models.FeedEntry) bool {
	res, err := s.db.ExecContext(ctx, `INSERT INTO feed_entries
		(source_id, external_id, title, link, description, content, author, published_at, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SourceID, entry.ExternalID, entry.Title, entry.Link, entry.Description,
		entry.Content, entry.Author, entry.PublishedAt, entry.ImageURL)
	if err != nil {
		s.fail("insert feed entry", err)
		return false
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		s.fail("insert feed entry", err)
		return false
	}
	return true
}

func (s *Store) updateFeedEntry(ctx context.Context, entry *models.FeedEntry) bool {
	res, err := s.db.ExecContext(ctx, `UPDATE feed_entries SET
		source_id = ?, external_id = ?, title = ?, link = ?, description = ?,
		content = ?, author = ?, published_at = ?, image_url = ?
		WHERE id = ?`,
		entry.SourceID, entry.ExternalID, entry.Title, entry.Link, entry.Description,
		entry.Content, entry.Author, entry.PublishedAt, entry.ImageURL, entry.ID)
	if err != nil {
		s.fail("update feed entry", err)
		return false
	}

	n, err := res.RowsAffected()
	return err == nil && n > 0
}

// entriesByExternalID indexes stored entries by their source-format id, used
// by the ingestion side for lookup-before-insert de-duplication
func entriesByExternalID(entries []models.FeedEntry) map[string]int64 {
	if len(entries) == 0 {
		return nil
	}
	byID := make(map[string]int64, len(entries))
	for _, entry := range entries {
		if entry.ExternalID != "" {
			byID[entry.ExternalID] = entry.ID
		}
	}
	return byID
}

// MatchStoredEntries stamps each incoming entry with the identity of the
// stored entry carrying the same external id, so a re-fetch updates rows
// instead of inserting duplicates.
func (s *Store) MatchStoredEntries(ctx context.Context, sourceID int64, incoming []*models.FeedEntry) {
	if sourceID <= 0 || len(incoming) == 0 {
		return
	}
	byID := entriesByExternalID(s.GetFeedEntries(ctx, sourceID))
	if byID == nil {
		return
	}
	for _, entry := range incoming {
		if entry.ID <= 0 && entry.ExternalID != "" {
			if id, ok := byID[entry.ExternalID]; ok {
				entry.ID = id
			}
		}
	}
}
