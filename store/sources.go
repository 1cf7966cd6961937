package store

import (
	"context"
	"database/sql"
	"errors"
	"net/url"

	"github.com/feedhaven/feedhaven/models"
)

// GetFeedSources returns all subscribed feed sources
func (s *Store) GetFeedSources(ctx context.Context) []models.FeedSource {
	if !s.IsInitialized() {
		return nil
	}

	sources := []models.FeedSource{}
	err := s.db.SelectContext(ctx, &sources, "SELECT * FROM feed_sources")
	if err != nil {
		s.fail("get feed sources", err)
		return nil
	}
	return sources
}

// GetUnsortedFeedSources returns the sources that do not belong to a folder
func (s *Store) GetUnsortedFeedSources(ctx context.Context) []models.FeedSource {
	if !s.IsInitialized() {
		return nil
	}

	sources := []models.FeedSource{}
	err := s.db.SelectContext(ctx, &sources, "SELECT * FROM feed_sources WHERE folder_id IS NULL")
	if err != nil {
		s.fail("get unsorted feed sources", err)
		return nil
	}
	return sources
}

// GetFeedSourceByURI returns the source subscribed at the given absolute URI,
// or nil if the URI is not absolute or no source matches
func (s *Store) GetFeedSourceByURI(ctx context.Context, uri string) *models.FeedSource {
	if !s.IsInitialized() {
		return nil
	}

	parsed, err := url.Parse(uri)
	if err != nil || !parsed.IsAbs() {
		return nil
	}

	source := &models.FeedSource{}
	err = s.db.GetContext(ctx, source, "SELECT * FROM feed_sources WHERE uri = ? LIMIT 1", uri)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.fail("get feed source by uri", err)
		}
		return nil
	}
	return source
}

// GetFeedSourceByID returns the source with the given identity, or nil
func (s *Store) GetFeedSourceByID(ctx context.Context, id int64) *models.FeedSource {
	if !s.IsInitialized() {
		return nil
	}

	source := &models.FeedSource{}
	err := s.db.GetContext(ctx, source, "SELECT * FROM feed_sources WHERE id = ? LIMIT 1", id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.fail("get feed source by id", err)
		}
		return nil
	}
	return source
}

// UpsertFeedSource writes a source, inserting when it has no identity yet and
// updating otherwise. When entries are supplied, each entry is stamped with
// the (now-known) source id and handed to UpsertFeedEntries. The returned row
// count covers the source write plus the entry writes; on failure it is the
// best-effort count of what was committed before the error.
func (s *Store) UpsertFeedSource(ctx context.Context, source *models.FeedSource, entries []*models.FeedEntry) int {
	if !s.IsInitialized() {
		return 0
	}

	rows := 0
	if !source.Persisted() {
		res, err := s.db.ExecContext(ctx, `INSERT INTO feed_sources
			(uri, name, link, description, language, feed_type, image_uri, image_cache, folder_id, last_updated, last_updated_string)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			source.URI, source.Name, source.Link, source.Description, source.Language,
			source.FeedType, source.ImageURI, source.ImageCache, source.FolderID,
			source.LastUpdated, source.LastUpdatedString)
		if err != nil {
			s.fail("insert feed source", err)
			return rows
		}
		source.ID, err = res.LastInsertId()
		if err != nil {
			s.fail("insert feed source", err)
			return rows
		}
		rows = 1
	} else {
		res, err := s.db.ExecContext(ctx, `UPDATE feed_sources SET
			uri = ?, name = ?, link = ?, description = ?, language = ?, feed_type = ?,
			image_uri = ?, image_cache = ?, folder_id = ?, last_updated = ?, last_updated_string = ?
			WHERE id = ?`,
			source.URI, source.Name, source.Link, source.Description, source.Language,
			source.FeedType, source.ImageURI, source.ImageCache, source.FolderID,
			source.LastUpdated, source.LastUpdatedString, source.ID)
		if err != nil {
			s.fail("update feed source", err)
			return rows
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			rows = 1
		}
	}

	if entries != nil {
		// The parent id is known by now; stamp it on every entry
		for _, entry := range entries {
			entry.SourceID = source.ID
		}
		rows += s.UpsertFeedEntries(ctx, entries)
	}

	s.notifySourceUpdated(source)
	return rows
}

// RemoveFeedSource deletes a source and all of its entries. Reports whether
// the source row was removed.
func (s *Store) RemoveFeedSource(ctx context.Context, source *models.FeedSource) bool {
	if !s.IsInitialized() {
		return false
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM feed_entries WHERE source_id = ?", source.ID); err != nil {
		s.fail("remove feed entries for source", err)
		return false
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM feed_sources WHERE id = ?", source.ID)
	if err != nil {
		s.fail("remove feed source", err)
		return false
	}

	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false
	}
	s.notifySourceRemoved(source)
	return true
}
