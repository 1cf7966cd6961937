package store

import "context"

// TableResult is the outcome of creating or migrating a single table
type TableResult int

const (
	// TableError means the create/migrate statement failed
	TableError TableResult = iota
	// TableCreated means the table did not exist and was created
	TableCreated
	// TableMigrated means the table already existed and its schema was verified
	TableMigrated
)

// This is as bad as it seems, but it looked weird to use some complex tool for
// something as simple as creating a few tables for this small schema.
var tables = []struct {
	name string
	stmt string
}{
	{
		name: "folders",
		stmt: `
CREATE TABLE IF NOT EXISTS folders (
	id integer primary key autoincrement,
	name text not null default ''
);
`,
	},
	{
		name: "feed_sources",
		stmt: `
CREATE TABLE IF NOT EXISTS feed_sources (
	id integer primary key autoincrement,
	uri text not null,
	name text not null default '',
	link text not null default '',
	description text not null default '',
	language text not null default '',
	feed_type integer not null default 0,
	image_uri text not null default '',
	image_cache blob,
	folder_id integer references folders (id),
	last_updated timestamp,
	last_updated_string text not null default ''
);
CREATE INDEX IF NOT EXISTS feed_sources_uri ON feed_sources (uri);
`,
	},
	{
		name: "feed_entries",
		stmt: `
CREATE TABLE IF NOT EXISTS feed_entries (
	id integer primary key autoincrement,
	source_id integer not null references feed_sources (id),
	external_id text not null default '',
	title text not null default '',
	link text not null default '',
	description text not null default '',
	content text not null default '',
	author text not null default '',
	published_at timestamp,
	image_url text not null default ''
);
CREATE INDEX IF NOT EXISTS feed_entries_source_id ON feed_entries (source_id);
CREATE INDEX IF NOT EXISTS feed_entries_external_id ON feed_entries (source_id, external_id);
`,
	},
	{
		name: "app_settings",
		stmt: `
CREATE TABLE IF NOT EXISTS app_settings (
	id integer primary key autoincrement,
	last_updated timestamp,
	theme integer not null default 0,
	language integer not null default 0
);
`,
	},
}

// Initialize creates or verifies all tables and opens the gate when every
// table ended in a created or migrated state. Safe to call on an
// already-consistent schema.
func (s *Store) Initialize(ctx context.Context) bool {
	ok := true
	for _, t := range tables {
		if s.createTable(ctx, t.name, t.stmt) == TableError {
			ok = false
		}
	}

	s.mu.Lock()
	s.initialized = ok
	s.mu.Unlock()
	return ok
}

// DropAll drops all tables and resets the store to the uninitialized state
func (s *Store) DropAll(ctx context.Context) {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()

	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.name); err != nil {
			s.fail("drop table "+t.name, err)
		}
	}
}

func (s *Store) createTable(ctx context.Context, name, stmt string) TableResult {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		s.fail("inspect table "+name, err)
		return TableError
	}

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		s.fail("create table "+name, err)
		return TableError
	}

	if count > 0 {
		return TableMigrated
	}
	return TableCreated
}
