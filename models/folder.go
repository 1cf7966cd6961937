package models

// Model for the folders table
// Simple grouping entity; no nesting.
type Folder struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}
