package store

import (
	"context"

	"github.com/feedhaven/feedhaven/models"
)

// GetFolders returns all folders
func (s *Store) GetFolders(ctx context.Context) []models.Folder {
	if !s.IsInitialized() {
		return nil
	}

	folders := []models.Folder{}
	err := s.db.SelectContext(ctx, &folders, "SELECT * FROM folders")
	if err != nil {
		s.fail("get folders", err)
		return nil
	}
	return folders
}

// UpsertFolder writes a folder, inserting when it has no identity yet.
// Reports whether a row was written.
func (s *Store) UpsertFolder(ctx context.Context, folder *models.Folder) bool {
	if !s.IsInitialized() {
		return false
	}

	if folder.ID <= 0 {
		res, err := s.db.ExecContext(ctx, "INSERT INTO folders (name) VALUES (?)", folder.Name)
		if err != nil {
			s.fail("insert folder", err)
			return false
		}
		folder.ID, err = res.LastInsertId()
		if err != nil {
			s.fail("insert folder", err)
			return false
		}
	} else {
		res, err := s.db.ExecContext(ctx, "UPDATE folders SET name = ? WHERE id = ?", folder.Name, folder.ID)
		if err != nil {
			s.fail("update folder", err)
			return false
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return false
		}
	}

	s.notifyFolderUpdated(folder)
	return true
}

// RemoveFolder deletes a folder. Sources belonging to it become unsorted;
// they are not deleted.
func (s *Store) RemoveFolder(ctx context.Context, folder *models.Folder) bool {
	if !s.IsInitialized() {
		return false
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE feed_sources SET folder_id = NULL WHERE folder_id = ?", folder.ID); err != nil {
		s.fail("unsort feed sources", err)
		return false
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", folder.ID)
	if err != nil {
		s.fail("remove folder", err)
		return false
	}

	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false
	}
	s.notifyFolderRemoved(folder)
	return true
}
