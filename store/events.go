package store

import (
	"sync"

	"github.com/feedhaven/feedhaven/models"
)

// SourceHandler receives change notifications for feed sources
type SourceHandler func(source *models.FeedSource)

// EntryHandler receives change notifications for feed entries
type EntryHandler func(entry *models.FeedEntry)

// FolderHandler receives change notifications for folders
type FolderHandler func(folder *models.Folder)

// RefreshHandler receives the parameterless refresh-completed signal
type RefreshHandler func()

// subscribers holds the registered observers. Delivery is synchronous, in
// registration order, with no retry; handlers must not block.
type subscribers struct {
	mu             sync.RWMutex
	sourceUpdated  []SourceHandler
	sourceRemoved  []SourceHandler
	entryUpdated   []EntryHandler
	entryRemoved   []EntryHandler
	folderUpdated  []FolderHandler
	folderRemoved  []FolderHandler
	refreshDone    []RefreshHandler
}

// OnSourceUpdated registers a handler for feed source writes
func (s *Store) OnSourceUpdated(h SourceHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.sourceUpdated = append(s.subscribers.sourceUpdated, h)
}

// OnSourceRemoved registers a handler for feed source removals
func (s *Store) OnSourceRemoved(h SourceHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.sourceRemoved = append(s.subscribers.sourceRemoved, h)
}

// OnEntryUpdated registers a handler for feed entry writes
func (s *Store) OnEntryUpdated(h EntryHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.entryUpdated = append(s.subscribers.entryUpdated, h)
}

// OnEntryRemoved registers a handler for feed entry removals
func (s *Store) OnEntryRemoved(h EntryHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.entryRemoved = append(s.subscribers.entryRemoved, h)
}

// OnFolderUpdated registers a handler for folder writes
func (s *Store) OnFolderUpdated(h FolderHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.folderUpdated = append(s.subscribers.folderUpdated, h)
}

// OnFolderRemoved registers a handler for folder removals
func (s *Store) OnFolderRemoved(h FolderHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.folderRemoved = append(s.subscribers.folderRemoved, h)
}

// OnRefreshCompleted registers a handler for the refresh-completed signal
func (s *Store) OnRefreshCompleted(h RefreshHandler) {
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	s.subscribers.refreshDone = append(s.subscribers.refreshDone, h)
}

// NotifyRefreshCompleted broadcasts the refresh-completed signal. The
// ingestion side calls this once a bulk refresh cycle has finished.
func (s *Store) NotifyRefreshCompleted() {
	s.subscribers.mu.RLock()
	handlers := make([]RefreshHandler, len(s.subscribers.refreshDone))
	copy(handlers, s.subscribers.refreshDone)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h()
	}
}

func (s *Store) notifySourceUpdated(source *models.FeedSource) {
	s.subscribers.mu.RLock()
	handlers := make([]SourceHandler, len(s.subscribers.sourceUpdated))
	copy(handlers, s.subscribers.sourceUpdated)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h(source)
	}
}

func (s *Store) notifySourceRemoved(source *models.FeedSource) {
	s.subscribers.mu.RLock()
	handlers := make([]SourceHandler, len(s.subscribers.sourceRemoved))
	copy(handlers, s.subscribers.sourceRemoved)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h(source)
	}
}

func (s *Store) notifyEntryUpdated(entry *models.FeedEntry) {
	s.subscribers.mu.RLock()
	handlers := make([]EntryHandler, len(s.subscribers.entryUpdated))
	copy(handlers, s.subscribers.entryUpdated)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h(entry)
	}
}

func (s *Store) notifyEntryRemoved(entry *models.FeedEntry) {
	s.subscribers.mu.RLock()
	handlers := make([]EntryHandler, len(s.subscribers.entryRemoved))
	copy(handlers, s.subscribers.entryRemoved)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h(entry)
	}
}

func (s *Store) notifyFolderUpdated(folder *models.Folder) {
	s.subscribers.mu.RLock()
	handlers := make([]FolderHandler, len(s.subscribers.folderUpdated))
	copy(handlers, s.subscribers.folderUpdated)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h(folder)
	}
}

func (s *Store) notifyFolderRemoved(folder *models.Folder) {
	s.subscribers.mu.RLock()
	handlers := make([]FolderHandler, len(s.subscribers.folderRemoved))
	copy(handlers, s.subscribers.folderRemoved)
	s.subscribers.mu.RUnlock()
	for _, h := range handlers {
		h(folder)
	}
}
