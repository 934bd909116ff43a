package search

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// StateReader gives read-only access to mission state. *app.MissionService satisfies it.
type StateReader interface {
	Query(fn func(*domain.MissionState) error) error
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithSyncInterval sets the fallback resync interval (default 60s).
func WithSyncInterval(d time.Duration) IndexerOption {
	return func(idx *Indexer) {
		if d > 0 {
			idx.interval = d
		}
	}
}

// Indexer keeps the Store in step with mission state. It resyncs on Trigger
// and on a fallback ticker.
type Indexer struct {
	store    *Store
	state    StateReader
	logger   *log.Logger
	interval time.Duration
	wake     chan struct{}
}

// NewIndexer creates a new Indexer.
func NewIndexer(store *Store, state StateReader, logger *log.Logger, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:    store,
		state:    state,
		logger:   logger,
		interval: 60 * time.Second,
		wake:     make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(idx)
	}
	return idx
}

// Trigger requests a resync. Non-blocking; repeated triggers coalesce.
func (idx *Indexer) Trigger() {
	select {
	case idx.wake <- struct{}{}:
	default:
	}
}

// Run syncs once, then on every Trigger or tick. Blocks until ctx is cancelled.
func (idx *Indexer) Run(ctx context.Context) {
	start := time.Now()
	indexed, removed := idx.Sync()
	idx.logger.Printf("Search indexer: initial sync done in %s (indexed=%d, removed=%d)", time.Since(start).Round(time.Millisecond), indexed, removed)

	ticker := time.NewTicker(idx.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			idx.logger.Println("Search indexer: stopped")
			return
		case <-idx.wake:
			idx.Sync()
		case <-ticker.C:
			idx.Sync()
		}
	}
}

// Sync indexes changed tasks, messages and documents and removes entries
// whose records no longer exist.
func (idx *Indexer) Sync() (indexed, removed int) {
	var entries []Entry
	if err := idx.state.Query(func(s *domain.MissionState) error {
		entries = Entries(s)
		return nil
	}); err != nil {
		idx.logger.Printf("Search indexer: state query: %v", err)
		return 0, 0
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Key()] = true
		changed, err := idx.store.IndexIfChanged(e)
		if err != nil {
			idx.logger.Printf("Search indexer: index %s: %v", e.Key(), err)
			continue
		}
		if changed {
			indexed++
		}
	}

	keys, err := idx.store.Keys()
	if err != nil {
		idx.logger.Printf("Search indexer: list keys: %v", err)
		return indexed, 0
	}
	for _, k := range keys {
		if seen[k] {
			continue
		}
		if err := idx.store.Remove(k); err != nil {
			idx.logger.Printf("Search indexer: remove %s: %v", k, err)
			continue
		}
		removed++
	}
	return indexed, removed
}

// Entries flattens the searchable records of s.
func Entries(s *domain.MissionState) []Entry {
	out := make([]Entry, 0, len(s.Tasks)+len(s.Messages)+len(s.Documents))
	for _, t := range s.Tasks {
		body := t.Description
		if len(t.Tags) > 0 {
			body += "\n" + strings.Join(t.Tags, " ")
		}
		out = append(out, Entry{Kind: KindTask, RefID: t.ID, TaskID: t.ID, Title: t.Title, Content: body})
	}
	for _, m := range s.Messages {
		out = append(out, Entry{Kind: KindMessage, RefID: m.ID, TaskID: m.TaskID, Title: m.FromAgentID, Content: m.Content})
	}
	for _, d := range s.Documents {
		out = append(out, Entry{Kind: KindDocument, RefID: d.ID, TaskID: d.TaskID, Title: d.Title, Content: d.Content})
	}
	return out
}
