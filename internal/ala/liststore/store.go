// Package liststore holds the normalized watchlist snapshots read by the
// identity matcher. Each source refresh builds a complete new snapshot
// which is swapped in atomically, so concurrent screenings never observe
// a partially-replaced list.
package liststore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/estudiopraxis/console/pkg/models"
)

// Snapshot is one immutable version of a source's entry set.
type Snapshot struct {
	SourceID  models.WatchlistSourceID `json:"source_id"`
	Entries   []models.WatchlistEntry  `json:"entries"`
	FetchedAt time.Time                `json:"fetched_at"`
	Version   int64                    `json:"version"`
}

// Backup mirrors snapshots to an external store so a restart recovers
// the last good data for each source.
type Backup interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id models.WatchlistSourceID) (*Snapshot, error)
}

type sourceState struct {
	snap        *Snapshot
	name        string
	lastError   string
	lastAttempt time.Time
}

// Store keeps the current snapshot per source.
type Store struct {
	mu         sync.RWMutex
	sources    map[models.WatchlistSourceID]*sourceState
	staleAfter time.Duration
	backup     Backup
	logger     *zap.SugaredLogger
}

// NewStore creates a store for the canonical four sources.
func NewStore(staleAfter time.Duration, backup Backup, logger *zap.SugaredLogger) *Store {
	names := map[models.WatchlistSourceID]string{
		models.SourcePEPUY: "Registro nacional de PEP (Uruguay)",
		models.SourceUN:    "UN Security Council Consolidated List",
		models.SourceOFAC:  "OFAC Specially Designated Nationals",
		models.SourceEU:    "EU Consolidated Financial Sanctions List",
	}
	sources := make(map[models.WatchlistSourceID]*sourceState, len(names))
	for id, name := range names {
		sources[id] = &sourceState{name: name}
	}
	return &Store{
		sources:    sources,
		staleAfter: staleAfter,
		backup:     backup,
		logger:     logger,
	}
}

// Snapshot returns the current snapshot for a source. ok is false when
// no usable snapshot exists, in which case the matcher reports the
// source as not checked.
func (s *Store) Snapshot(id models.WatchlistSourceID) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, exists := s.sources[id]
	if !exists || st.snap == nil {
		return nil, false
	}
	return st.snap, true
}

// Replace swaps in a new snapshot for the source and clears its error
// state. The entry slice must not be mutated afterwards.
func (s *Store) Replace(id models.WatchlistSourceID, entries []models.WatchlistEntry, fetchedAt time.Time) *Snapshot {
	s.mu.Lock()
	st, exists := s.sources[id]
	if !exists {
		st = &sourceState{name: string(id)}
		s.sources[id] = st
	}
	var version int64 = 1
	if st.snap != nil {
		version = st.snap.Version + 1
	}
	snap := &Snapshot{
		SourceID:  id,
		Entries:   entries,
		FetchedAt: fetchedAt,
		Version:   version,
	}
	st.snap = snap
	st.lastError = ""
	st.lastAttempt = fetchedAt
	s.mu.Unlock()

	if s.backup != nil {
		if err := s.backup.Save(context.Background(), snap); err != nil {
			s.logger.Warnw("snapshot backup failed", "source", id, "error", err)
		}
	}
	return snap
}

// MarkError records a failed refresh attempt. The prior snapshot, if
// any, stays in place (stale but usable).
func (s *Store) MarkError(id models.WatchlistSourceID, attemptedAt time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, exists := s.sources[id]
	if !exists {
		st = &sourceState{name: string(id)}
		s.sources[id] = st
	}
	st.lastError = err.Error()
	st.lastAttempt = attemptedAt
}

// Metadata returns the current state of every source, in canonical order.
func (s *Store) Metadata() []models.WatchlistSource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WatchlistSource, 0, len(s.sources))
	for id, st := range s.sources {
		ws := models.WatchlistSource{
			ID:        id,
			Name:      st.name,
			Status:    models.SourceStatusError,
			LastError: st.lastError,
		}
		if st.snap != nil {
			ws.LastFetched = st.snap.FetchedAt
			ws.RecordCount = len(st.snap.Entries)
			switch {
			case st.lastError != "":
				ws.Status = models.SourceStatusError
			case time.Since(st.snap.FetchedAt) > s.staleAfter:
				ws.Status = models.SourceStatusStale
			default:
				ws.Status = models.SourceStatusOK
			}
		}
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return sourceOrder(out[i].ID) < sourceOrder(out[j].ID) })
	return out
}

// Restore loads backed-up snapshots for sources that have none yet.
func (s *Store) Restore(ctx context.Context) {
	if s.backup == nil {
		return
	}
	for _, id := range models.AllSources() {
		if _, ok := s.Snapshot(id); ok {
			continue
		}
		snap, err := s.backup.Load(ctx, id)
		if err != nil || snap == nil {
			continue
		}
		s.mu.Lock()
		if st, exists := s.sources[id]; exists && st.snap == nil {
			st.snap = snap
			s.logger.Infow("snapshot restored from backup",
				"source", id, "entries", len(snap.Entries), "fetched_at", snap.FetchedAt)
		}
		s.mu.Unlock()
	}
}

func sourceOrder(id models.WatchlistSourceID) int {
	for i, s := range models.AllSources() {
		if s == id {
			return i
		}
	}
	return len(models.AllSources())
}
