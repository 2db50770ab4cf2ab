// Package ingest fetches the four external watchlist sources and
// normalizes their heterogeneous record shapes into the common
// WatchlistEntry schema held by the list store.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala/liststore"
	"github.com/estudiopraxis/console/pkg/models"
)

// Manager refreshes watchlist sources. A failing source is isolated:
// its prior snapshot is preserved and its state marked error, while the
// other sources refresh normally.
type Manager struct {
	store    *liststore.Store
	adapters map[models.WatchlistSourceID]SourceAdapter
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

// NewManager builds a manager over the given adapters. timeout bounds
// each individual source fetch.
func NewManager(store *liststore.Store, adapters []SourceAdapter, timeout time.Duration, logger *zap.SugaredLogger) *Manager {
	byID := make(map[models.WatchlistSourceID]SourceAdapter, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
	}
	return &Manager{
		store:    store,
		adapters: byID,
		timeout:  timeout,
		logger:   logger,
	}
}

// DefaultHTTPClient is the client used for source fetches when the
// caller does not supply one.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Refresh fetches and normalizes one source, replacing its snapshot on
// success. On failure the prior snapshot is kept and the source is
// marked error.
func (m *Manager) Refresh(ctx context.Context, id models.WatchlistSourceID) (models.WatchlistSource, error) {
	adapter, ok := m.adapters[id]
	if !ok {
		return models.WatchlistSource{}, fmt.Errorf("unknown watchlist source %q", id)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	entries, err := adapter.Fetch(fetchCtx)
	if err != nil {
		m.store.MarkError(id, time.Now(), err)
		recordRefresh(id, "error")
		m.logger.Warnw("watchlist refresh failed",
			"source", id, "error", err, "elapsed", time.Since(start))
		return m.metadataFor(id), err
	}

	m.store.Replace(id, entries, time.Now())
	recordRefresh(id, "ok")
	m.logger.Infow("watchlist refreshed",
		"source", id, "entries", len(entries), "elapsed", time.Since(start))
	return m.metadataFor(id), nil
}

// RefreshAll refreshes every source concurrently. Each source gets its
// own timeout; one failing source never blocks or fails the others.
func (m *Manager) RefreshAll(ctx context.Context) []models.WatchlistSource {
	var wg sync.WaitGroup
	for id := range m.adapters {
		wg.Add(1)
		go func(id models.WatchlistSourceID) {
			defer wg.Done()
			// Errors are already recorded on the store per source.
			_, _ = m.Refresh(ctx, id)
		}(id)
	}
	wg.Wait()
	return m.store.Metadata()
}

// Metadata returns the current snapshot state without fetching.
func (m *Manager) Metadata() []models.WatchlistSource {
	return m.store.Metadata()
}

func (m *Manager) metadataFor(id models.WatchlistSourceID) models.WatchlistSource {
	for _, ws := range m.store.Metadata() {
		if ws.ID == id {
			return ws
		}
	}
	return models.WatchlistSource{ID: id, Status: models.SourceStatusError}
}
