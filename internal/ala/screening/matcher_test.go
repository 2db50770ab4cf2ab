package screening

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala/ingest"
	"github.com/estudiopraxis/console/internal/ala/liststore"
	"github.com/estudiopraxis/console/pkg/models"
)

func seededStore(t *testing.T, id models.WatchlistSourceID, entries []models.WatchlistEntry) *liststore.Store {
	t.Helper()
	store := liststore.NewStore(48*time.Hour, nil, zap.NewNop().Sugar())
	store.Replace(id, entries, time.Now())
	return store
}

func pepEntry(entryID, fullName string, docs ...string) models.WatchlistEntry {
	return models.WatchlistEntry{
		ID:        entryID,
		SourceID:  models.SourcePEPUY,
		FullName:  fullName,
		MatchName: ingest.NormalizeName(fullName),
		Documents: docs,
	}
}

func TestMatchExactNameIgnoringAccentsAndCase(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "José Pérez García"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{FullName: "JOSE PEREZ GARCIA"}, models.SourcePEPUY)

	require.True(t, res.Checked)
	require.Equal(t, 1, res.HitCount)
	assert.Equal(t, "José Pérez García", res.BestMatch)
	assert.Equal(t, 1.0, res.Score)
}

func TestMatchTokenReorder(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "Jane Pep Doe"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{FullName: "Doe Jane Pep"}, models.SourcePEPUY)

	require.True(t, res.Checked)
	require.Equal(t, 1, res.HitCount)
	assert.GreaterOrEqual(t, res.Score, 0.85)
	assert.Less(t, res.Score, 1.0)
}

func TestMatchInitialedMiddleName(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "Jane P. Doe"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{FullName: "Jane PEP Doe"}, models.SourcePEPUY)

	require.Equal(t, 1, res.HitCount)
	assert.Equal(t, "Jane P. Doe", res.BestMatch)
	assert.GreaterOrEqual(t, res.Score, 0.85)
}

func TestMatchUnrelatedNameBelowThreshold(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "Jane Pep Doe"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{FullName: "Roberto Fernández"}, models.SourcePEPUY)

	require.True(t, res.Checked)
	assert.Equal(t, 0, res.HitCount)
	assert.Empty(t, res.BestMatch)
}

func TestMatchDocumentNumberIsAuthoritative(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "Jane Pep Doe", "12345678"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	// The formatted cédula normalizes to the stored document; the name
	// similarity is irrelevant.
	res := m.Match(context.Background(), models.Subject{
		FullName:       "Nombre Completamente Distinto",
		DocumentNumber: "1.234.567-8",
	}, models.SourcePEPUY)

	require.Equal(t, 1, res.HitCount)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "Jane Pep Doe", res.BestMatch)
}

func TestMatchAliasIsConsidered(t *testing.T) {
	entry := pepEntry("pep_uy_1", "Jane Pep Doe")
	entry.Aliases = []string{"Juana Pep Doe"}
	entry.MatchAliases = []string{ingest.NormalizeName("Juana Pep Doe")}
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{entry})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{FullName: "Juana Pep Doe"}, models.SourcePEPUY)

	require.Equal(t, 1, res.HitCount)
	assert.Equal(t, 1.0, res.Score)
}

func TestMatchLegalEntityUsesEntityName(t *testing.T) {
	store := seededStore(t, models.SourceEU, []models.WatchlistEntry{{
		ID:        "eu_1",
		SourceID:  models.SourceEU,
		FullName:  "Acme Holdings S.A.",
		MatchName: ingest.NormalizeName("Acme Holdings S.A."),
	}})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{
		FullName:        "María Apoderada",
		IsLegalEntity:   true,
		LegalEntityName: "ACME HOLDINGS SA",
	}, models.SourceEU)

	require.Equal(t, 1, res.HitCount)
	assert.Equal(t, "Acme Holdings S.A.", res.BestMatch)
}

func TestMatchMissingSnapshotIsUnchecked(t *testing.T) {
	store := liststore.NewStore(48*time.Hour, nil, zap.NewNop().Sugar())
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	res := m.Match(context.Background(), models.Subject{FullName: "Cualquier Persona"}, models.SourceOFAC)

	assert.False(t, res.Checked)
	assert.Equal(t, 0, res.HitCount)
}

func TestMatchCancelledContextStopsScan(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "Jane Pep Doe"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := m.Match(ctx, models.Subject{FullName: "Jane Pep Doe"}, models.SourcePEPUY)
	assert.False(t, res.Checked)
	assert.Equal(t, 0, res.HitCount)
}

func TestMatchDeterministicTieBreak(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_2", "Zulema Test", "999"),
		pepEntry("pep_uy_1", "Alicia Test", "999"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	// Both entries hit with score 1.0 on the document; the best match
	// must be stable across runs.
	for i := 0; i < 5; i++ {
		res := m.Match(context.Background(), models.Subject{
			FullName:       "Otra Persona",
			DocumentNumber: "999",
		}, models.SourcePEPUY)
		require.Equal(t, 2, res.HitCount)
		assert.Equal(t, "Alicia Test", res.BestMatch)
	}
}

func TestMatchAllReturnsCanonicalOrder(t *testing.T) {
	store := seededStore(t, models.SourcePEPUY, []models.WatchlistEntry{
		pepEntry("pep_uy_1", "Jane Pep Doe"),
	})
	m := NewMatcher(store, 0.85, zap.NewNop().Sugar())

	results := m.MatchAll(context.Background(), models.Subject{FullName: "Jane Pep Doe"})

	require.Len(t, results, 4)
	for i, id := range models.AllSources() {
		assert.Equal(t, id, results[i].SourceID)
	}
	assert.True(t, results[0].Checked)
	assert.False(t, results[1].Checked)
}

func TestNameScoreBounds(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"jane doe", "jane doe"},
		{"jane doe", "john smith"},
		{"a", "completely different name"},
		{"", "jane"},
	}
	for _, tc := range cases {
		s := nameScore(tc.a, tc.b)
		if s < 0 || s > 1 {
			t.Errorf("nameScore(%q, %q) = %f, out of [0,1]", tc.a, tc.b, s)
		}
	}
}
