// Package screening matches subjects against watchlist snapshots and
// classifies the combined result into a regulatory risk level.
package screening

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala/ingest"
	"github.com/estudiopraxis/console/internal/ala/liststore"
	"github.com/estudiopraxis/console/pkg/models"
)

// MatcherConfig defines the similarity thresholds for name matching.
type MatcherConfig struct {
	// HitThreshold is the minimum blended similarity for a hit.
	HitThreshold float64 `json:"hit_threshold"`
}

// Matcher screens subjects against the list store. Matching is
// name-centric; an exact document-number match is authoritative and
// counts as a hit regardless of name similarity.
type Matcher struct {
	store  *liststore.Store
	config MatcherConfig
	logger *zap.SugaredLogger
}

func NewMatcher(store *liststore.Store, threshold float64, logger *zap.SugaredLogger) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Matcher{
		store:  store,
		config: MatcherConfig{HitThreshold: threshold},
		logger: logger,
	}
}

type hit struct {
	label string
	score float64
}

// Match screens the subject against a single source. A source without a
// usable snapshot yields Checked=false, never an error; a cancelled
// context likewise reports the source as not checked.
func (m *Matcher) Match(ctx context.Context, subject models.Subject, sourceID models.WatchlistSourceID) models.MatchResult {
	result := models.MatchResult{SourceID: sourceID}

	snap, ok := m.store.Snapshot(sourceID)
	if !ok {
		return result
	}
	result.Checked = true

	queryName := ingest.NormalizeName(subject.FullName)
	if subject.IsLegalEntity && subject.LegalEntityName != "" {
		queryName = ingest.NormalizeName(subject.LegalEntityName)
	}
	queryDoc := ingest.NormalizeDocument(subject.DocumentNumber)

	var hits []hit
	for i := range snap.Entries {
		// Large snapshots (OFAC runs into the tens of thousands) should
		// stop scanning when the caller gives up.
		if i%1024 == 0 && ctx.Err() != nil {
			return models.MatchResult{SourceID: sourceID}
		}
		entry := &snap.Entries[i]
		if queryDoc != "" && documentMatches(queryDoc, entry.Documents) {
			hits = append(hits, hit{label: entry.FullName, score: 1.0})
			continue
		}
		score := entrySimilarity(queryName, entry)
		if score >= m.config.HitThreshold {
			hits = append(hits, hit{label: entry.FullName, score: score})
		}
	}

	// Rank score descending; ties broken by label so identical inputs
	// against an identical snapshot always produce the same best match.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].label < hits[j].label
	})

	result.HitCount = len(hits)
	if len(hits) > 0 {
		result.BestMatch = hits[0].label
		result.Score = hits[0].score
	}
	m.logger.Debugw("source screened",
		"source", sourceID, "hits", result.HitCount, "best_score", result.Score)
	return result
}

// MatchAll screens the subject against all four sources in parallel.
func (m *Matcher) MatchAll(ctx context.Context, subject models.Subject) []models.MatchResult {
	sources := models.AllSources()
	results := make([]models.MatchResult, len(sources))

	var wg sync.WaitGroup
	for i, id := range sources {
		wg.Add(1)
		go func(i int, id models.WatchlistSourceID) {
			defer wg.Done()
			results[i] = m.Match(ctx, subject, id)
		}(i, id)
	}
	wg.Wait()
	return results
}

func documentMatches(queryDoc string, docs []string) bool {
	for _, d := range docs {
		if d == queryDoc {
			return true
		}
	}
	return false
}

// entrySimilarity is the best blended score across the entry's
// normalized name and aliases.
func entrySimilarity(queryName string, entry *models.WatchlistEntry) float64 {
	best := nameScore(queryName, entry.MatchName)
	for _, alias := range entry.MatchAliases {
		if s := nameScore(queryName, alias); s > best {
			best = s
		}
	}
	return best
}

// nameScore blends edit-distance, token-sort, token-set and
// abbreviation-aware token similarity. Scores are combined with
// diminishing weights favoring the strongest signal.
func nameScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	scores := []float64{
		levenshteinSimilarity(a, b),
		levenshteinSimilarity(sortTokens(a), sortTokens(b)),
		tokenSetSimilarity(a, b),
		abbrevTokenSimilarity(a, b),
	}
	return weightedAverage(scores)
}

func levenshteinSimilarity(s1, s2 string) float64 {
	distance := levenshtein.ComputeDistance(s1, s2)
	maxLen := math.Max(float64(len(s1)), float64(len(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - (float64(distance) / maxLen)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetSimilarity is the Jaccard similarity of the token sets.
func tokenSetSimilarity(s1, s2 string) float64 {
	tokens1 := strings.Fields(s1)
	tokens2 := strings.Fields(s2)
	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]bool, len(tokens1))
	set2 := make(map[string]bool, len(tokens2))
	for _, t := range tokens1 {
		set1[t] = true
	}
	for _, t := range tokens2 {
		set2[t] = true
	}

	intersection := 0
	for t := range set1 {
		if set2[t] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	return float64(intersection) / float64(union)
}

// abbrevTokenSimilarity aligns tokens pairwise, treating a
// single-letter token as matching any token it abbreviates ("p" ~
// "pep"). Lists frequently record middle names as initials.
func abbrevTokenSimilarity(s1, s2 string) float64 {
	t1 := strings.Fields(s1)
	t2 := strings.Fields(s2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}
	if len(t1) > len(t2) {
		t1, t2 = t2, t1
	}

	used := make([]bool, len(t2))
	matched := 0
	for _, a := range t1 {
		for j, b := range t2 {
			if used[j] {
				continue
			}
			if a == b || isInitialOf(a, b) || isInitialOf(b, a) {
				used[j] = true
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(t2))
}

func isInitialOf(short, full string) bool {
	return len(short) == 1 && strings.HasPrefix(full, short)
}

// weightedAverage weights higher scores more, with diminishing weights.
func weightedAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	weightSum := 0.0
	weightedSum := 0.0
	for i, score := range scores {
		weight := 1.0 / (float64(i) + 1.0)
		weightedSum += score * weight
		weightSum += weight
	}
	return weightedSum / weightSum
}
