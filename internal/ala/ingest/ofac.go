package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/estudiopraxis/console/pkg/models"
)

// OFACAdapter ingests the OFAC Specially Designated Nationals list
// (sdn.csv: ent_num, name, type, program, ..., remarks).
type OFACAdapter struct {
	client *http.Client
	url    string
}

func NewOFACAdapter(client *http.Client, url string) *OFACAdapter {
	return &OFACAdapter{client: client, url: url}
}

func (a *OFACAdapter) ID() models.WatchlistSourceID { return models.SourceOFAC }

func (a *OFACAdapter) Fetch(ctx context.Context) ([]models.WatchlistEntry, error) {
	body, err := fetchBody(ctx, a.client, a.url)
	if err != nil {
		return nil, err
	}
	return parseOFAC(body)
}

func parseOFAC(data []byte) ([]models.WatchlistEntry, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFAC CSV: %w", err)
	}

	var entries []models.WatchlistEntry
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		id := strings.TrimSpace(row[0])
		name := CleanName(row[1])
		if id == "" || name == "" || strings.EqualFold(id, "ent_num") {
			continue
		}
		entry := models.WatchlistEntry{
			ID:        "ofac_" + id,
			SourceID:  models.SourceOFAC,
			FullName:  name,
			MatchName: NormalizeName(name),
			Reference: CleanName(row[3]),
		}
		if len(row) >= 12 {
			aliases := extractAlternateNames(row[11])
			entry.Aliases, entry.MatchAliases = DedupeAliases(aliases)
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("OFAC CSV produced no entries")
	}
	return entries, nil
}
