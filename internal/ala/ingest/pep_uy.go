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

// PEPUYAdapter ingests the national register of politically exposed
// persons, published as CSV on the open-data catalog.
type PEPUYAdapter struct {
	client *http.Client
	url    string
}

func NewPEPUYAdapter(client *http.Client, url string) *PEPUYAdapter {
	return &PEPUYAdapter{client: client, url: url}
}

func (a *PEPUYAdapter) ID() models.WatchlistSourceID { return models.SourcePEPUY }

func (a *PEPUYAdapter) Fetch(ctx context.Context) ([]models.WatchlistEntry, error) {
	body, err := fetchBody(ctx, a.client, a.url)
	if err != nil {
		return nil, err
	}
	return parsePEPUY(body)
}

func parsePEPUY(data []byte) ([]models.WatchlistEntry, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	// The catalog has published both comma and semicolon variants.
	if header, _, ok := bytes.Cut(data, []byte("\n")); ok && bytes.Contains(header, []byte(";")) {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse PEP CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("PEP CSV has no data rows")
	}

	cols := columnIndex(rows[0])
	nameIdx, ok := cols["nombre"]
	if !ok {
		if nameIdx, ok = cols["nombre_completo"]; !ok {
			return nil, fmt.Errorf("PEP CSV missing name column")
		}
	}
	docIdx, hasDoc := cols["documento"]
	cargoIdx, hasCargo := cols["cargo"]

	entries := make([]models.WatchlistEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if nameIdx >= len(row) {
			continue
		}
		name := CleanName(row[nameIdx])
		if name == "" {
			continue
		}
		entry := models.WatchlistEntry{
			ID:        fmt.Sprintf("pep_uy_%d", i+1),
			SourceID:  models.SourcePEPUY,
			FullName:  name,
			MatchName: NormalizeName(name),
		}
		if hasDoc && docIdx < len(row) {
			if doc := NormalizeDocument(row[docIdx]); doc != "" {
				entry.Documents = []string{doc}
			}
		}
		if hasCargo && cargoIdx < len(row) {
			entry.Reference = CleanName(row[cargoIdx])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}
