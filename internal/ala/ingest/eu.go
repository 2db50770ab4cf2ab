package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/estudiopraxis/console/pkg/models"
)

// EUAdapter ingests the EU consolidated financial sanctions list (JSON
// export).
type EUAdapter struct {
	client *http.Client
	url    string
}

func NewEUAdapter(client *http.Client, url string) *EUAdapter {
	return &EUAdapter{client: client, url: url}
}

func (a *EUAdapter) ID() models.WatchlistSourceID { return models.SourceEU }

type euExport struct {
	Export struct {
		SanctionEntity []euEntity `json:"sanctionEntity"`
	} `json:"export"`
}

type euEntity struct {
	LogicalID int    `json:"logicalId"`
	UnitType  string `json:"unitType"`
	Programme string `json:"programme"`
	NameAlias []struct {
		WholeName  string `json:"wholeName"`
		FirstName  string `json:"firstName"`
		MiddleName string `json:"middleName"`
		LastName   string `json:"lastName"`
	} `json:"nameAlias"`
}

func (a *EUAdapter) Fetch(ctx context.Context) ([]models.WatchlistEntry, error) {
	body, err := fetchBody(ctx, a.client, a.url)
	if err != nil {
		return nil, err
	}
	return parseEU(body)
}

func parseEU(data []byte) ([]models.WatchlistEntry, error) {
	var export euExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse EU JSON: %w", err)
	}

	var entries []models.WatchlistEntry
	for _, ent := range export.Export.SanctionEntity {
		var names []string
		for _, alias := range ent.NameAlias {
			name := CleanName(alias.WholeName)
			if name == "" {
				name = CleanName(alias.FirstName + " " + alias.MiddleName + " " + alias.LastName)
			}
			if name != "" {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		entry := models.WatchlistEntry{
			ID:        fmt.Sprintf("eu_%d", ent.LogicalID),
			SourceID:  models.SourceEU,
			FullName:  names[0],
			MatchName: NormalizeName(names[0]),
			Reference: ent.Programme,
		}
		if len(names) > 1 {
			entry.Aliases, entry.MatchAliases = DedupeAliases(names[1:])
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("EU JSON produced no entries")
	}
	return entries, nil
}
