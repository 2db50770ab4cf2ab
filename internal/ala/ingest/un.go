package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/estudiopraxis/console/pkg/models"
)

// UNAdapter ingests the UN Security Council consolidated list (XML).
type UNAdapter struct {
	client *http.Client
	url    string
}

func NewUNAdapter(client *http.Client, url string) *UNAdapter {
	return &UNAdapter{client: client, url: url}
}

func (a *UNAdapter) ID() models.WatchlistSourceID { return models.SourceUN }

type unList struct {
	XMLName     xml.Name       `xml:"CONSOLIDATED_LIST"`
	Individuals []unIndividual `xml:"INDIVIDUALS>INDIVIDUAL"`
	Entities    []unEntity     `xml:"ENTITIES>ENTITY"`
}

type unIndividual struct {
	DataID     string    `xml:"DATAID"`
	FirstName  string    `xml:"FIRST_NAME"`
	SecondName string    `xml:"SECOND_NAME"`
	ThirdName  string    `xml:"THIRD_NAME"`
	FourthName string    `xml:"FOURTH_NAME"`
	ListType   string    `xml:"UN_LIST_TYPE"`
	Reference  string    `xml:"REFERENCE_NUMBER"`
	Aliases    []unAlias `xml:"INDIVIDUAL_ALIAS"`
	Comments   string    `xml:"COMMENTS1"`
}

type unEntity struct {
	DataID    string    `xml:"DATAID"`
	FirstName string    `xml:"FIRST_NAME"`
	ListType  string    `xml:"UN_LIST_TYPE"`
	Reference string    `xml:"REFERENCE_NUMBER"`
	Aliases   []unAlias `xml:"ENTITY_ALIAS"`
	Comments  string    `xml:"COMMENTS1"`
}

type unAlias struct {
	AliasName string `xml:"ALIAS_NAME"`
}

func (a *UNAdapter) Fetch(ctx context.Context) ([]models.WatchlistEntry, error) {
	body, err := fetchBody(ctx, a.client, a.url)
	if err != nil {
		return nil, err
	}
	return parseUN(body)
}

func parseUN(data []byte) ([]models.WatchlistEntry, error) {
	var list unList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse UN XML: %w", err)
	}

	entries := make([]models.WatchlistEntry, 0, len(list.Individuals)+len(list.Entities))
	for _, ind := range list.Individuals {
		name := CleanName(strings.Join([]string{ind.FirstName, ind.SecondName, ind.ThirdName, ind.FourthName}, " "))
		if name == "" {
			continue
		}
		aliases := aliasNames(ind.Aliases)
		aliases = append(aliases, extractAlternateNames(ind.Comments)...)
		entry := models.WatchlistEntry{
			ID:        "un_" + ind.DataID,
			SourceID:  models.SourceUN,
			FullName:  name,
			MatchName: NormalizeName(name),
			Reference: ind.Reference,
		}
		entry.Aliases, entry.MatchAliases = DedupeAliases(aliases)
		entries = append(entries, entry)
	}
	for _, ent := range list.Entities {
		name := CleanName(ent.FirstName)
		if name == "" {
			continue
		}
		entry := models.WatchlistEntry{
			ID:        "un_" + ent.DataID,
			SourceID:  models.SourceUN,
			FullName:  name,
			MatchName: NormalizeName(name),
			Reference: ent.Reference,
		}
		entry.Aliases, entry.MatchAliases = DedupeAliases(aliasNames(ent.Aliases))
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("UN XML produced no entries")
	}
	return entries, nil
}

func aliasNames(aliases []unAlias) []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if name := CleanName(a.AliasName); name != "" {
			out = append(out, name)
		}
	}
	return out
}
