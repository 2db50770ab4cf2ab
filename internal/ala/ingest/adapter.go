package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/estudiopraxis/console/pkg/models"
)

const userAgent = "PraxisConsole-ALA/1.0"

// SourceAdapter fetches one external watchlist and normalizes its
// records into the common WatchlistEntry shape. The matcher never sees
// a source-specific format.
type SourceAdapter interface {
	ID() models.WatchlistSourceID
	Fetch(ctx context.Context) ([]models.WatchlistEntry, error)
}

func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

var akaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)a\.k\.a\.?\s+'?([^;,.'\n]+)'?`),
	regexp.MustCompile(`(?i)also\s+known\s+as\s+([^;,.\n]+)`),
	regexp.MustCompile(`(?i)f\.k\.a\.?\s+'?([^;,.'\n]+)'?`),
	regexp.MustCompile(`(?i)alias\s+([^;,.\n]+)`),
}

// extractAlternateNames pulls a.k.a. style aliases out of free-text
// remarks, as OFAC and UN embed them there.
func extractAlternateNames(remarks string) []string {
	var names []string
	for _, pattern := range akaPatterns {
		for _, match := range pattern.FindAllStringSubmatch(remarks, -1) {
			if len(match) > 1 {
				if name := CleanName(match[1]); name != "" {
					names = append(names, name)
				}
			}
		}
	}
	return names
}
