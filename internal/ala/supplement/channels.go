package supplement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Channel is one open-source lookup used for enhanced diligence. It
// returns a short analyst-reviewable summary for the query, or an
// empty string when nothing relevant was found.
type Channel interface {
	Name() string
	Lookup(ctx context.Context, query string) (string, error)
}

const noFindings = "Sin resultados relevantes."

func getJSON(ctx context.Context, client *http.Client, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PraxisConsole-ALA/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// WebSearchChannel queries the DuckDuckGo instant-answer API.
type WebSearchChannel struct {
	client  *http.Client
	baseURL string
}

func NewWebSearchChannel(client *http.Client, baseURL string) *WebSearchChannel {
	return &WebSearchChannel{client: client, baseURL: baseURL}
}

func (c *WebSearchChannel) Name() string { return "web" }

func (c *WebSearchChannel) Lookup(ctx context.Context, query string) (string, error) {
	u := fmt.Sprintf("%s?q=%s&format=json&no_html=1", c.baseURL, url.QueryEscape(query))
	var payload struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := getJSON(ctx, c.client, u, &payload); err != nil {
		return "", err
	}

	if payload.AbstractText != "" {
		summary := payload.AbstractText
		if payload.AbstractURL != "" {
			summary += " (" + payload.AbstractURL + ")"
		}
		return summary, nil
	}
	var topics []string
	for _, t := range payload.RelatedTopics {
		if t.Text != "" {
			topics = append(topics, t.Text)
		}
		if len(topics) == 3 {
			break
		}
	}
	if len(topics) == 0 {
		return "", nil
	}
	return strings.Join(topics, " | "), nil
}

// NewsSearchChannel queries the GDELT document API for recent press
// coverage.
type NewsSearchChannel struct {
	client  *http.Client
	baseURL string
}

func NewNewsSearchChannel(client *http.Client, baseURL string) *NewsSearchChannel {
	return &NewsSearchChannel{client: client, baseURL: baseURL}
}

func (c *NewsSearchChannel) Name() string { return "news" }

func (c *NewsSearchChannel) Lookup(ctx context.Context, query string) (string, error) {
	u := fmt.Sprintf("%s?query=%s&mode=artlist&maxrecords=5&format=json",
		c.baseURL, url.QueryEscape(fmt.Sprintf("%q", query)))
	var payload struct {
		Articles []struct {
			Title  string `json:"title"`
			Domain string `json:"domain"`
			URL    string `json:"url"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, c.client, u, &payload); err != nil {
		return "", err
	}
	if len(payload.Articles) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		lines = append(lines, fmt.Sprintf("%s (%s)", a.Title, a.Domain))
	}
	return strings.Join(lines, " | "), nil
}

// EncyclopediaChannel queries the Wikipedia REST summary endpoint.
type EncyclopediaChannel struct {
	client  *http.Client
	baseURL string
}

func NewEncyclopediaChannel(client *http.Client, baseURL string) *EncyclopediaChannel {
	return &EncyclopediaChannel{client: client, baseURL: baseURL}
}

func (c *EncyclopediaChannel) Name() string { return "encyclopedia" }

func (c *EncyclopediaChannel) Lookup(ctx context.Context, query string) (string, error) {
	title := url.PathEscape(strings.ReplaceAll(query, " ", "_"))
	u := strings.TrimSuffix(c.baseURL, "/") + "/" + title
	var payload struct {
		Extract string `json:"extract"`
		Type    string `json:"type"`
	}
	err := getJSON(ctx, c.client, u, &payload)
	if err != nil {
		// The summary endpoint 404s for unknown subjects; that is a
		// clean no-findings outcome, not a channel failure.
		if strings.Contains(err.Error(), "status code: 404") {
			return "", nil
		}
		return "", err
	}
	if payload.Type == "disambiguation" || payload.Extract == "" {
		return "", nil
	}
	return payload.Extract, nil
}
