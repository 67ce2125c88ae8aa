package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-postgen-be/pkg/store"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoHTML = "https://html.duckduckgo.com/html/"

// WebProvider scrapes the DuckDuckGo HTML results page. The research
// content is a digest of result snippets; every result becomes a citation.
type WebProvider struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
}

func NewWebProvider(endpoint string, maxResults int) *WebProvider {
	if endpoint == "" {
		endpoint = duckDuckGoHTML
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebProvider{
		endpoint:   endpoint,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *WebProvider) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("research query is empty")
	}

	searchURL := fmt.Sprintf("%s?q=%s", p.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &Result{}
	var digest strings.Builder
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())
		if title == "" || href == "" {
			return true
		}

		result.Citations = append(result.Citations, store.Source{URL: resolveRedirect(href), Title: title})
		fmt.Fprintf(&digest, "- %s: %s\n", title, snippet)
		return len(result.Citations) < p.maxResults
	})
	result.Content = strings.TrimSpace(digest.String())

	return result, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= tracking links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
