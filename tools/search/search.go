// Package search provides the web search tool backed by DuckDuckGo's lite
// HTML interface. No API key is required.
package search

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
)

const (
	defaultEndpoint    = "https://lite.duckduckgo.com/lite/"
	defaultResultLimit = 5

	// snippetLimit keeps one result's snippet short enough that five results
	// still fit comfortably in an observation.
	snippetLimit = 300

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Tool is the web search tool. The Action Input is the search query.
type Tool struct {
	client      *http.Client
	endpoint    string
	resultLimit int
}

var _ ponder.Tool = &Tool{}

// Option is a configuration option for the search tool.
type Option func(*Tool)

// WithHTTPClient replaces the HTTP client, e.g. to change the timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		t.client = client
	}
}

// WithEndpoint replaces the search endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(t *Tool) {
		t.endpoint = endpoint
	}
}

// WithResultLimit sets the maximum number of results per query. Default is 5.
func WithResultLimit(limit int) Option {
	return func(t *Tool) {
		t.resultLimit = limit
	}
}

// New creates a search tool.
func New(options ...Option) *Tool {
	t := &Tool{
		client:      &http.Client{Timeout: 15 * time.Second},
		endpoint:    defaultEndpoint,
		resultLimit: defaultResultLimit,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *Tool) Spec() ponder.ToolSpec {
	return ponder.ToolSpec{
		Name:        "Search",
		Description: "Search the web. Input is a plain-text search query. Returns a list of result titles, URLs and snippets.",
	}
}

// Run searches for the query. An empty result set is a valid observation
// ("no results found"), not an error.
func (t *Tool) Run(ctx context.Context, input string) (string, error) {
	body, err := t.query(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", goerr.Wrap(ponder.ErrToolUnavailable, "search request failed", goerr.V("cause", err.Error()))
	}

	results := parseResults(body, t.resultLimit)
	if len(results) == 0 {
		return "no results found", nil
	}

	var sb strings.Builder
	for i, r := range results {
		sb.WriteString(strconv.Itoa(i+1) + ". " + r.title + "\n")
		sb.WriteString("   " + r.url + "\n")
		if r.snippet != "" {
			sb.WriteString("   " + r.snippet + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// query posts the search form. A 429 is retried with doubling backoff,
// bounded by the context deadline.
func (t *Tool) query(ctx context.Context, q string) (string, error) {
	formData := url.Values{}
	formData.Set("q", q)

	delay := time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(formData.Encode()))
		if err != nil {
			return "", goerr.Wrap(err, "failed to create search request")
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.client.Do(req)
		if err != nil {
			return "", err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			if delay < 30*time.Second {
				delay *= 2
			}
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", goerr.New("unexpected status from search endpoint", goerr.V("status", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read search response")
		}
		return string(body), nil
	}
}

type result struct {
	title   string
	url     string
	snippet string
}

var (
	reResultLink  = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	reResultLink2 = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	reSnippet     = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	reTags        = regexp.MustCompile(`<[^>]+>`)
)

// parseResults extracts results from the lite HTML page. The page is a
// plain table of result links and snippet cells.
func parseResults(html string, limit int) []result {
	matches := reResultLink.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = reResultLink2.FindAllStringSubmatch(html, -1)
	}
	snippets := reSnippet.FindAllStringSubmatch(html, -1)

	var results []result
	for i, m := range matches {
		if len(m) < 3 {
			continue
		}

		url := strings.TrimSpace(m[1])
		title := cleanHTML(m[2])
		if url == "" || title == "" {
			continue
		}

		snippet := ""
		if i < len(snippets) && len(snippets[i]) > 1 {
			snippet = cleanHTML(snippets[i][1])
		}
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit] + "..."
		}

		results = append(results, result{title: title, url: url, snippet: snippet})
		if len(results) >= limit {
			break
		}
	}
	return results
}

func cleanHTML(s string) string {
	s = reTags.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(s)
}
