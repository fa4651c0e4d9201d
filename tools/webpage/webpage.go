// Package webpage provides the page fetch tool: it downloads a URL, strips
// markup, and returns readable text for the model.
package webpage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
)

// defaultBodyLimit bounds how much of the response body is read before
// stripping. The agent truncates observations again on its own limit.
const defaultBodyLimit = 256 * 1024

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Tool is the page fetch tool. The Action Input is the URL to fetch.
type Tool struct {
	client    *http.Client
	bodyLimit int64
}

var _ ponder.Tool = &Tool{}

// Option is a configuration option for the webpage tool.
type Option func(*Tool)

// WithHTTPClient replaces the HTTP client, e.g. to change the timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		t.client = client
	}
}

// WithBodyLimit sets how many bytes of the response body are read.
func WithBodyLimit(limit int64) Option {
	return func(t *Tool) {
		t.bodyLimit = limit
	}
}

// New creates a webpage tool.
func New(options ...Option) *Tool {
	t := &Tool{
		client:    &http.Client{Timeout: 15 * time.Second},
		bodyLimit: defaultBodyLimit,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *Tool) Spec() ponder.ToolSpec {
	return ponder.ToolSpec{
		Name:        "GetWebPage",
		Description: "Fetch a web page and return its text content. Input is a full URL including the scheme, e.g. https://example.com/page.",
	}
}

func (t *Tool) Run(ctx context.Context, input string) (string, error) {
	target := strings.TrimSpace(input)
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", goerr.Wrap(ponder.ErrToolUnreachable, "input is not a valid http(s) URL", goerr.V("input", input))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", goerr.Wrap(ponder.ErrToolUnreachable, "failed to create request", goerr.V("url", target))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", goerr.Wrap(ponder.ErrToolUnreachable, "failed to fetch page", goerr.V("url", target), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", goerr.Wrap(ponder.ErrToolUnreachable, "page returned non-OK status", goerr.V("url", target), goerr.V("status", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !textContentType(contentType) {
		return "", goerr.Wrap(ponder.ErrToolUnsupported, "page content is not text", goerr.V("url", target), goerr.V("content_type", contentType))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.bodyLimit))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", goerr.Wrap(ponder.ErrToolUnreachable, "failed to read page body", goerr.V("url", target))
	}

	return stripHTML(string(body)), nil
}

// textContentType reports whether the Content-Type carries text the model
// can read.
func textContentType(contentType string) bool {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	if mediaType == "" || strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/xhtml+xml", "application/xml", "application/json":
		return true
	}
	return false
}

var (
	reScript     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reNav        = regexp.MustCompile(`(?is)<nav[^>]*>.*?</nav>`)
	reHeader     = regexp.MustCompile(`(?is)<header[^>]*>.*?</header>`)
	reFooter     = regexp.MustCompile(`(?is)<footer[^>]*>.*?</footer>`)
	reTags       = regexp.MustCompile(`<[^>]+>`)
	reWhitespace = regexp.MustCompile(`[ \t]+`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes scripts, styles and chrome elements, then all tags,
// and collapses whitespace into readable lines.
func stripHTML(html string) string {
	s := reScript.ReplaceAllString(html, "")
	s = reStyle.ReplaceAllString(s, "")
	s = reNav.ReplaceAllString(s, "")
	s = reHeader.ReplaceAllString(s, "")
	s = reFooter.ReplaceAllString(s, "")
	s = reTags.ReplaceAllString(s, " ")

	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	s = reWhitespace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	s = strings.Join(out, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
