package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/consilium/internal/cache"
	"github.com/ppiankov/consilium/internal/model"
)

// pageCacheTTL bounds how long a fetched page stays valid.
const pageCacheTTL = 24 * time.Hour

// WebProvider turns a caller-supplied list of URLs into corpus documents by
// fetching each page and extracting its readable text. Fetches honor
// robots.txt and any crawl delay the host requests.
type WebProvider struct {
	urls       []string
	userAgent  string
	maxBytes   int64
	httpClient *http.Client
	robots     *robotsChecker
	cache      cache.Cache // nil disables caching
}

// NewWebProvider creates a provider over a fixed URL list.
func NewWebProvider(urls []string, cfg model.CorpusConfig, store cache.Cache) *WebProvider {
	return &WebProvider{
		urls:      urls,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots: newRobotsChecker(cfg.UserAgent, cfg.Timeout),
		cache:  store,
	}
}

// Name returns the provider name.
func (p *WebProvider) Name() string {
	return "web"
}

// Search fetches up to limit of the configured URLs. The query is unused:
// the caller already chose the documents. Individual fetch failures are
// reported and skipped; one dead page never empties the corpus.
func (p *WebProvider) Search(ctx context.Context, query string, limit int) ([]model.Document, error) {
	urls := p.urls
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	docs := make([]model.Document, 0, len(urls))
	for _, rawURL := range urls {
		doc, err := p.fetch(ctx, rawURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "corpus: skipping %s: %v\n", rawURL, err)
			continue
		}
		docs = append(docs, *doc)
	}

	return docs, nil
}

// fetch retrieves one page and converts it into a document.
func (p *WebProvider) fetch(ctx context.Context, rawURL string) (*model.Document, error) {
	cacheKey := cache.Key("web:" + rawURL)
	if p.cache != nil {
		if data, found := p.cache.Get(cacheKey); found {
			var doc model.Document
			if err := json.Unmarshal(data, &doc); err == nil {
				return &doc, nil
			}
		}
	}

	allowed, delay, err := p.robots.allowed(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("disallowed by robots.txt")
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	title, text := extractReadableText(string(body))
	if title == "" {
		title = subjectFromURL(rawURL)
	}

	doc := &model.Document{
		ID:        rawURL,
		Title:     title,
		FullText:  text,
		SourceURL: resp.Request.URL.String(),
	}

	if p.cache != nil {
		if data, err := json.Marshal(doc); err == nil {
			_ = p.cache.Set(cacheKey, data, pageCacheTTL)
		}
	}

	return doc, nil
}

// extractReadableText pulls the title and visible text out of an HTML page.
func extractReadableText(htmlContent string) (string, string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	var title string
	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}

		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.TrimSpace(text.String())
}

// subjectFromURL derives a readable title from the last URL path segment.
func subjectFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
