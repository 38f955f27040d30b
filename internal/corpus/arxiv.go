package corpus

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/consilium/internal/cache"
	"github.com/ppiankov/consilium/internal/model"
)

// arXiv asks clients to keep at most one request every three seconds.
const arxivRequestInterval = 3 * time.Second

// searchCacheTTL bounds how long a search result set stays valid.
const searchCacheTTL = 6 * time.Hour

// ArxivProvider searches the arXiv Atom API, newest submissions first.
type ArxivProvider struct {
	baseURL    string
	userAgent  string
	maxBytes   int64
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache // nil disables caching
}

// NewArxivProvider creates an arXiv corpus provider.
func NewArxivProvider(cfg model.CorpusConfig, store cache.Cache) *ArxivProvider {
	return &ArxivProvider{
		baseURL:   "https://export.arxiv.org/api/query",
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(arxivRequestInterval), 1),
		cache:   store,
	}
}

// Name returns the provider name.
func (p *ArxivProvider) Name() string {
	return "arxiv"
}

// Atom feed structures, limited to the fields we consume.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// Search queries arXiv and converts matching entries into documents.
func (p *ArxivProvider) Search(ctx context.Context, query string, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := cache.Key(fmt.Sprintf("arxiv:%s:%d", query, limit))
	if p.cache != nil {
		if data, found := p.cache.Get(cacheKey); found {
			var docs []model.Document
			if err := json.Unmarshal(data, &docs); err == nil {
				return docs, nil
			}
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", limit))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	docs := make([]model.Document, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		docs = append(docs, entryToDocument(entry))
	}

	if p.cache != nil && len(docs) > 0 {
		if data, err := json.Marshal(docs); err == nil {
			_ = p.cache.Set(cacheKey, data, searchCacheTTL)
		}
	}

	return docs, nil
}

// entryToDocument converts one Atom entry into a document excerpt.
func entryToDocument(entry atomEntry) model.Document {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, a.Name)
	}

	published, _ := time.Parse(time.RFC3339, entry.Published)

	// arXiv entry IDs are URLs like https://arxiv.org/abs/2401.01234v1
	id := entry.ID
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}

	return model.Document{
		ID:        id,
		Title:     collapseWhitespace(entry.Title),
		Authors:   authors,
		Abstract:  collapseWhitespace(entry.Summary),
		SourceURL: entry.ID,
		Published: published,
	}
}

// collapseWhitespace flattens the linebreak-heavy text arXiv feeds carry.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
