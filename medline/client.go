package medline

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/medassist/core"
)

const (
	// DefaultBaseURL is the MedlinePlus web-service search endpoint.
	DefaultBaseURL = "https://wsearch.nlm.nih.gov/ws/query"

	// sourceName tags every record produced by this adapter.
	sourceName = "MedlinePlus"

	// summaryPlaceholder is used when a record carries no summary-like field.
	summaryPlaceholder = "description unavailable"
)

// summaryFields is the ordered fallback chain for summary-like content
// fields. The first non-empty one wins; snippet is tried last.
var summaryFields = []string{"FullSummary", "summary", "description", "abstract", "content", "snippet"}

// Client queries the MedlinePlus health-topic search service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the search endpoint. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a MedlinePlus search client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "medline-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse mirrors the web-service XML envelope. Content values keep
// their inner XML so embedded markup survives until stripHTML runs.
type searchResponse struct {
	Documents []xmlDocument `xml:"list>document"`
}

type xmlDocument struct {
	URL      string       `xml:"url,attr"`
	Contents []xmlContent `xml:"content"`
}

type xmlContent struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",innerxml"`
}

// field returns the raw value of the named content field, or "".
func (d *xmlDocument) field(name string) string {
	for _, c := range d.Contents {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Search queries the health-topic database for term and returns up to
// maxResults records. A record is included only when it has both a
// non-empty title and a URL.
//
// An empty or whitespace-only term is a no-op: no request is issued and an
// empty result is returned. Any failure past that point is converted to an
// empty result plus a logged diagnostic; Search never returns an error.
func (c *Client) Search(ctx context.Context, term string, maxResults int) []core.RawDocument {
	term = strings.TrimSpace(term)
	if term == "" {
		c.logger.Warn("empty search term")
		return nil
	}

	params := url.Values{}
	params.Set("db", "healthTopics")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.logger.Error("building search request", "err", err)
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("search request failed", "term", term, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("search request returned non-success status", "term", term, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("reading search response", "term", term, "err", err)
		return nil
	}

	var parsed searchResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("parsing search response", "term", term, "err", err)
		return nil
	}

	results := make([]core.RawDocument, 0, len(parsed.Documents))
	for _, doc := range parsed.Documents {
		title := stripHTML(doc.field("title"))
		if title == "" || doc.URL == "" {
			c.logger.Debug("skipping record without title or url")
			continue
		}

		summary := summaryPlaceholder
		for _, name := range summaryFields {
			if v := stripHTML(doc.field(name)); v != "" {
				summary = v
				break
			}
		}

		results = append(results, core.RawDocument{
			Title:   title,
			URL:     doc.URL,
			Summary: summary,
			Source:  sourceName,
		})
	}

	c.logger.Debug("search complete", "term", term, "results", len(results))
	return results
}
