package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"codesmith/internal/logging"
	"codesmith/internal/tools"
)

// DefaultEndpoint is the DuckDuckGo HTML search page.
const DefaultEndpoint = "https://html.duckduckgo.com/html/"

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher queries DuckDuckGo without an API key.
type Searcher struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithEndpoint overrides the search endpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Searcher) { s.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Searcher) { s.httpClient = c }
}

// NewSearcher creates a Searcher returning at most maxResults results.
func NewSearcher(maxResults int, timeout time.Duration, opts ...Option) *Searcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Searcher{
		endpoint:   DefaultEndpoint,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs query and formats the top results as text. Failures are
// reported in the returned text, never as an error.
func (s *Searcher) Search(ctx context.Context, query string) string {
	logging.Tools("web search: %q", query)

	results, err := s.Results(ctx, query)
	if err != nil {
		logging.ToolsError("web search failed: %v", err)
		return fmt.Sprintf("An error occurred during web search: %v", err)
	}
	if len(results) == 0 {
		return "No results found."
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("Title: %s\nSnippet: %s\nURL: %s", r.Title, r.Snippet, r.URL)
	}
	return fmt.Sprintf("Search results for '%s':\n\n%s", query, strings.Join(blocks, "\n\n"))
}

// Results returns the parsed top results for query.
func (s *Searcher) Results(ctx context.Context, query string) ([]SearchResult, error) {
	searchURL := s.endpoint + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// DuckDuckGo serves an empty page to unknown agents.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseResults(string(body), s.maxResults)
}

// WebSearchTool exposes s as the web_search tool.
func WebSearchTool(s *Searcher) *tools.Tool {
	return &tools.Tool{
		Name:        "web_search",
		Description: "Search the web for information using DuckDuckGo",
		Category:    tools.CategoryResearch,
		Priority:    75,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return "", fmt.Errorf("%w: query", tools.ErrBlankArgument)
			}
			return s.Search(ctx, query), nil
		},
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {
					Type:        "string",
					Description: "The search query",
				},
			},
		},
	}
}

// parseResults extracts search results from DuckDuckGo HTML.
func parseResults(htmlContent string, maxResults int) ([]SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}

		if n.Type == html.ElementNode && n.Data == "div" {
			if class := attr(n, "class"); strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if r := extractResult(n); r.URL != "" && r.Title != "" {
					results = append(results, r)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return results, nil
}

// extractResult extracts a single search result from a result div.
func extractResult(n *html.Node) SearchResult {
	var result SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				result.URL = attr(n, "href")
				result.Title = textContent(n)
			case strings.Contains(class, "result__snippet"):
				result.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	result.URL = unwrapRedirect(result.URL)
	return result
}

// unwrapRedirect resolves DuckDuckGo's //duckduckgo.com/l/?uddg=<target> links.
func unwrapRedirect(link string) string {
	const prefix = "//duckduckgo.com/l/?"
	if !strings.HasPrefix(link, prefix) {
		return link
	}
	q, err := url.ParseQuery(strings.TrimPrefix(link, prefix))
	if err != nil || q.Get("uddg") == "" {
		return link
	}
	return q.Get("uddg")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent returns all text content within a node, whitespace collapsed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
