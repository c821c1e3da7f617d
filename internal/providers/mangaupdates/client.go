package mangaupdates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tankobon/internal/services"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.mangaupdates.com/v1"

	maxImageBytes = 10 << 20
)

// ImageURLs lists the renditions of a cover.
type ImageURLs struct {
	Original string `json:"original"`
	Thumb    string `json:"thumb"`
}

// ImageRef wraps the cover URLs of a series.
type ImageRef struct {
	URL ImageURLs `json:"url"`
}

// SearchRecord is the series summary embedded in a search hit.
type SearchRecord struct {
	SeriesID int64    `json:"series_id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Type     string   `json:"type"`
	Year     string   `json:"year"`
	Image    ImageRef `json:"image"`
}

// SearchHit is one search result. HitTitle is the title that matched, which
// may be an associated name rather than the primary title.
type SearchHit struct {
	Record   SearchRecord `json:"record"`
	HitTitle string       `json:"hit_title"`
}

// SearchResponse models the series search payload.
type SearchResponse struct {
	TotalHits int         `json:"total_hits"`
	Page      int         `json:"page"`
	PerPage   int         `json:"per_page"`
	Results   []SearchHit `json:"results"`
}

// Series models the series detail payload.
type Series struct {
	SeriesID       int64    `json:"series_id"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Associated     []Named  `json:"associated"`
	Description    string   `json:"description"`
	Image          ImageRef `json:"image"`
	Type           string   `json:"type"`
	Year           string   `json:"year"`
	BayesianRating float64  `json:"bayesian_rating"`
	Genres         []Genre  `json:"genres"`
	Categories     []Tag    `json:"categories"`
	Status         string   `json:"status"`
	Completed      bool     `json:"completed"`
	Authors        []Person `json:"authors"`
	Publishers     []Press  `json:"publishers"`
}

// Named is an associated (alternate) title.
type Named struct {
	Title string `json:"title"`
}

// Genre is one genre label.
type Genre struct {
	Genre string `json:"genre"`
}

// Tag is one user-voted category.
type Tag struct {
	Category string `json:"category"`
	Votes    int    `json:"votes"`
}

// Person is a credited author or artist.
type Person struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Press is a publisher credit; Type is "Original" or "English".
type Press struct {
	Name string `json:"publisher_name"`
	Type string `json:"type"`
}

// Client provides raw access to the MangaUpdates API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// NewClient creates a MangaUpdates client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, services.Wrap(services.ErrConfiguration, "mangaupdates", "new client",
			fmt.Sprintf("base url %q must be http(s)", baseURL), nil)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "tankobon",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search runs a series title search.
func (c *Client) Search(ctx context.Context, query string, perPage int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "mangaupdates", "search", "query must not be empty", nil)
	}
	if perPage <= 0 {
		perPage = 10
	}
	body, err := json.Marshal(map[string]any{"search": query, "perpage": perPage})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	var payload SearchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/series/search", body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Series fetches a full series record.
func (c *Client) Series(ctx context.Context, id string) (*Series, error) {
	if _, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err != nil {
		return nil, services.Wrap(services.ErrValidation, "mangaupdates", "series", fmt.Sprintf("invalid series id %q", id), nil)
	}
	var payload Series
	if err := c.doJSON(ctx, http.MethodGet, "/series/"+strings.TrimSpace(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Image downloads a cover image. It returns the bytes and the served content type.
func (c *Client) Image(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", classifyTransportError("image", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", statusError("image", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", services.Wrap(services.ErrExternalTool, "mangaupdates", "image", "read body", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return classifyTransportError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w (latency=%v)", statusError(path, resp.StatusCode), latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "mangaupdates", path, "decode response", err)
	}
	return nil
}

func statusError(operation string, status int) error {
	marker := services.ErrExternalTool
	if status == http.StatusNotFound {
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "mangaupdates", operation, fmt.Sprintf("status %d", status), nil)
}

func classifyTransportError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "mangaupdates", operation, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "mangaupdates", operation, "request failed", err)
}
