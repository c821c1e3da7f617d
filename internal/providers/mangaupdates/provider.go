package mangaupdates

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/namematch"
	"tankobon/internal/providers"
	"tankobon/internal/services"
)

// maxSearchLength bounds the search phrase; longer titles are truncated.
const maxSearchLength = 200

// Provider adapts the MangaUpdates API to providers.MetadataProvider.
type Provider struct {
	client  *Client
	matcher *providers.SeriesMatcher
	logger  *slog.Logger
}

var (
	_ providers.MetadataProvider = (*Provider)(nil)
	_ providers.CandidateSource  = (*Provider)(nil)
)

// Options configures a Provider.
type Options struct {
	MediaType    metadata.MediaType
	NameMatching namematch.Mode
	SearchLimit  int
	SeriesFields metadata.SeriesFieldMask
	FetchCover   bool
	Logger       *slog.Logger
}

// New builds a provider over client. Media types MangaUpdates does not
// catalogue fail with services.ErrUnsupported.
func New(client *Client, opts Options) (*Provider, error) {
	accepted, err := providers.SupportedSubtypes(metadata.ProviderMangaUpdates, opts.MediaType, subtypes)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Provider{client: client, logger: logger}
	p.matcher = &providers.SeriesMatcher{
		Provider:       metadata.ProviderMangaUpdates,
		Source:         p,
		Names:          namematch.New(opts.NameMatching),
		Subtypes:       accepted,
		SearchLimit:    opts.SearchLimit,
		MaxQueryLength: maxSearchLength,
		SeriesFields:   opts.SeriesFields,
		FetchCover:     opts.FetchCover,
		Logger:         logger,
	}
	return p, nil
}

// Factory builds a Provider from its configuration section.
func Factory(settings providers.Settings) (providers.MetadataProvider, error) {
	media, ok := metadata.ParseMediaType(settings.Config.MediaType)
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "mangaupdates", "factory",
			"unknown media type "+strconv.Quote(settings.Config.MediaType), nil)
	}
	mode, err := namematch.ParseMode(settings.Config.NameMatchingMode)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mangaupdates", "factory", "", err)
	}
	client, err := NewClient(settings.Config.BaseURL, WithHTTPClient(settings.HTTPClient))
	if err != nil {
		return nil, err
	}
	provider, err := New(client, Options{
		MediaType:    media,
		NameMatching: mode,
		SearchLimit:  settings.SearchLimit,
		SeriesFields: settings.Config.SeriesFields,
		FetchCover:   true,
		Logger:       settings.Logger,
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// ProviderName identifies the source.
func (p *Provider) ProviderName() metadata.ProviderID {
	return metadata.ProviderMangaUpdates
}

// SearchSeries returns lightweight search hits.
func (p *Provider) SearchSeries(ctx context.Context, name string, limit int) ([]metadata.SeriesSearchResult, error) {
	resp, err := p.client.Search(ctx, providers.TruncateRunes(name, maxSearchLength), limit)
	if err != nil {
		return nil, err
	}
	results := make([]metadata.SeriesSearchResult, 0, len(resp.Results))
	for _, hit := range resp.Results {
		results = append(results, metadata.SeriesSearchResult{
			Provider: metadata.ProviderMangaUpdates,
			ResultID: strconv.FormatInt(hit.Record.SeriesID, 10),
			Title:    hit.Record.Title,
			URL:      hit.Record.URL,
			ImageURL: hit.Record.Image.URL.Original,
		})
	}
	return results, nil
}

// GetSeriesMetadata fetches and maps one series. The record is not masked.
func (p *Provider) GetSeriesMetadata(ctx context.Context, id string) (*metadata.ProviderSeriesMetadata, error) {
	series, err := p.client.Series(ctx, id)
	if err != nil {
		return nil, err
	}
	return &metadata.ProviderSeriesMetadata{
		ID:       strconv.FormatInt(series.SeriesID, 10),
		Provider: metadata.ProviderMangaUpdates,
		Metadata: toSeriesMetadata(series),
	}, nil
}

// GetSeriesCover downloads the original cover of a series, or nil when it has none.
func (p *Provider) GetSeriesCover(ctx context.Context, id string) (*metadata.Image, error) {
	series, err := p.client.Series(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.fetchImage(ctx, series.Image.URL.Original)
}

// GetBookMetadata is unsupported: MangaUpdates has no per-volume records.
func (p *Provider) GetBookMetadata(context.Context, string, string) (*metadata.ProviderBookMetadata, error) {
	return nil, services.Unsupported("mangaupdates", "book metadata")
}

// MatchSeriesMetadata runs the shared matching algorithm.
func (p *Provider) MatchSeriesMetadata(ctx context.Context, query metadata.MatchQuery) (*metadata.ProviderSeriesMetadata, error) {
	return p.matcher.Match(services.WithProvider(ctx, string(metadata.ProviderMangaUpdates)), query)
}

// SearchCandidates implements providers.CandidateSource.
func (p *Provider) SearchCandidates(ctx context.Context, name string, limit int) ([]providers.Candidate, error) {
	resp, err := p.client.Search(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	candidates := make([]providers.Candidate, 0, len(resp.Results))
	for _, hit := range resp.Results {
		titles := []string{hit.Record.Title}
		if alt := strings.TrimSpace(hit.HitTitle); alt != "" && alt != hit.Record.Title {
			titles = append(titles, alt)
		}
		candidates = append(candidates, providers.Candidate{
			ID:       strconv.FormatInt(hit.Record.SeriesID, 10),
			Titles:   titles,
			Subtype:  hit.Record.Type,
			CoverURL: hit.Record.Image.URL.Original,
		})
	}
	return candidates, nil
}

// FetchSeries implements providers.CandidateSource.
func (p *Provider) FetchSeries(ctx context.Context, id string) (*metadata.ProviderSeriesMetadata, error) {
	return p.GetSeriesMetadata(ctx, id)
}

// FetchCandidateCover implements providers.CandidateSource.
func (p *Provider) FetchCandidateCover(ctx context.Context, candidate providers.Candidate) (*metadata.Image, error) {
	return p.fetchImage(ctx, candidate.CoverURL)
}

func (p *Provider) fetchImage(ctx context.Context, url string) (*metadata.Image, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	data, contentType, err := p.client.Image(ctx, url)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return &metadata.Image{Bytes: data, MimeType: mediaType}, nil
}
