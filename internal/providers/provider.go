package providers

import (
	"context"

	"tankobon/internal/metadata"
)

// MetadataProvider is implemented once per external metadata source.
//
// MatchSeriesMetadata returns (nil, nil) when nothing matched; that is a normal
// outcome, not an error. GetBookMetadata fails with services.ErrUnsupported on
// sources without book granularity.
type MetadataProvider interface {
	ProviderName() metadata.ProviderID
	SearchSeries(ctx context.Context, name string, limit int) ([]metadata.SeriesSearchResult, error)
	GetSeriesMetadata(ctx context.Context, id string) (*metadata.ProviderSeriesMetadata, error)
	GetSeriesCover(ctx context.Context, id string) (*metadata.Image, error)
	GetBookMetadata(ctx context.Context, seriesID, bookID string) (*metadata.ProviderBookMetadata, error)
	MatchSeriesMetadata(ctx context.Context, query metadata.MatchQuery) (*metadata.ProviderSeriesMetadata, error)
}
