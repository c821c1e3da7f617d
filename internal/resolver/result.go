package resolver

import (
	"context"

	"tankobon/internal/metadata"
)

// Source names one provider record that contributed to a result.
type Source struct {
	Provider metadata.ProviderID `json:"provider" yaml:"provider"`
	ID       string              `json:"id" yaml:"id"`
}

// Result is the merged outcome of a resolution. Series is nil when no
// provider matched.
type Result struct {
	SeriesID string                            `json:"series_id" yaml:"series_id"`
	Query    string                            `json:"query" yaml:"query"`
	Series   *metadata.SeriesMetadata          `json:"series,omitempty" yaml:"series,omitempty"`
	Sources  []Source                          `json:"sources,omitempty" yaml:"sources,omitempty"`
	Books    map[string]*metadata.BookMetadata `json:"books,omitempty" yaml:"books,omitempty"`
}

// Matched reports whether any provider produced a record.
func (r *Result) Matched() bool {
	return r != nil && r.Series != nil
}

// Title is the primary title of the match, or the query when unmatched.
func (r *Result) Title() string {
	if r == nil {
		return ""
	}
	if r.Series != nil {
		if title := r.Series.PrimaryTitle(); title != "" {
			return title
		}
	}
	return r.Query
}

// Providers lists contributing providers in merge order.
func (r *Result) Providers() []metadata.ProviderID {
	if r == nil {
		return nil
	}
	out := make([]metadata.ProviderID, 0, len(r.Sources))
	for _, src := range r.Sources {
		out = append(out, src.Provider)
	}
	return out
}

// Writer receives matched results during post-processing.
type Writer interface {
	WriteSeries(ctx context.Context, result *Result) error
}

// Notifier announces matched results. Failures are logged, never fatal.
type Notifier interface {
	NotifyResolved(ctx context.Context, seriesID, title string, providers []metadata.ProviderID) error
}
