package providers

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"tankobon/internal/imagehash"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/namematch"
)

// Candidate is one search hit as seen by the matching algorithm.
type Candidate struct {
	ID string
	// Titles holds the primary title first, then alternate and localized titles.
	Titles   []string
	Subtype  string
	CoverURL string
}

// CandidateSource is the narrow view of a provider that SeriesMatcher needs.
type CandidateSource interface {
	SearchCandidates(ctx context.Context, name string, limit int) ([]Candidate, error)
	FetchSeries(ctx context.Context, id string) (*metadata.ProviderSeriesMetadata, error)
	// FetchCandidateCover returns nil when the candidate has no cover.
	FetchCandidateCover(ctx context.Context, candidate Candidate) (*metadata.Image, error)
}

// SeriesMatcher runs the matching algorithm shared by every provider:
// search with a truncated name, keep candidates of the configured sub-types,
// pick the first whose titles match the query, break ties on the reference
// cover when one is supplied, then fetch and mask the full record.
type SeriesMatcher struct {
	Provider       metadata.ProviderID
	Source         CandidateSource
	Names          namematch.Matcher
	Subtypes       Subtypes
	SearchLimit    int
	MaxQueryLength int
	SeriesFields   metadata.SeriesFieldMask
	FetchCover     bool
	Logger         *slog.Logger
}

// Match returns the masked record of the accepted candidate, or nil when no
// candidate is accepted.
func (m *SeriesMatcher) Match(ctx context.Context, query metadata.MatchQuery) (*metadata.ProviderSeriesMetadata, error) {
	logger := logging.WithContext(ctx, m.logger())
	name := strings.TrimSpace(query.SeriesName)
	if name == "" {
		return nil, nil
	}

	candidates, err := m.Source.SearchCandidates(ctx, TruncateRunes(name, m.MaxQueryLength), m.SearchLimit)
	if err != nil {
		return nil, err
	}

	matched := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !m.Subtypes.Accepts(candidate.Subtype) {
			continue
		}
		if m.Names.MatchesAny(name, candidate.Titles) {
			matched = append(matched, candidate)
		}
	}
	logger.Debug("series candidates filtered",
		logging.String("series_name", name),
		logging.Int("candidates", len(candidates)),
		logging.Int("matched", len(matched)),
	)
	if len(matched) == 0 {
		return nil, nil
	}

	accepted := &matched[0]
	if query.HasCover() && len(matched) > 1 {
		accepted, err = m.breakTieOnCover(ctx, logger, query.BookQualifier.Cover, matched)
		if err != nil || accepted == nil {
			return nil, err
		}
	}

	series, err := m.Source.FetchSeries(ctx, accepted.ID)
	if err != nil {
		return nil, err
	}
	if m.FetchCover && m.SeriesFields.Thumbnail {
		cover, err := m.Source.FetchCandidateCover(ctx, *accepted)
		if err != nil {
			logging.WarnWithContext(logger, "series cover fetch failed", "cover_fetch",
				logging.String("result_id", accepted.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "series resolved without a thumbnail"),
			)
		} else if !cover.Empty() {
			series.Metadata.Thumbnail = cover
		}
	}
	masked := metadata.ApplyProviderSeriesMask(*series, m.SeriesFields)
	logger.Info("series matched",
		logging.String(logging.FieldEventType, "provider_match"),
		logging.String("result_id", masked.ID),
		logging.String("title", masked.Metadata.PrimaryTitle()),
	)
	return &masked, nil
}

// breakTieOnCover returns the first candidate whose cover is perceptually
// similar to reference, or nil when none is.
func (m *SeriesMatcher) breakTieOnCover(ctx context.Context, logger *slog.Logger, reference *metadata.Image, matched []Candidate) (*Candidate, error) {
	for i := range matched {
		cover, err := m.Source.FetchCandidateCover(ctx, matched[i])
		if err != nil {
			return nil, err
		}
		if cover.Empty() {
			continue
		}
		similar, err := imagehash.CompareImages(reference.Bytes, cover.Bytes)
		if err != nil {
			logger.Debug("cover comparison skipped",
				logging.String("result_id", matched[i].ID),
				logging.Error(err),
			)
			continue
		}
		if similar {
			return &matched[i], nil
		}
	}
	logger.Info("no candidate cover matched the reference cover",
		logging.String(logging.FieldEventType, "cover_tiebreak"),
		logging.Int("candidates", len(matched)),
	)
	return nil, nil
}

func (m *SeriesMatcher) logger() *slog.Logger {
	if m.Logger == nil {
		return logging.NewNop()
	}
	return m.Logger
}

// TruncateRunes shortens s to at most limit runes. A limit of zero or less
// leaves s unchanged.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return strings.TrimSpace(s[:i])
		}
		count++
	}
	return s
}
