package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ProviderID identifies a metadata source.
type ProviderID string

const (
	ProviderMangaUpdates ProviderID = "mangaupdates"
	ProviderAniList      ProviderID = "anilist"
	ProviderMyAnimeList  ProviderID = "myanimelist"
	ProviderComicVine    ProviderID = "comicvine"
	ProviderMangaDex     ProviderID = "mangadex"
	ProviderBookWalker   ProviderID = "bookwalker"
	ProviderKodansha     ProviderID = "kodansha"
	ProviderViz          ProviderID = "viz"
	ProviderYenPress     ProviderID = "yenpress"
	ProviderNautiljon    ProviderID = "nautiljon"
	ProviderBangumi      ProviderID = "bangumi"
	ProviderHentag       ProviderID = "hentag"
)

var allProviders = []ProviderID{
	ProviderMangaUpdates,
	ProviderAniList,
	ProviderMyAnimeList,
	ProviderComicVine,
	ProviderMangaDex,
	ProviderBookWalker,
	ProviderKodansha,
	ProviderViz,
	ProviderYenPress,
	ProviderNautiljon,
	ProviderBangumi,
	ProviderHentag,
}

// AllProviders returns every known provider identifier in declaration order.
func AllProviders() []ProviderID {
	cp := make([]ProviderID, len(allProviders))
	copy(cp, allProviders)
	return cp
}

// ParseProviderID converts a configuration key into a known ProviderID.
func ParseProviderID(value string) (ProviderID, bool) {
	normalized := ProviderID(strings.ToLower(strings.TrimSpace(value)))
	for _, id := range allProviders {
		if id == normalized {
			return id, true
		}
	}
	return "", false
}

// MediaType is the library-level kind of media a provider should match.
type MediaType string

const (
	MediaManga   MediaType = "manga"
	MediaNovel   MediaType = "novel"
	MediaComic   MediaType = "comic"
	MediaWebtoon MediaType = "webtoon"
)

// ParseMediaType converts a configuration value into a MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(value))) {
	case MediaManga:
		return MediaManga, true
	case MediaNovel:
		return MediaNovel, true
	case MediaComic:
		return MediaComic, true
	case MediaWebtoon:
		return MediaWebtoon, true
	default:
		return "", false
	}
}

// ErrInvalidRange reports a book range whose start exceeds its end.
var ErrInvalidRange = errors.New("invalid book range")

// BookRange is a single book number or an inclusive numeric range ("3" or "3-4").
type BookRange struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// NewBookRange validates start <= end.
func NewBookRange(start, end float64) (BookRange, error) {
	if start > end {
		return BookRange{}, fmt.Errorf("%w: %v > %v", ErrInvalidRange, start, end)
	}
	return BookRange{Start: start, End: end}, nil
}

// SingleBook returns a range covering exactly one number.
func SingleBook(number float64) BookRange {
	return BookRange{Start: number, End: number}
}

// ParseBookRange accepts "3", "3.5" or "3-4".
func ParseBookRange(value string) (BookRange, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return BookRange{}, fmt.Errorf("%w: empty", ErrInvalidRange)
	}
	startRaw, endRaw, isRange := strings.Cut(value, "-")
	start, err := strconv.ParseFloat(strings.TrimSpace(startRaw), 64)
	if err != nil {
		return BookRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, value)
	}
	if !isRange {
		return SingleBook(start), nil
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(endRaw), 64)
	if err != nil {
		return BookRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, value)
	}
	return NewBookRange(start, end)
}

// IsSingle reports whether the range covers a single number.
func (r BookRange) IsSingle() bool {
	return r.Start == r.End
}

// Key renders the range as "3" or "3-4". It is the book merge key.
func (r BookRange) Key() string {
	start := strconv.FormatFloat(r.Start, 'f', -1, 64)
	if r.IsSingle() {
		return start
	}
	return start + "-" + strconv.FormatFloat(r.End, 'f', -1, 64)
}

func (r BookRange) String() string {
	return r.Key()
}

// Image holds raw cover bytes as returned by a provider. The core only decodes
// and hashes them.
type Image struct {
	Bytes    []byte `json:"-" yaml:"-"`
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
}

// Empty reports whether the image carries no data.
func (i *Image) Empty() bool {
	return i == nil || len(i.Bytes) == 0
}

// BookQualifier narrows a series match to a specific book.
type BookQualifier struct {
	Name   string
	Number BookRange
	Cover  *Image
}

// MatchQuery is the immutable input to a resolution attempt.
type MatchQuery struct {
	SeriesName    string
	StartYear     *int
	BookQualifier *BookQualifier
}

// HasCover reports whether the query carries a reference cover for tie-breaking.
func (q MatchQuery) HasCover() bool {
	return q.BookQualifier != nil && !q.BookQualifier.Cover.Empty()
}

// SeriesSearchResult is a lightweight search hit, not yet a confirmed match.
type SeriesSearchResult struct {
	Provider ProviderID `json:"provider" yaml:"provider"`
	ResultID string     `json:"result_id" yaml:"result_id"`
	Title    string     `json:"title" yaml:"title"`
	URL      string     `json:"url,omitempty" yaml:"url,omitempty"`
	ImageURL string     `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}
