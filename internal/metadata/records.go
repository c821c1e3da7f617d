package metadata

// SeriesStatus is the publication status of a series.
type SeriesStatus string

const (
	StatusEnded     SeriesStatus = "ended"
	StatusOngoing   SeriesStatus = "ongoing"
	StatusAbandoned SeriesStatus = "abandoned"
	StatusHiatus    SeriesStatus = "hiatus"
	StatusCompleted SeriesStatus = "completed"
)

// ReadingDirection is the page order of a series.
type ReadingDirection string

const (
	ReadingLeftToRight ReadingDirection = "ltr"
	ReadingRightToLeft ReadingDirection = "rtl"
	ReadingVertical    ReadingDirection = "vertical"
	ReadingWebtoon     ReadingDirection = "webtoon"
)

// SeriesTitle is one known title of a series.
type SeriesTitle struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Author is a credited contributor.
type Author struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// Author roles.
const (
	RoleWriter     = "writer"
	RolePenciller  = "penciller"
	RoleInker      = "inker"
	RoleColorist   = "colorist"
	RoleLetterer   = "letterer"
	RoleCoverArt   = "cover"
	RoleTranslator = "translator"
)

// WebLink is a labeled external URL.
type WebLink struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// ReleaseDate carries a partially-known date; zero Month/Day mean unknown.
type ReleaseDate struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int `json:"day,omitempty" yaml:"day,omitempty"`
}

// Publisher names a publishing house and the market it serves.
type Publisher struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// SeriesMetadata is a provider's description of a series. Every field is optional.
type SeriesMetadata struct {
	Status                SeriesStatus     `json:"status,omitempty" yaml:"status,omitempty"`
	Titles                []SeriesTitle    `json:"titles,omitempty" yaml:"titles,omitempty"`
	Summary               string           `json:"summary,omitempty" yaml:"summary,omitempty"`
	Publisher             *Publisher       `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	AlternativePublishers []Publisher      `json:"alternative_publishers,omitempty" yaml:"alternative_publishers,omitempty"`
	AgeRating             *int             `json:"age_rating,omitempty" yaml:"age_rating,omitempty"`
	Genres                []string         `json:"genres,omitempty" yaml:"genres,omitempty"`
	Tags                  []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Authors               []Author         `json:"authors,omitempty" yaml:"authors,omitempty"`
	ReleaseDate           *ReleaseDate     `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Thumbnail             *Image           `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	TotalBookCount        *int             `json:"total_book_count,omitempty" yaml:"total_book_count,omitempty"`
	Links                 []WebLink        `json:"links,omitempty" yaml:"links,omitempty"`
	Score                 *float64         `json:"score,omitempty" yaml:"score,omitempty"`
	ReadingDirection      ReadingDirection `json:"reading_direction,omitempty" yaml:"reading_direction,omitempty"`
	Language              string           `json:"language,omitempty" yaml:"language,omitempty"`
}

// PrimaryTitle returns the first known title, or "".
func (m SeriesMetadata) PrimaryTitle() string {
	for _, title := range m.Titles {
		if title.Name != "" {
			return title.Name
		}
	}
	return ""
}

// TitleNames returns every non-empty title name in order.
func (m SeriesMetadata) TitleNames() []string {
	names := make([]string, 0, len(m.Titles))
	for _, title := range m.Titles {
		if title.Name != "" {
			names = append(names, title.Name)
		}
	}
	return names
}

// Chapter is a chapter entry inside a book.
type Chapter struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Number float64 `json:"number" yaml:"number"`
}

// BookMetadata is a provider's description of one book. Chapters,
// StartChapter and EndChapter are derived data and never masked.
type BookMetadata struct {
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Summary     string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Number      *BookRange   `json:"number,omitempty" yaml:"number,omitempty"`
	NumberSort  *float64     `json:"number_sort,omitempty" yaml:"number_sort,omitempty"`
	ReleaseDate *ReleaseDate `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Authors     []Author     `json:"authors,omitempty" yaml:"authors,omitempty"`
	Tags        []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	ISBN        string       `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Links       []WebLink    `json:"links,omitempty" yaml:"links,omitempty"`
	Thumbnail   *Image       `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`

	Chapters     []Chapter `json:"chapters,omitempty" yaml:"chapters,omitempty"`
	StartChapter *int      `json:"start_chapter,omitempty" yaml:"start_chapter,omitempty"`
	EndChapter   *int      `json:"end_chapter,omitempty" yaml:"end_chapter,omitempty"`
}

// SeriesBook references a book inside a provider's series record.
type SeriesBook struct {
	ID      string     `json:"id" yaml:"id"`
	Number  *BookRange `json:"number,omitempty" yaml:"number,omitempty"`
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Type    string     `json:"type,omitempty" yaml:"type,omitempty"`
	Edition string     `json:"edition,omitempty" yaml:"edition,omitempty"`
}

// ProviderSeriesMetadata is a provider's full record for a confirmed series match.
type ProviderSeriesMetadata struct {
	ID       string         `json:"id" yaml:"id"`
	Provider ProviderID     `json:"provider" yaml:"provider"`
	Metadata SeriesMetadata `json:"metadata" yaml:"metadata"`
	Books    []SeriesBook   `json:"books,omitempty" yaml:"books,omitempty"`
}

// ProviderBookMetadata is a provider's full record for one book.
type ProviderBookMetadata struct {
	ID       string       `json:"id" yaml:"id"`
	Provider ProviderID   `json:"provider" yaml:"provider"`
	Metadata BookMetadata `json:"metadata" yaml:"metadata"`
}
