package metadata

// SeriesFieldMask enables or disables each optional series field for one provider.
type SeriesFieldMask struct {
	Status                bool `toml:"status"`
	Titles                bool `toml:"titles"`
	Summary               bool `toml:"summary"`
	Publisher             bool `toml:"publisher"`
	AlternativePublishers bool `toml:"alternative_publishers"`
	AgeRating             bool `toml:"age_rating"`
	Genres                bool `toml:"genres"`
	Tags                  bool `toml:"tags"`
	Authors               bool `toml:"authors"`
	ReleaseDate           bool `toml:"release_date"`
	Thumbnail             bool `toml:"thumbnail"`
	TotalBookCount        bool `toml:"total_book_count"`
	Links                 bool `toml:"links"`
	Score                 bool `toml:"score"`
	ReadingDirection      bool `toml:"reading_direction"`
	Language              bool `toml:"language"`
}

// BookFieldMask enables or disables each optional book field for one provider.
type BookFieldMask struct {
	Title       bool `toml:"title"`
	Summary     bool `toml:"summary"`
	Number      bool `toml:"number"`
	NumberSort  bool `toml:"number_sort"`
	ReleaseDate bool `toml:"release_date"`
	Authors     bool `toml:"authors"`
	Tags        bool `toml:"tags"`
	ISBN        bool `toml:"isbn"`
	Links       bool `toml:"links"`
	Thumbnail   bool `toml:"thumbnail"`
}

// AllSeriesFields returns a mask with every series field enabled.
func AllSeriesFields() SeriesFieldMask {
	return SeriesFieldMask{
		Status:                true,
		Titles:                true,
		Summary:               true,
		Publisher:             true,
		AlternativePublishers: true,
		AgeRating:             true,
		Genres:                true,
		Tags:                  true,
		Authors:               true,
		ReleaseDate:           true,
		Thumbnail:             true,
		TotalBookCount:        true,
		Links:                 true,
		Score:                 true,
		ReadingDirection:      true,
		Language:              true,
	}
}

// AllBookFields returns a mask with every book field enabled.
func AllBookFields() BookFieldMask {
	return BookFieldMask{
		Title:       true,
		Summary:     true,
		Number:      true,
		NumberSort:  true,
		ReleaseDate: true,
		Authors:     true,
		Tags:        true,
		ISBN:        true,
		Links:       true,
		Thumbnail:   true,
	}
}

// ApplySeriesMask keeps each field only when it is present and its flag is set.
func ApplySeriesMask(m SeriesMetadata, mask SeriesFieldMask) SeriesMetadata {
	return SeriesMetadata{
		Status:                keepString(m.Status, mask.Status),
		Titles:                keepSlice(m.Titles, mask.Titles),
		Summary:               keepString(m.Summary, mask.Summary),
		Publisher:             keepPtr(m.Publisher, mask.Publisher),
		AlternativePublishers: keepSlice(m.AlternativePublishers, mask.AlternativePublishers),
		AgeRating:             keepPtr(m.AgeRating, mask.AgeRating),
		Genres:                keepSlice(m.Genres, mask.Genres),
		Tags:                  keepSlice(m.Tags, mask.Tags),
		Authors:               keepSlice(m.Authors, mask.Authors),
		ReleaseDate:           keepPtr(m.ReleaseDate, mask.ReleaseDate),
		Thumbnail:             keepImage(m.Thumbnail, mask.Thumbnail),
		TotalBookCount:        keepPtr(m.TotalBookCount, mask.TotalBookCount),
		Links:                 keepSlice(m.Links, mask.Links),
		Score:                 keepPtr(m.Score, mask.Score),
		ReadingDirection:      keepString(m.ReadingDirection, mask.ReadingDirection),
		Language:              keepString(m.Language, mask.Language),
	}
}

// ApplyBookMask keeps each maskable field only when it is present and its flag
// is set. Chapter data always passes through.
func ApplyBookMask(m BookMetadata, mask BookFieldMask) BookMetadata {
	return BookMetadata{
		Title:       keepString(m.Title, mask.Title),
		Summary:     keepString(m.Summary, mask.Summary),
		Number:      keepPtr(m.Number, mask.Number),
		NumberSort:  keepPtr(m.NumberSort, mask.NumberSort),
		ReleaseDate: keepPtr(m.ReleaseDate, mask.ReleaseDate),
		Authors:     keepSlice(m.Authors, mask.Authors),
		Tags:        keepSlice(m.Tags, mask.Tags),
		ISBN:        keepString(m.ISBN, mask.ISBN),
		Links:       keepSlice(m.Links, mask.Links),
		Thumbnail:   keepImage(m.Thumbnail, mask.Thumbnail),

		Chapters:     m.Chapters,
		StartChapter: m.StartChapter,
		EndChapter:   m.EndChapter,
	}
}

// ApplyProviderSeriesMask masks the metadata of a provider series record.
func ApplyProviderSeriesMask(record ProviderSeriesMetadata, mask SeriesFieldMask) ProviderSeriesMetadata {
	record.Metadata = ApplySeriesMask(record.Metadata, mask)
	return record
}

// ApplyProviderBookMask masks the metadata of a provider book record.
func ApplyProviderBookMask(record ProviderBookMetadata, mask BookFieldMask) ProviderBookMetadata {
	record.Metadata = ApplyBookMask(record.Metadata, mask)
	return record
}

func keepString[S ~string](value S, enabled bool) S {
	if !enabled {
		return ""
	}
	return value
}

func keepSlice[T any](value []T, enabled bool) []T {
	if !enabled || len(value) == 0 {
		return nil
	}
	return value
}

func keepPtr[T any](value *T, enabled bool) *T {
	if !enabled {
		return nil
	}
	return value
}

func keepImage(value *Image, enabled bool) *Image {
	if !enabled || value.Empty() {
		return nil
	}
	return value
}
