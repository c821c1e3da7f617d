package metadata

// MergeSeries fills every absent field of original from incoming. Present
// values in original are never overwritten.
func MergeSeries(original, incoming SeriesMetadata) SeriesMetadata {
	return SeriesMetadata{
		Status:                orString(original.Status, incoming.Status),
		Titles:                orSlice(original.Titles, incoming.Titles),
		Summary:               orString(original.Summary, incoming.Summary),
		Publisher:             orPtr(original.Publisher, incoming.Publisher),
		AlternativePublishers: orSlice(original.AlternativePublishers, incoming.AlternativePublishers),
		AgeRating:             orPtr(original.AgeRating, incoming.AgeRating),
		Genres:                orSlice(original.Genres, incoming.Genres),
		Tags:                  orSlice(original.Tags, incoming.Tags),
		Authors:               orSlice(original.Authors, incoming.Authors),
		ReleaseDate:           orPtr(original.ReleaseDate, incoming.ReleaseDate),
		Thumbnail:             orImage(original.Thumbnail, incoming.Thumbnail),
		TotalBookCount:        orPtr(original.TotalBookCount, incoming.TotalBookCount),
		Links:                 orSlice(original.Links, incoming.Links),
		Score:                 orPtr(original.Score, incoming.Score),
		ReadingDirection:      orString(original.ReadingDirection, incoming.ReadingDirection),
		Language:              orString(original.Language, incoming.Language),
	}
}

// MergeBook fills every absent field of original from incoming, chapter data included.
func MergeBook(original, incoming BookMetadata) BookMetadata {
	return BookMetadata{
		Title:       orString(original.Title, incoming.Title),
		Summary:     orString(original.Summary, incoming.Summary),
		Number:      orPtr(original.Number, incoming.Number),
		NumberSort:  orPtr(original.NumberSort, incoming.NumberSort),
		ReleaseDate: orPtr(original.ReleaseDate, incoming.ReleaseDate),
		Authors:     orSlice(original.Authors, incoming.Authors),
		Tags:        orSlice(original.Tags, incoming.Tags),
		ISBN:        orString(original.ISBN, incoming.ISBN),
		Links:       orSlice(original.Links, incoming.Links),
		Thumbnail:   orImage(original.Thumbnail, incoming.Thumbnail),

		Chapters:     orSlice(original.Chapters, incoming.Chapters),
		StartChapter: orPtr(original.StartChapter, incoming.StartChapter),
		EndChapter:   orPtr(original.EndChapter, incoming.EndChapter),
	}
}

// MergeBooks unions the book keys of both maps and fills gaps per key. A key
// present on one side passes through unchanged; a key whose values are all
// nil maps to nil.
func MergeBooks(original, incoming map[string]*BookMetadata) map[string]*BookMetadata {
	merged := make(map[string]*BookMetadata, len(original)+len(incoming))
	for key, book := range original {
		merged[key] = book
	}
	for key, book := range incoming {
		existing, ok := merged[key]
		switch {
		case !ok || existing == nil:
			merged[key] = book
		case book == nil:
			// keep existing
		default:
			combined := MergeBook(*existing, *book)
			merged[key] = &combined
		}
	}
	return merged
}

func orString[S ~string](original, incoming S) S {
	if original != "" {
		return original
	}
	return incoming
}

func orSlice[T any](original, incoming []T) []T {
	if len(original) > 0 {
		return original
	}
	return incoming
}

func orPtr[T any](original, incoming *T) *T {
	if original != nil {
		return original
	}
	return incoming
}

func orImage(original, incoming *Image) *Image {
	if !original.Empty() {
		return original
	}
	return incoming
}
