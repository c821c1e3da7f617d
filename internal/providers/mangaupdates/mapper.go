package mangaupdates

import (
	"regexp"
	"strconv"
	"strings"

	"tankobon/internal/metadata"
)

var volumeCount = regexp.MustCompile(`(?i)^\s*(\d+)\s+volumes?`)

// subtypes maps configured media types onto MangaUpdates series types.
// Western comics are not catalogued, so MediaComic is absent.
var subtypes = map[metadata.MediaType][]string{
	metadata.MediaManga: {
		"Manga", "Manhwa", "Manhua", "OEL", "Doujinshi", "Artbook", "Filipino",
		"Indonesian", "Thai", "Vietnamese", "Malaysian", "Nordic", "French", "Spanish",
	},
	metadata.MediaNovel:   {"Novel"},
	metadata.MediaWebtoon: {"Manhwa", "Manhua"},
}

func toSeriesMetadata(series *Series) metadata.SeriesMetadata {
	record := metadata.SeriesMetadata{
		Status:           seriesStatus(series.Status, series.Completed),
		Titles:           seriesTitles(series),
		Summary:          strings.TrimSpace(series.Description),
		Genres:           genreNames(series.Genres),
		Tags:             tagNames(series.Categories),
		Authors:          authors(series.Authors),
		ReleaseDate:      releaseYear(series.Year),
		TotalBookCount:   totalVolumes(series.Status),
		ReadingDirection: readingDirection(series.Type),
		Language:         originalLanguage(series.Type),
	}
	for _, press := range series.Publishers {
		name := strings.TrimSpace(press.Name)
		if name == "" {
			continue
		}
		publisher := metadata.Publisher{Name: name, Type: strings.ToLower(press.Type)}
		if strings.EqualFold(press.Type, "Original") && record.Publisher == nil {
			record.Publisher = &publisher
			continue
		}
		record.AlternativePublishers = append(record.AlternativePublishers, publisher)
	}
	if series.BayesianRating > 0 {
		score := series.BayesianRating
		record.Score = &score
	}
	if url := strings.TrimSpace(series.URL); url != "" {
		record.Links = []metadata.WebLink{{Label: "MangaUpdates", URL: url}}
	}
	return record
}

func seriesTitles(series *Series) []metadata.SeriesTitle {
	titles := make([]metadata.SeriesTitle, 0, len(series.Associated)+1)
	if title := strings.TrimSpace(series.Title); title != "" {
		titles = append(titles, metadata.SeriesTitle{Name: title, Type: "primary"})
	}
	for _, alt := range series.Associated {
		if title := strings.TrimSpace(alt.Title); title != "" {
			titles = append(titles, metadata.SeriesTitle{Name: title, Type: "alternative"})
		}
	}
	return titles
}

func seriesStatus(status string, completed bool) metadata.SeriesStatus {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "hiatus"):
		return metadata.StatusHiatus
	case strings.Contains(lower, "cancelled"), strings.Contains(lower, "discontinued"):
		return metadata.StatusAbandoned
	case completed, strings.Contains(lower, "complete"):
		return metadata.StatusEnded
	case strings.Contains(lower, "ongoing"):
		return metadata.StatusOngoing
	default:
		return ""
	}
}

func totalVolumes(status string) *int {
	m := volumeCount.FindStringSubmatch(status)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func genreNames(genres []Genre) []string {
	var names []string
	for _, g := range genres {
		if name := strings.TrimSpace(g.Genre); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func tagNames(tags []Tag) []string {
	var names []string
	for _, t := range tags {
		if name := strings.TrimSpace(t.Category); name != "" && t.Votes >= 0 {
			names = append(names, name)
		}
	}
	return names
}

func authors(people []Person) []metadata.Author {
	var out []metadata.Author
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		switch strings.ToLower(p.Type) {
		case "author":
			out = append(out, metadata.Author{Name: name, Role: metadata.RoleWriter})
		case "artist":
			out = append(out,
				metadata.Author{Name: name, Role: metadata.RolePenciller},
				metadata.Author{Name: name, Role: metadata.RoleInker},
				metadata.Author{Name: name, Role: metadata.RoleCoverArt},
			)
		}
	}
	return out
}

func releaseYear(year string) *metadata.ReleaseDate {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return nil
	}
	return &metadata.ReleaseDate{Year: y}
}

func readingDirection(seriesType string) metadata.ReadingDirection {
	switch strings.ToLower(seriesType) {
	case "manga", "doujinshi":
		return metadata.ReadingRightToLeft
	case "manhwa", "manhua":
		return metadata.ReadingLeftToRight
	default:
		return ""
	}
}

func originalLanguage(seriesType string) string {
	switch strings.ToLower(seriesType) {
	case "manga", "doujinshi":
		return "ja"
	case "manhwa":
		return "ko"
	case "manhua":
		return "zh"
	default:
		return ""
	}
}
