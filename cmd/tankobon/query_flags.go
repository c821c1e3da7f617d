package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tankobon/internal/api"
	"tankobon/internal/metadata"
)

// queryFlags are the series and qualifier flags shared by resolve and submit.
type queryFlags struct {
	name       string
	year       int
	bookName   string
	bookNumber string
	coverPath  string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Series name to search for (default: derived from the series ID)")
	cmd.Flags().IntVar(&f.year, "year", 0, "Series start year")
	cmd.Flags().StringVar(&f.bookName, "book-name", "", "Qualifier: title of a book in the series")
	cmd.Flags().StringVar(&f.bookNumber, "book-number", "", "Qualifier: book number or range, e.g. 3 or 3-4")
	cmd.Flags().StringVar(&f.coverPath, "cover", "", "Qualifier: cover image file used to break ties")
}

// request builds the API form of the query.
func (f *queryFlags) request(seriesID string) (api.ResolveRequest, error) {
	req := api.ResolveRequest{
		SeriesID:   strings.TrimSpace(seriesID),
		SeriesName: strings.TrimSpace(f.name),
		BookName:   strings.TrimSpace(f.bookName),
		BookNumber: strings.TrimSpace(f.bookNumber),
	}
	if req.SeriesName == "" {
		req.SeriesName = deriveSeriesName(req.SeriesID)
	}
	if f.year > 0 {
		year := f.year
		req.StartYear = &year
	}
	if path := strings.TrimSpace(f.coverPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return api.ResolveRequest{}, fmt.Errorf("read cover: %w", err)
		}
		req.Cover = data
	}
	return req, nil
}

// query builds the in-process form of the query.
func (f *queryFlags) query(seriesID string) (string, metadata.MatchQuery, error) {
	req, err := f.request(seriesID)
	if err != nil {
		return "", metadata.MatchQuery{}, err
	}
	query, err := req.Query()
	if err != nil {
		return "", metadata.MatchQuery{}, fmt.Errorf("invalid --book-number: %w", err)
	}
	if query.BookQualifier != nil && query.BookQualifier.Cover != nil {
		query.BookQualifier.Cover.MimeType = http.DetectContentType(req.Cover)
	}
	return req.SeriesID, query, nil
}

// deriveSeriesName turns a series ID such as "library/one_piece" into a
// search name ("One Piece"). Existing capitals are kept.
func deriveSeriesName(seriesID string) string {
	base := filepath.Base(strings.TrimSpace(seriesID))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	return cases.Title(language.Und, cases.NoLower).String(base)
}
