package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"tankobon/internal/fileutil"
	"tankobon/internal/services"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileWriter stores each result as <Dir>/<series id>.json.
type FileWriter struct {
	Dir string
}

// WriteSeries replaces any earlier result for the same series.
func (w FileWriter) WriteSeries(_ context.Context, result *Result) error {
	if result == nil {
		return errors.New("write series: nil result")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := fileutil.WriteFileAtomic(w.path(result.SeriesID), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// ReadSeries loads the stored result for seriesID.
func (w FileWriter) ReadSeries(seriesID string) (*Result, error) {
	data, err := os.ReadFile(w.path(seriesID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "results", "read", "no result for series "+seriesID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

func (w FileWriter) path(seriesID string) string {
	name := unsafeFileChars.ReplaceAllString(seriesID, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return filepath.Join(w.Dir, name+".json")
}
