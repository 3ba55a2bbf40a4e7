package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"scadapulse/internal/dataprocessing"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// WriteSummaryJSON writes the day summary as an indented JSON object keyed
// by unit id. NaN statistics are encoded as null.
func WriteSummaryJSON(path string, day domain.DaySummary) error {
	data, err := json.MarshalIndent(day, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode summary", err)
	}
	return writeFile(path, data)
}

// ReadSummaryJSON loads a summary written by WriteSummaryJSON.
func ReadSummaryJSON(path string) (domain.DaySummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DaySummary{}, apperrors.NewNotFoundError(path)
		}
		return domain.DaySummary{}, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	var day domain.DaySummary
	if err := json.Unmarshal(data, &day); err != nil {
		return domain.DaySummary{}, apperrors.NewParsingError(fmt.Sprintf("failed to decode %s", path), err)
	}
	return day, nil
}

// WriteMarkdown renders the day summary as Markdown.
func WriteMarkdown(path string, day domain.DaySummary) error {
	return writeFile(path, []byte(dataprocessing.RenderMarkdown(day)))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
