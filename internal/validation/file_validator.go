package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
)

const writeProbe = ".write_test"

// FileValidator checks the directories and inputs shared by the web server
// and the command line tools.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputDirectory checks dir exists and counts the regular files
// matching pattern. An empty directory is not an error.
func (v *FileValidator) ValidateInputDirectory(dir, pattern string) (int, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Input directory does not exist", slog.String("directory", dir))
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", dir))
	}
	if err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("stat %s", dir), err)
	}
	if !info.IsDir() {
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}
	if pattern == "" {
		return 0, nil
	}

	count, err := v.CountFiles(dir, pattern)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		v.logger.Warn("No files matching pattern found",
			slog.String("directory", dir),
			slog.String("pattern", pattern))
		return 0, nil
	}
	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count),
		slog.String("pattern", pattern))
	return count, nil
}

// ValidateOutputDirectory creates dir when missing and proves it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("create output directory %s", dir), err)
	}

	probe := filepath.Join(dir, writeProbe)
	file, err := os.Create(probe)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(probe)
	return nil
}

// ValidateDataDirectories runs ValidateOutputDirectory over every directory
// the pipeline writes to and reports all failures together.
func (v *FileValidator) ValidateDataDirectories(paths *config.Paths) error {
	var errs []error
	for _, dir := range []string{paths.ReadingsDir, paths.ZipsDir, paths.ReportsDir, paths.ForecastDir, paths.LogsDir} {
		if err := v.ValidateOutputDirectory(dir); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	v.logger.Info("Data directories validated", slog.String("data_dir", paths.DataDir))
	return nil
}

// ValidateFile checks path names a readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("stat %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateReadingsCSV checks path is a readable .csv file.
func (v *FileValidator) ValidateReadingsCSV(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a CSV file (extension %q)", path, ext))
	}
	return nil
}

// CountFiles counts regular files in dir matching a glob pattern.
func (v *FileValidator) CountFiles(dir, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("bad pattern %q: %v", pattern, err))
	}

	count := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			count++
		}
	}
	return count, nil
}
