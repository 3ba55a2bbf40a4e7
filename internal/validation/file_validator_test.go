package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T) string
		pattern   string
		wantCount int
		wantType  apperrors.ErrorType
	}{
		{
			name: "zips present",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, filepath.Join(dir, "PUBLIC_DISPATCHSCADA_20240115.zip"))
				writeFile(t, filepath.Join(dir, "PUBLIC_DISPATCHSCADA_20240116.zip"))
				writeFile(t, filepath.Join(dir, "notes.txt"))
				require.NoError(t, os.Mkdir(filepath.Join(dir, "PUBLIC_DISPATCHSCADA_dir.zip"), 0o755))
				return dir
			},
			pattern:   "PUBLIC_DISPATCHSCADA_*.zip",
			wantCount: 2,
		},
		{
			name:    "empty directory",
			setup:   func(t *testing.T) string { return t.TempDir() },
			pattern: "*.zip",
		},
		{
			name:     "missing directory",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") },
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "file.zip")
				writeFile(t, path)
				return path
			},
			wantType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(nil)
			count, err := v.ValidateInputDirectory(tt.setup(t), tt.pattern)
			if tt.wantType != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, writeProbe))

	blocker := filepath.Join(t.TempDir(), "blocker")
	writeFile(t, blocker)
	err := v.ValidateOutputDirectory(filepath.Join(blocker, "sub"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestFileValidator_ValidateDataDirectories(t *testing.T) {
	v := NewFileValidator(nil)
	root := t.TempDir()
	paths := config.NewPaths(config.PathsConfig{DataDir: root, LogsDir: filepath.Join(root, "logs")})

	require.NoError(t, v.ValidateDataDirectories(paths))
	for _, dir := range []string{paths.ReadingsDir, paths.ZipsDir, paths.ReportsDir, paths.ForecastDir, paths.LogsDir} {
		assert.DirExists(t, dir)
	}
}

func TestFileValidator_ValidateReadingsCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "aemo_20240115_all_5min.csv")
	txtPath := filepath.Join(dir, "readings.txt")
	writeFile(t, csvPath)
	writeFile(t, txtPath)

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateReadingsCSV(csvPath))

	err := v.ValidateReadingsCSV(txtPath)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	err = v.ValidateReadingsCSV(filepath.Join(dir, "missing.csv"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	err = v.ValidateReadingsCSV(dir)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestFileValidator_CountFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"))
	writeFile(t, filepath.Join(dir, "b.csv"))
	writeFile(t, filepath.Join(dir, "c.json"))

	v := NewFileValidator(nil)
	count, err := v.CountFiles(dir, "*.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = v.CountFiles(dir, "[")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
