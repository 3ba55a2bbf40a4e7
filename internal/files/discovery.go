package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	apperrors "scadapulse/internal/errors"
)

// Kind describes one family of dated artifacts.
type Kind struct {
	Name    string
	Glob    string
	pattern *regexp.Regexp
	layout  string
}

// Artifact kinds written by the pipeline.
var (
	KindReport   = newKind("report", "report_*.json", `^report_(\d{4}-\d{2}-\d{2})\.json$`, "2006-01-02")
	KindReadings = newKind("readings", "aemo_*_5min.csv", `^aemo_(\d{4}-\d{2}-\d{2})_.+_5min\.csv$`, "2006-01-02")
	KindForecast = newKind("forecast", "forecast_*_nextday.csv", `^forecast_(\d{4}-\d{2}-\d{2})_nextday\.csv$`, "2006-01-02")
	KindZip      = newKind("zip", "PUBLIC_DISPATCHSCADA_*.zip", `(?i)^PUBLIC_DISPATCHSCADA_(\d{8})`, "20060102")
)

func newKind(name, glob, pattern, layout string) Kind {
	return Kind{Name: name, Glob: glob, pattern: regexp.MustCompile(pattern), layout: layout}
}

// ParseDay extracts the trading day from a file name.
func (k Kind) ParseDay(name string, loc *time.Location) (time.Time, bool) {
	m := k.pattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(k.layout, m[1], loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Day     time.Time
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	loc *time.Location
}

// NewDiscovery creates a discovery parsing days in loc.
func NewDiscovery(loc *time.Location) *Discovery {
	if loc == nil {
		loc = time.UTC
	}
	return &Discovery{loc: loc}
}

// Find lists the files of kind in dir, oldest day first. A missing
// directory holds no files.
func (d *Discovery) Find(dir string, kind Kind) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, kind.Glob))
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("invalid pattern %s", kind.Glob), err)
	}

	files := make([]FileInfo, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		day, ok := kind.ParseDay(name, d.loc)
		if !ok {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    name,
			Day:     day,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Day.Equal(files[j].Day) {
			return files[i].Day.Before(files[j].Day)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Days returns the distinct days of kind in dir, newest first.
func (d *Discovery) Days(dir string, kind Kind) ([]time.Time, error) {
	files, err := d.Find(dir, kind)
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		if n := len(days); n > 0 && days[n-1].Equal(files[i].Day) {
			continue
		}
		days = append(days, files[i].Day)
	}
	return days, nil
}
