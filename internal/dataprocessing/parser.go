package dataprocessing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// Banner layout of the DISPATCH UNIT_SCADA section.
const (
	HeaderSentinel = "SETTLEMENTDATE"
	DataRowTag     = "D"

	colIndicator   = 0
	colSettlement  = 4
	colUnit        = 5
	colValue       = 6
	colLastChanged = 7
)

// timestampLayouts are tried in order when coercing settlement dates.
var timestampLayouts = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006-01-02",
}

// ExtractReadings turns the rows of a banner report into canonical readings.
//
// The header is the first row whose settlement column equals the sentinel,
// ignoring case. Only rows after it tagged "D" are read. A row whose
// timestamp cannot be parsed is dropped; a value that cannot be parsed
// becomes NaN. A blob without the sentinel yields no readings.
func ExtractReadings(rows [][]string, loc *time.Location) []domain.Reading {
	if loc == nil {
		loc = time.UTC
	}

	header := findHeaderRow(rows)
	if header < 0 {
		return []domain.Reading{}
	}

	readings := make([]domain.Reading, 0, len(rows)-header-1)
	for _, row := range rows[header+1:] {
		if cell(row, colIndicator) != DataRowTag {
			continue
		}

		ts, ok := parseTimestamp(cell(row, colSettlement), loc)
		if !ok {
			continue
		}
		unit := strings.ToUpper(cell(row, colUnit))
		if unit == "" {
			continue
		}

		readings = append(readings, domain.Reading{
			Timestamp: ts,
			UnitID:    unit,
			PowerMW:   parseValue(cell(row, colValue)),
		})
	}
	return readings
}

func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		if strings.EqualFold(cell(row, colSettlement), HeaderSentinel) {
			return i
		}
	}
	return -1
}

// cell returns the trimmed, unquoted field at idx, or "" when the row is short.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[idx]), `"`)
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseValue(raw string) float64 {
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// Parser reads banner reports from files or raw bytes.
type Parser struct {
	logger   *slog.Logger
	location *time.Location
}

// NewParser creates a parser interpreting settlement dates in loc.
func NewParser(logger *slog.Logger, loc *time.Location) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		logger:   logger.With(slog.String("component", "parser")),
		location: loc,
	}
}

// Location returns the time zone settlement dates are parsed in.
func (p *Parser) Location() *time.Location { return p.location }

// ParseRows extracts readings from an already tabulated blob.
func (p *Parser) ParseRows(ctx context.Context, source string, rows [][]string) []domain.Reading {
	readings := ExtractReadings(rows, p.location)
	if len(readings) == 0 {
		p.logger.DebugContext(ctx, "no data rows in source",
			slog.String("source", source),
			slog.Int("rows", len(rows)))
		return readings
	}
	p.logger.DebugContext(ctx, "extracted readings",
		slog.String("source", source),
		slog.Int("rows", len(rows)),
		slog.Int("readings", len(readings)))
	return readings
}

// ParseBytes extracts readings from a zip or delimited text payload.
func (p *Parser) ParseBytes(ctx context.Context, name string, data []byte) ([]domain.Reading, error) {
	var (
		rows [][]string
		err  error
	)
	if isZip(name, data) {
		rows, err = ReadZip(data)
	} else {
		rows, err = ReadDelimited(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read %s", name), err)
	}
	return p.ParseRows(ctx, name, rows), nil
}

// ParseFile extracts readings from a .zip, .csv or .xlsx file.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]domain.Reading, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		rows, err := ReadWorkbook(path)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("failed to read workbook %s", path), err)
		}
		return p.ParseRows(ctx, path, rows), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}

	readings, err := p.ParseBytes(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "parsed source file",
		slog.String("path", path),
		slog.Int("readings", len(readings)))
	return readings, nil
}

func isZip(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return true
	}
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 0x03 && data[3] == 0x04
}
