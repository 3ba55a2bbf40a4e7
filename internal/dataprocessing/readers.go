package dataprocessing

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// delimiterCandidates are the separators ReadDelimited chooses between.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const (
	sniffLines = 20
	sniffBytes = 64 * 1024
)

// ReadDelimited reads a ragged delimited text grid. The separator is
// sniffed from the first lines: the candidate appearing most often wins,
// with comma preferred on ties.
func ReadDelimited(r io.Reader) ([][]string, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	sample, err := br.Peek(sniffBytes)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sniff delimiter: %w", err)
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(firstLines(sample, sniffLines))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited rows: %w", err)
	}
	return rows, nil
}

func firstLines(sample []byte, n int) string {
	end := 0
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(sample[end:], '\n')
		if idx < 0 {
			return string(sample)
		}
		end += idx + 1
	}
	return string(sample[:end])
}

func sniffDelimiter(sample string) rune {
	best := delimiterCandidates[0]
	bestCount := 0
	for _, d := range delimiterCandidates {
		if c := strings.Count(sample, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// ReadZip reads the banner rows held in a zip payload. A flat archive
// contributes its first CSV entry. An archive without CSV entries but with
// nested zips, like the NEMWEB daily archive, contributes the rows of every
// inner archive in name order.
func ReadZip(data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var nested []*zip.File
	for _, f := range zr.File {
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".csv":
			return readZipEntry(f)
		case ".zip":
			nested = append(nested, f)
		}
	}

	sort.Slice(nested, func(i, j int) bool { return nested[i].Name < nested[j].Name })

	var rows [][]string
	for _, f := range nested {
		inner, err := readAll(f)
		if err != nil {
			return nil, err
		}
		innerRows, err := ReadZip(inner)
		if err != nil {
			return nil, fmt.Errorf("nested %s: %w", f.Name, err)
		}
		rows = append(rows, innerRows...)
	}
	return rows, nil
}

func readZipEntry(f *zip.File) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return ReadDelimited(rc)
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ReadWorkbook returns the rows of the first sheet of an xlsx export.
func ReadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
