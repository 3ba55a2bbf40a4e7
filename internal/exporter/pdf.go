package exporter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// BuildPDF renders a one-table operational summary of the day followed by
// the narrative, when one is given.
func BuildPDF(dayLabel string, day domain.DaySummary, alerts int, narrative string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "AEMO Daily Operational Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Day: %s", dayLabel))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Units: %d", day.Len()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Next-day ramp alerts: %d", alerts))
	pdf.Ln(8)

	widths := []float64{34, 18, 24, 24, 24, 30, 24, 24, 24, 26, 24}
	headers := []string{"Unit", "Rows", "Min MW", "Mean MW", "Max MW", "Energy MWh", "Zero %", "Ramp95", "RampMax", "Slope MW/h", "Anomalies"}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, s := range day.Summaries() {
		cells := []string{
			s.UnitID,
			fmt.Sprintf("%d", s.NRows),
			formatFixed(s.PMin, 2),
			formatFixed(s.PMean, 2),
			formatFixed(s.PMax, 2),
			formatFixed(s.EnergyMWh, 2),
			formatFixed(100*s.ZeroFrac, 1),
			formatFixed(s.Ramp95p, 2),
			formatFixed(s.RampMax, 2),
			fmt.Sprintf("%+.2f", s.SlopeMWPerHr),
			fmt.Sprintf("%d", s.Anomalies),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if narrative = strings.TrimSpace(narrative); narrative != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, "Status narrative")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
		tr := pdf.UnicodeTranslatorFromDescriptor("")
		pdf.MultiCell(0, 5, tr(narrative), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewStorageError("failed to render pdf", err)
	}
	return buf.Bytes(), nil
}

// WritePDF renders the report and writes it to path.
func WritePDF(path, dayLabel string, day domain.DaySummary, alerts int, narrative string) error {
	data, err := BuildPDF(dayLabel, day, alerts, narrative)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func joinNotes(notes []string) string {
	return strings.Join(notes, "; ")
}
