package dataprocessing

import (
	"fmt"
	"strings"

	"scadapulse/pkg/contracts/domain"
)

// ReportTitle heads the daily operational summary document.
const ReportTitle = "# AEMO Daily Operational Summary"

// RenderMarkdown renders a day summary as a Markdown document with one
// section per unit, in unit order.
func RenderMarkdown(day domain.DaySummary) string {
	if day.Len() == 0 {
		return ReportTitle + "\n\n_No data_"
	}

	summaries := day.Summaries()
	lines := []string{ReportTitle, fmt.Sprintf("**Day:** %s\n", summaries[0].Day)}

	for _, s := range summaries {
		lines = append(lines,
			"## "+s.UnitID,
			fmt.Sprintf("- Rows: %d", s.NRows),
			fmt.Sprintf("- Power (MW): min **%.2f**, mean **%.2f**, max **%.2f**", s.PMin, s.PMean, s.PMax),
			fmt.Sprintf("- Energy: **%.2f MWh**", s.EnergyMWh),
			fmt.Sprintf("- Zero-output fraction: **%.1f%%**, Negative fraction: **%.2f%%**", 100*s.ZeroFrac, 100*s.NegFrac),
			fmt.Sprintf("- Ramps (|ΔMW|/5min): 95th **%.2f**, max **%.2f**", s.Ramp95p, s.RampMax),
			fmt.Sprintf("- Trend slope: **%+.2f MW/h**; Burst up/down: **%d/%d**",
				s.SlopeMWPerHr, s.IntradayUpBursts, s.IntradayDownBursts),
			"- Diurnal profile (hour → mean MW): "+formatProfile(s.DiurnalProfile),
		)

		if len(s.Outages) > 0 {
			total := 0
			for _, o := range s.Outages {
				total += o.Points
			}
			lines = append(lines, fmt.Sprintf("- Outage-like zero segments: **%d** (total points **%d**)", len(s.Outages), total))
		} else {
			lines = append(lines, "- Outage-like zero segments: **0**")
		}

		if len(s.Notes) > 0 {
			lines = append(lines, "- Notes: "+strings.Join(s.Notes, "; "))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func formatProfile(profile []domain.HourMean) string {
	parts := make([]string, len(profile))
	for i, h := range profile {
		parts[i] = fmt.Sprintf("%02d:%.1f", h.Hour, h.MeanMW)
	}
	return strings.Join(parts, ", ")
}
