package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scadapulse/pkg/contracts/domain"
)

// IntervalsPerDay is the number of 5-minute dispatch intervals in a day.
const IntervalsPerDay = 288

// SyntheticDay returns a full day of readings per unit, unit-major and
// time-ascending. Each unit follows a diurnal curve scaled by its
// position, with a ramp burst at 07:00 on even units.
func SyntheticDay(day time.Time, units ...string) []domain.Reading {
	readings := make([]domain.Reading, 0, len(units)*IntervalsPerDay)
	for u, unit := range units {
		base := 100 * float64(u+1)
		for i := 1; i <= IntervalsPerDay; i++ {
			ts := day.Add(time.Duration(i) * 5 * time.Minute)
			hour := float64(i) / 12
			mw := base + 0.4*base*math.Sin((hour-6)/24*2*math.Pi)
			if u%2 == 0 && i >= 84 && i < 90 {
				mw += 0.5 * base
			}
			readings = append(readings, domain.Reading{Timestamp: ts, UnitID: unit, PowerMW: math.Round(mw*100) / 100})
		}
	}
	return readings
}

// DispatchSCADAZip encodes readings as a zipped Dispatch SCADA report in
// the NEMWeb banner layout.
func DispatchSCADAZip(t testing.TB, readings []domain.Reading) []byte {
	t.Helper()
	var csv bytes.Buffer
	csv.WriteString("C,NEMP.WORLD,DISPATCHSCADA,AEMO,PUBLIC\n")
	csv.WriteString("I,DISPATCH,UNIT_SCADA,1,SETTLEMENTDATE,DUID,SCADAVALUE,LASTCHANGED\n")
	for _, r := range readings {
		stamp := r.Timestamp.Format("2006/01/02 15:04:05")
		fmt.Fprintf(&csv, "D,DISPATCH,UNIT_SCADA,1,\"%s\",%s,%g,\"%s\"\n", stamp, r.UnitID, r.PowerMW, stamp)
	}
	fmt.Fprintf(&csv, "C,\"END OF REPORT\",%d\n", len(readings)+3)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("PUBLIC_DISPATCHSCADA.CSV")
	require.NoError(t, err)
	_, err = w.Write(csv.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
