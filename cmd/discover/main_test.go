package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/internal/dataprocessing"
)

func TestPrintUnits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUnits(&buf, []dataprocessing.UnitCount{
		{UnitID: "BW01", Count: 288},
		{UnitID: "ER02", Count: 12},
	}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "UNIT")
	assert.Contains(t, string(lines[1]), "BW01")
	assert.Contains(t, string(lines[1]), "288")
	assert.Contains(t, string(lines[2]), "ER02")
}
