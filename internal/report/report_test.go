package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleEstimate() *power.Estimate {
	params := experiment.Parameters{Arms: []experiment.Arm{{Size: 10, Mean: 0, Spread: 1}, {Size: 10, Mean: 1, Spread: 1}}}
	req := power.Request{Strategy: power.StrategyAnalytic, Alpha: 0.05, Repetitions: 3}
	return power.NewEstimate(core.NewRunID(), params, req, 7, []power.Outcome{
		{Repetition: 0, Statistic: 2.5, PValue: 0.02, Rejected: true},
		{Repetition: 1, Statistic: 0.4, PValue: 0.69},
		{Repetition: 2, Statistic: -3.1, PValue: 0.004, Rejected: true},
	})
}

func TestWriteEstimateXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimate.xlsx")
	est := sampleEstimate()
	require.NoError(t, WriteEstimateXLSX(path, est))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetOutcomes}, f.GetSheetList())

	rows, err := f.GetRows(SheetOutcomes)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"repetition", "statistic", "p_value", "rejected"}, rows[0])
	assert.Equal(t, []string{"2", "-3.1", "0.004", "TRUE"}, rows[3])

	powerCell, err := f.GetCellValue(SheetSummary, "B9")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(powerCell, "0.666"), powerCell)

	created, err := f.GetCellValue(SheetSummary, "B16")
	require.NoError(t, err)
	parsed, err := time.Parse(time.RFC3339Nano, created)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(est.CreatedAt.Time()))
}

func TestWriteCurveXLSX(t *testing.T) {
	est := sampleEstimate()
	curve := &power.Curve{Points: []power.CurvePoint{
		{Label: "shift=1", Parameters: est.Parameters, Estimate: est, Approximate: 0.56},
	}}
	path := filepath.Join(t.TempDir(), "curve.xlsx")
	require.NoError(t, WriteCurveXLSX(path, curve))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetCurve)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "shift=1", rows[1][0])
	assert.Equal(t, "20", rows[1][1])
	assert.Equal(t, "0.56", rows[1][4])
}

func TestWriteOutcomesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutcomesCSV(&buf, sampleEstimate().Outcomes))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "repetition,statistic,p_value,rejected", lines[0])
	assert.Equal(t, "1,0.4,0.69,false", lines[2])
}
