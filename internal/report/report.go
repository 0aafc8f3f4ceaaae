package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gopower/adapters/battery"
	"gopower/domain/power"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary  = "Summary"
	SheetOutcomes = "Outcomes"
	SheetCurve    = "Curve"
)

var outcomeHeaders = []interface{}{"repetition", "statistic", "p_value", "rejected"}

// WriteEstimateXLSX saves a summary sheet and one row per repetition
func WriteEstimateXLSX(path string, est *power.Estimate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeSummary(f, est); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetOutcomes); err != nil {
		return err
	}
	if err := writeOutcomes(f, SheetOutcomes, est.Outcomes); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

// WriteCurveXLSX saves one row per curve point
func WriteCurveXLSX(path string, curve *power.Curve) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCurve); err != nil {
		return err
	}
	header := []interface{}{"label", "total_size", "treatment_mean", "power", "approximate_power", "completed", "rejections", "partial", "median_p_value"}
	if err := f.SetSheetRow(SheetCurve, "A1", &header); err != nil {
		return err
	}
	for i, p := range curve.Points {
		treatmentMean := 0.0
		if len(p.Parameters.Arms) > 1 {
			treatmentMean = p.Parameters.Arms[1].Mean
		}
		summary := battery.SummarizePValues(p.Estimate.PValues())
		row := []interface{}{
			p.Label,
			p.Parameters.TotalSize(),
			treatmentMean,
			p.Estimate.Power,
			p.Approximate,
			p.Estimate.Completed,
			p.Estimate.Rejections,
			p.Estimate.Partial,
			summary.Median,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetCurve, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, est *power.Estimate) error {
	summary := battery.SummarizePValues(est.PValues())
	rows := [][]interface{}{
		{"run_id", est.RunID.String()},
		{"strategy", string(est.Strategy)},
		{"alpha", est.Alpha},
		{"seed", strconv.FormatUint(est.Seed, 10)},
		{"permutations", est.Permutations},
		{"requested", est.Requested},
		{"completed", est.Completed},
		{"rejections", est.Rejections},
		{"power", est.Power},
		{"partial", est.Partial},
		{"p_value_mean", summary.Mean},
		{"p_value_median", summary.Median},
		{"p_value_q05", summary.Q05},
		{"fingerprint", est.Fingerprint.String()},
		{"elapsed_seconds", est.Elapsed.Seconds()},
		{"created_at", est.CreatedAt.String()},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcomes(f *excelize.File, sheet string, outcomes []power.Outcome) error {
	if err := f.SetSheetRow(sheet, "A1", &outcomeHeaders); err != nil {
		return err
	}
	for i, o := range outcomes {
		row := []interface{}{o.Repetition, o.Statistic, o.PValue, o.Rejected}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// WriteOutcomesCSV streams per-repetition outcomes as CSV
func WriteOutcomesCSV(w io.Writer, outcomes []power.Outcome) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"repetition", "statistic", "p_value", "rejected"}); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := cw.Write([]string{
			strconv.Itoa(o.Repetition),
			strconv.FormatFloat(o.Statistic, 'g', -1, 64),
			strconv.FormatFloat(o.PValue, 'g', -1, 64),
			strconv.FormatBool(o.Rejected),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
