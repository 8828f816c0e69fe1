package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/itohio/reactiontest/pkg/trial"
	"github.com/xuri/excelize/v2"
)

var (
	trialsHeader  = []string{"trial", "condition", "result", "reaction_time"}
	summaryHeader = []string{"normal_avg", "disgust_avg", "total_avg", "normal_early", "disgust_early", "normal_wrong", "disgust_wrong"}
	statsHeader   = []string{"condition", "n", "mean_ms", "median_ms", "stddev_ms", "min_ms", "max_ms"}
	earliesHeader = []string{"trial", "condition"}
)

func (s *Session) trialRows() [][]string {
	rows := make([][]string, 0, len(s.Trials))
	for _, t := range s.Trials {
		rows = append(rows, []string{
			strconv.Itoa(t.Trial),
			t.Condition.String(),
			t.Result.String(),
			strconv.FormatUint(t.ReactionTime, 10),
		})
	}
	return rows
}

func (s *Session) summaryRow() []string {
	if s.Summary == nil {
		return nil
	}
	sum := s.Summary
	return []string{
		strconv.FormatUint(sum.NormalAverage, 10),
		strconv.FormatUint(sum.DisgustAverage, 10),
		strconv.FormatUint(sum.TotalAverage, 10),
		strconv.Itoa(sum.NormalEarly),
		strconv.Itoa(sum.DisgustEarly),
		strconv.Itoa(sum.NormalWrong),
		strconv.Itoa(sum.DisgustWrong),
	}
}

func (s *Session) statsRows() [][]string {
	row := func(name string, d Description) []string {
		return []string{
			name,
			strconv.Itoa(d.N),
			strconv.FormatFloat(d.Mean, 'f', 3, 64),
			strconv.FormatFloat(d.Median, 'f', 3, 64),
			strconv.FormatFloat(d.StdDev, 'f', 3, 64),
			strconv.FormatFloat(d.Min, 'f', 3, 64),
			strconv.FormatFloat(d.Max, 'f', 3, 64),
		}
	}
	rows := make([][]string, 0, trial.NumCategories+1)
	for _, c := range trial.Categories {
		rows = append(rows, row(c.String(), s.Describe(c)))
	}
	return append(rows, row("all", s.DescribeAll()))
}

// SaveCSV writes <base>_trials.csv and <base>_summary.csv into dir and
// returns their paths. The summary file is omitted for incomplete sessions.
func SaveCSV(dir string, s *Session) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	base := filepath.Join(dir, s.BaseName())
	trialsPath := base + "_trials.csv"
	if err := writeCSV(trialsPath, trialsHeader, s.trialRows()); err != nil {
		return nil, err
	}
	paths := []string{trialsPath}

	if s.Complete() {
		summaryPath := base + "_summary.csv"
		if err := writeCSV(summaryPath, summaryHeader, [][]string{s.summaryRow()}); err != nil {
			return paths, err
		}
		paths = append(paths, summaryPath)
	}

	return paths, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

type sheetData struct {
	name   string
	header []string
	rows   [][]string
}

// SaveXLSX writes <base>.xlsx into dir with Trials, Earlies, Summary and
// Stats sheets and returns its path.
func SaveXLSX(dir string, s *Session) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Trials"); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheet(f, "Trials", trialsHeader, s.trialRows()); err != nil {
		return "", err
	}

	earlies := make([][]string, 0, len(s.Earlies))
	for _, e := range s.Earlies {
		earlies = append(earlies, []string{strconv.Itoa(e.Trial), e.Condition.String()})
	}
	sheets := []sheetData{
		{"Earlies", earliesHeader, earlies},
		{"Stats", statsHeader, s.statsRows()},
	}
	if s.Complete() {
		sheets = append(sheets, sheetData{"Summary", summaryHeader, [][]string{s.summaryRow()}})
	}

	for _, sh := range sheets {
		if _, err := f.NewSheet(sh.name); err != nil {
			return "", fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh.name, sh.header, sh.rows); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, s.BaseName()+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

// writeSheet stores numeric-looking cells as numbers.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	all := append([][]string{header}, rows...)
	for r, row := range all {
		values := make([]interface{}, len(row))
		for c, v := range row {
			values[c] = v
			if r == 0 {
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				values[c] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
	}
	return nil
}
