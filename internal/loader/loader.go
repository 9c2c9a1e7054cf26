package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"descstats/internal/descriptive"
)

// LoadFile reads a dataset from a .json document or an .xlsx workbook.
func LoadFile(path string, opts descriptive.DecodeOptions) (descriptive.Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return descriptive.Decode(f, opts)
	case ".xlsx":
		return loadWorkbook(path, opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// loadWorkbook reads the first sheet. A header row naming start, end and
// frequency columns selects INTERVALS; otherwise the first column is an ARRAY.
func loadWorkbook(path string, opts descriptive.DecodeOptions) (descriptive.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}

	if len(rows) > 0 {
		if cols, ok := intervalColumns(rows[0]); ok {
			return intervalsFromRows(rows[1:], cols, opts)
		}
	}
	return sampleFromRows(rows)
}

type columns struct{ start, end, frequency int }

func intervalColumns(header []string) (columns, bool) {
	c := columns{-1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "start":
			c.start = i
		case "end":
			c.end = i
		case "frequency":
			c.frequency = i
		}
	}
	return c, c.start >= 0 && c.end >= 0 && c.frequency >= 0
}

func intervalsFromRows(rows [][]string, c columns, opts descriptive.DecodeOptions) (descriptive.Dataset, error) {
	var intervals []descriptive.Interval
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		var iv descriptive.Interval
		var err error
		if iv.Start, err = cellFloat(row, c.start); err != nil {
			return nil, fmt.Errorf("row %d start: %w", i+2, err)
		}
		if iv.End, err = cellFloat(row, c.end); err != nil {
			return nil, fmt.Errorf("row %d end: %w", i+2, err)
		}
		if iv.Frequency, err = cellFloat(row, c.frequency); err != nil {
			return nil, fmt.Errorf("row %d frequency: %w", i+2, err)
		}
		intervals = append(intervals, iv)
	}

	g, err := descriptive.NewGroupedIntervals(intervals)
	if err != nil {
		return nil, err
	}
	if opts.RequireContiguous {
		if err := descriptive.ValidateContiguous(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// sampleFromRows takes the first column; a non-numeric first cell is a header.
func sampleFromRows(rows [][]string) (descriptive.Dataset, error) {
	var values []float64
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		v, err := cellFloat(row, 0)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		values = append(values, v)
	}
	return descriptive.NewSample(values)
}

func cellFloat(row []string, col int) (float64, error) {
	if col >= len(row) {
		return 0, fmt.Errorf("missing column %d", col+1)
	}
	return strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
