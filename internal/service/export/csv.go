// Package export writes the CSV attachments served by the export endpoints.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Sanitize replaces commas so a value never splits into two columns in
// spreadsheet tools that ignore quoting.
func Sanitize(value string) string {
	return strings.ReplaceAll(value, ",", ";")
}

// Money formats an amount with two decimals.
func Money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// WriteCSV writes header and rows, sanitizing every cell.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		clean := make([]string, len(row))
		for i, cell := range row {
			clean[i] = Sanitize(cell)
		}
		if err := cw.Write(clean); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
