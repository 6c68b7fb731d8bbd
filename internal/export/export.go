// Package export renders transaction lists as downloadable files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"pennywise/internal/core"
)

// Format is a supported export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Header lists the exported columns in order.
var Header = []string{"Date", "Category", "Amount", "Description", "Source/Destination"}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv;charset=utf-8"
}

// FileName returns "<kind>-<month>.<ext>", where kind is "expenses" or
// "income".
func FileName(kind core.Kind, month string, f Format) string {
	name := "income"
	if kind == core.KindExpense {
		name = "expenses"
	}
	if f == "" {
		f = FormatCSV
	}
	return fmt.Sprintf("%s-%s.%s", name, month, f)
}

// Write renders list in format f.
func Write(w io.Writer, f Format, list []core.Transaction) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, list)
	case FormatCSV, "":
		return WriteCSV(w, list)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes one line per transaction under Header. The description is
// always quoted; other fields are quoted only when they need it. Lines are
// separated by "\n" with no trailing newline.
func WriteCSV(w io.Writer, list []core.Transaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range list {
		fields := []string{
			field(t.Date.String()),
			field(t.Category),
			t.Amount.Decimal().String(),
			quote(t.Description),
			field(string(t.Account())),
		}
		if _, err := bw.WriteString("\n" + strings.Join(fields, ",")); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

// WriteXLSX writes a single-sheet workbook with the same columns as the CSV.
// Amounts are numeric cells.
func WriteXLSX(w io.Writer, list []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, t := range list {
		row := i + 2
		amount, _ := t.Amount.Decimal().Float64()
		values := []any{t.Date.String(), t.Category, amount, t.Description, string(t.Account())}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
