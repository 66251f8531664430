package extractor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"
	"movie-extractor/internal/types"
)

// DefaultOutputPath is used when no output path is given
const DefaultOutputPath = "movies_data.csv"

const sheetName = "Sheet1"

// NormalizeOutputPath keeps .xlsx paths and coerces everything else to .csv
func NormalizeOutputPath(path string) string {
	if path == "" {
		return DefaultOutputPath
	}
	if strings.HasSuffix(path, ".xlsx") || strings.HasSuffix(path, ".csv") {
		return path
	}
	return path + ".csv"
}

// WriteRecords writes records to path as a spreadsheet or CSV, chosen by extension
func WriteRecords(path string, records []types.Record) error {
	if filepath.Ext(path) == ".xlsx" {
		return writeXLSX(path, records)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, records); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes the header row followed by one row per record
func WriteCSV(w io.Writer, records []types.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(types.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return fmt.Errorf("failed to write %q: %w", record.Title, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeXLSX(path string, records []types.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	header := append([]string(nil), types.Columns...)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := record.Row()
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write %q: %w", record.Title, err)
		}
	}

	return f.SaveAs(path)
}

// PrintSummary renders the records as a table
func PrintSummary(w io.Writer, records []types.Record) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetTitle("Data Summary")

	header := table.Row{}
	for _, col := range types.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, record := range records {
		row := table.Row{}
		for _, v := range record.Row() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "description", WidthMax: 60},
	})
	t.Render()
}
