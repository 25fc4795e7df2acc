// Package file implements normalize.Loader drivers over local documents:
// CSV, Excel, Word tables, and a best-effort PDF row extraction. Each
// driver produces a normalize.Table directly rather than flattened text.
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

// Loader dispatches to a CSV, XLSX, DOCX, or PDF reader based on
// entity.Type. The DataSourceConfig option "path" names the file to read.
type Loader struct{}

// New returns a file-backed loader.
func New() *Loader {
	return &Loader{}
}

// Load implements normalize.Loader.
func (l *Loader) Load(_ context.Context, entity *normalize.EntityConfig, source normalize.DataSourceConfig) (*normalize.Table, error) {
	path, _ := source.Options["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("entity %q: data source %q missing string option \"path\"", entity.Name, source.Driver)
	}

	switch entity.Type {
	case "csv":
		return loadCSV(path)
	case "xlsx":
		return loadXLSX(path, source.Options)
	case "docx":
		return loadDOCX(path)
	case "pdf":
		return loadPDF(path)
	default:
		return nil, fmt.Errorf("entity %q: file loader does not support type %q", entity.Name, entity.Type)
	}
}

func loadCSV(path string) (*normalize.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv %q: %w", path, err)
	}
	return tableFromRecords(records), nil
}

func loadXLSX(path string, options map[string]any) (*normalize.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx %q: %w", path, err)
	}
	defer f.Close()

	sheet, _ := options["sheet"].(string)
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx %q: no sheets found", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %q: %w", sheet, path, err)
	}
	return tableFromRecords(rows), nil
}

// loadDOCX turns every non-blank line of the document's content into a row,
// the first such line being the header; it does not pick out a particular
// table. docx tables in the
// underlying library come back as tab-separated lines of cell text once
// rendered through Editable().GetContent(); this driver splits on tabs
// since the docx library itself exposes no structured table API.
func loadDOCX(path string) (*normalize.Table, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %q: %w", path, err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	var records [][]string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, strings.Split(line, "\t"))
	}
	return tableFromRecords(records), nil
}

// loadPDF is a best-effort text-row extraction: each line of extracted text
// becomes one row, split on runs of whitespace. PDFs have no native notion
// of tabular columns, so this heuristic only suits documents the project
// author already knows render as simple whitespace-aligned tables.
func loadPDF(path string) (*normalize.Table, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %q: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	totalPages := r.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf %q page %d: %w", path, i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	var records [][]string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, strings.Fields(line))
	}
	return tableFromRecords(records), nil
}

func tableFromRecords(records [][]string) *normalize.Table {
	if len(records) == 0 {
		return normalize.NewTable(nil)
	}
	header := records[0]
	table := normalize.NewTable(header)
	for _, rec := range records[1:] {
		row := make(normalize.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = nil
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
