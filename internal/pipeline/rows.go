package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"vaquero/internal"
	"vaquero/internal/util"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
)

// headerScanRows bounds how far down a sheet the header row may sit.
const headerScanRows = 5

func ParseRows(format string, blob []byte) ([]internal.RawRow, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return parseCSV(blob)
	case FormatXLSX:
		return parseXLSX(blob)
	case FormatHTML:
		return parseHTMLTable(blob)
	default:
		return nil, fmt.Errorf("unsupported source format: %s", format)
	}
}

func parseCSV(blob []byte) ([]internal.RawRow, error) {
	blob = bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(blob))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return RowsFromTable(table), nil
}

func parseXLSX(blob []byte) ([]internal.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return RowsFromTable(table), nil
}

// parseHTMLTable reads the first table of a "publish to web" HTML export.
func parseHTMLTable(blob []byte) ([]internal.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := [][]string{}
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, util.NormalizeSpaces(cell.Text()))
		})
		table = append(table, cells)
	})
	if len(table) == 0 {
		return nil, fmt.Errorf("parse html: no table found")
	}
	return RowsFromTable(table), nil
}

// RowsFromTable keys every data row by the detected header row. Blank rows are
// skipped; LineNo is the 1-based table row.
func RowsFromTable(table [][]string) []internal.RawRow {
	headerIdx := findHeaderRow(table)
	if headerIdx < 0 {
		return nil
	}
	headers := make([]string, len(table[headerIdx]))
	for i, h := range table[headerIdx] {
		headers[i] = internal.HeaderKey(h)
	}

	out := make([]internal.RawRow, 0, len(table)-headerIdx-1)
	for i := headerIdx + 1; i < len(table); i++ {
		row := table[i]
		if isBlankRow(row) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for col, key := range headers {
			if key == "" {
				continue
			}
			if _, seen := cells[key]; seen {
				continue
			}
			if col < len(row) {
				cells[key] = row[col]
			} else {
				cells[key] = ""
			}
		}
		out = append(out, internal.RawRow{LineNo: i + 1, Cells: cells})
	}
	return out
}

func findHeaderRow(table [][]string) int {
	want := internal.HeaderKey(ColBusinessName)
	for i := 0; i < len(table) && i < headerScanRows; i++ {
		for _, cell := range table[i] {
			if internal.HeaderKey(cell) == want {
				return i
			}
		}
	}
	for i, row := range table {
		if !isBlankRow(row) {
			return i
		}
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
