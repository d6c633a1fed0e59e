package catalog

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"presup/internal/util"
)

// Table is the uniform shape every supported file format is reduced to before
// row extraction: normalized headers plus string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable turns raw file bytes into a Table based on the filename
// extension. Failures here are fatal for the whole file and carry a
// remediation hint for the user.
func ReadTable(filename string, data []byte) (Table, error) {
	ext := strings.ToLower(strings.TrimPrefix(fileExt(filename), "."))
	switch ext {
	case "xlsx", "xls":
		return readExcel(data, ext)
	case "csv":
		return readCSV(data)
	case "html", "htm":
		return readHTML(data)
	default:
		return Table{}, fmt.Errorf("unsupported file type %q: expected .xlsx, .xls, .csv or .html", ext)
	}
}

func fileExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}

func readExcel(data []byte, ext string) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		if ext == "xls" {
			return Table{}, fmt.Errorf("could not read legacy .xls file: %v — re-save the file as .xlsx and try again", err)
		}
		return Table{}, fmt.Errorf("could not read Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("could not read sheet %q: %v", sheets[0], err)
	}

	return tableFromRecords(rows)
}

func readHTML(data []byte) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("could not parse HTML: %v", err)
	}

	var records [][]string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
			})
			if len(cells) > 0 {
				records = append(records, cells)
			}
		})
		// Only the first table carries the price list.
		return len(records) == 0
	})

	if len(records) == 0 {
		return Table{}, fmt.Errorf("no table found in HTML file")
	}
	return tableFromRecords(padRecords(records))
}

// tableFromRecords normalizes headers, drops blank rows and validates that
// something usable is left.
func tableFromRecords(records [][]string) (Table, error) {
	cleaned := make([][]string, 0, len(records))
	for _, row := range records {
		if !blankRow(row) {
			cleaned = append(cleaned, row)
		}
	}
	if len(cleaned) == 0 {
		return Table{}, fmt.Errorf("file is empty after removing blank rows")
	}

	headers := make([]string, len(cleaned[0]))
	for i, h := range cleaned[0] {
		headers[i] = util.NormalizeHeader(h)
	}

	rows := make([][]string, 0, len(cleaned)-1)
	for _, row := range cleaned[1:] {
		padded := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				padded[i] = strings.TrimSpace(row[i])
			}
		}
		rows = append(rows, padded)
	}

	if len(rows) == 0 {
		return Table{}, fmt.Errorf("file contains headers but no data rows")
	}

	return Table{Headers: headers, Rows: rows}, nil
}

// records rebuilds the header+rows shape consumed by the gota frame helpers.
func (t Table) records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Headers)
	out = append(out, t.Rows...)
	return out
}

// Frame exposes a typed gota view of the table for numeric column heuristics.
func (t Table) Frame() (dataframe.DataFrame, bool) {
	return frameFromRecords(t.records())
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRecords(records [][]string) [][]string {
	width := 0
	for _, row := range records {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, 0, len(records))
	for _, row := range records {
		padded := make([]string, width)
		copy(padded, row)
		out = append(out, padded)
	}
	return out
}

func validEncoding(data []byte) bool {
	return utf8.Valid(data)
}
