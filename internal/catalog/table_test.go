package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestReadTableXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Nombre", "Precio", "Categoria"},
		{"Camiseta básica", 4.5, "camiseta"},
		{"", "", ""},
		{"Taza cerámica", 3.2, "taza"},
	})

	table, err := ReadTable("catalogo.xlsx", blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Headers) != 3 || table.Headers[0] != "nombre" {
		t.Fatalf("headers=%v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
}

func TestReadTableCSVSemicolon(t *testing.T) {
	csv := "Nombre;Precio;Categoria\nBolsa tote;2,10;bolsa\nGorra;3,00;gorra\n"
	table, err := ReadTable("catalogo.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Headers) != 3 {
		t.Fatalf("headers=%v", table.Headers)
	}
	if table.Rows[0][0] != "Bolsa tote" {
		t.Fatalf("row=%v", table.Rows[0])
	}
}

func TestReadTableCSVRaggedRows(t *testing.T) {
	// Second data row is missing a column; the lenient rung keeps it.
	csv := "nombre,precio,categoria\nCamiseta,4.50,camiseta\nTaza,3.20\n"
	table, err := ReadTable("catalogo.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	if table.Rows[1][2] != "" {
		t.Fatalf("expected padded cell, got %q", table.Rows[1][2])
	}
}

func TestReadTableCSVTrailingDelimiters(t *testing.T) {
	// Extra trailing separators widen some rows past the header; the ladder
	// still yields the real cells.
	csv := "nombre,precio\nCamiseta,4.50,\nTaza,3.20,,\n"
	table, err := ReadTable("catalogo.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	if table.Rows[0][0] != "Camiseta" || table.Rows[0][1] != "4.50" {
		t.Fatalf("row=%v", table.Rows[0])
	}
	if table.Rows[1][1] != "3.20" {
		t.Fatalf("row=%v", table.Rows[1])
	}
}

func TestReadTableCSVUnbalancedQuote(t *testing.T) {
	// A bare quote mid-file sinks the strict parse; the lenient rung keeps
	// the row, quote and all.
	csv := "nombre,precio\nCamiseta \"premium,4.50\nTaza,3.20\n"
	table, err := ReadTable("catalogo.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	if table.Rows[0][0] != `Camiseta "premium` {
		t.Fatalf("row=%v", table.Rows[0])
	}
}

func TestReadTableCSVSingleColumn(t *testing.T) {
	// No delimiter anywhere: every rung above the line-split rejects the
	// single-column shape, the split accepts it.
	csv := "nombre\nCamiseta\nTaza\n"
	table, err := ReadTable("lista.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Headers) != 1 || table.Headers[0] != "nombre" {
		t.Fatalf("headers=%v", table.Headers)
	}
	if len(table.Rows) != 2 || table.Rows[1][0] != "Taza" {
		t.Fatalf("rows=%v", table.Rows)
	}
}

func TestParseCSVPerDelimiter(t *testing.T) {
	// The first candidate (comma) yields single-field rows and is rejected;
	// the semicolon wins. The short row is kept and padded.
	data := []byte("nombre;precio\nCamiseta;4,50\nGorra\nTaza;3,20\n")
	records, err := parseCSVPerDelimiter(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("records=%d", len(records))
	}
	if records[0][0] != "nombre" || records[0][1] != "precio" {
		t.Fatalf("header=%v", records[0])
	}
	if records[2][0] != "Gorra" || records[2][1] != "" {
		t.Fatalf("padded row=%v", records[2])
	}
}

func TestParseCSVPerDelimiterNoRows(t *testing.T) {
	if _, err := parseCSVPerDelimiter([]byte("solo una linea\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseCSVSplit(t *testing.T) {
	// Last resort: plain line split on the sniffed delimiter, stray quotes
	// left untouched.
	data := []byte("nombre|precio\nCamiseta \"suave|4,50\nTaza|3,20\n")
	records, err := parseCSVSplit(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d", len(records))
	}
	if records[1][0] != `Camiseta "suave` || records[1][1] != "4,50" {
		t.Fatalf("row=%v", records[1])
	}
}

func TestParseCSVSplitTooShort(t *testing.T) {
	if _, err := parseCSVSplit([]byte("cabecera\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadTableCSVInvalidEncoding(t *testing.T) {
	_, err := ReadTable("catalogo.csv", []byte{0xff, 0xfe, 0x00, 0x41})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "UTF-8") {
		t.Fatalf("err=%v", err)
	}
}

func TestReadTableHTML(t *testing.T) {
	html := `<html><body>
	<table>
	  <tr><th>Nombre</th><th>Precio</th></tr>
	  <tr><td>Llavero metálico</td><td>1,20</td></tr>
	</table>
	</body></html>`

	table, err := ReadTable("catalogo.html", []byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if table.Headers[0] != "nombre" || table.Rows[0][0] != "Llavero metálico" {
		t.Fatalf("table=%+v", table)
	}
}

func TestReadTableEmpty(t *testing.T) {
	blob := mkXLSX([][]any{{"", ""}, {"", ""}})
	_, err := ReadTable("catalogo.xlsx", blob)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("err=%v", err)
	}
}

func TestReadTableHeaderOnly(t *testing.T) {
	_, err := ReadTable("catalogo.csv", []byte("nombre,precio\n"))
	if err == nil || !strings.Contains(err.Error(), "no data rows") {
		t.Fatalf("err=%v", err)
	}
}

func TestReadTableUnsupported(t *testing.T) {
	_, err := ReadTable("catalogo.docx", []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
}
