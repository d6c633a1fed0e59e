package quote

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"presup/internal"
)

// ExportQuoteXLSX writes a generated quote's tier breakdown to an xlsx file
// the sales team can forward to the client.
func ExportQuoteXLSX(q internal.Quote, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	set := func(col, row int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set(1, 1, "Cliente")
	set(2, 1, q.ClientName)
	set(1, 2, "Fecha")
	set(2, 2, q.CreatedAt)

	row := 4
	if len(q.Products) > 0 {
		b := q.Products[0]
		set(1, row, "Solicitud")
		set(2, row, b.RequestText)
		row++
		set(1, row, "Cantidad")
		set(2, row, b.Parsed.Cantidad)
		row += 2

		headers := []string{"Opción", "Precio medio ud.", "Marcaje ud.", "Precio ud.", "Total", "Productos"}
		for i, h := range headers {
			set(i+1, row, h)
		}
		row++

		for _, tier := range []struct {
			label  string
			detail internal.TierDetail
		}{
			{"Básica", b.Basic},
			{"Media", b.Medium},
			{"Premium", b.Premium},
		} {
			set(1, row, tier.label)
			set(2, row, tier.detail.AvgUnitPrice)
			set(3, row, tier.detail.MarkingPerUnit)
			set(4, row, tier.detail.UnitPrice)
			set(5, row, tier.detail.Total)
			names := ""
			for i, p := range tier.detail.Products {
				if i > 0 {
					names += ", "
				}
				names += p.Name
			}
			set(6, row, names)
			row++
		}
	}

	row++
	set(1, row, "Total básica")
	set(2, row, q.TotalBasic)
	row++
	set(1, row, "Total media")
	set(2, row, q.TotalMedium)
	row++
	set(1, row, "Total premium")
	set(2, row, q.TotalPremium)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
