package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"presup/internal"
	"presup/internal/storage"
	"presup/internal/util"
)

// Ingestor normalizes supplier catalog files into products. The store handle
// is injected; nothing here reaches for globals.
type Ingestor struct {
	db *storage.DB
}

func NewIngestor(db *storage.DB) *Ingestor {
	return &Ingestor{db: db}
}

type Result struct {
	Products  []internal.Product
	Report    ColumnReport
	RowErrors []internal.RowError
	Message   string
}

// ErrorStrings renders row failures in the "Row {n}: {reason}" form surfaced
// to callers.
func (r Result) ErrorStrings() []string {
	out := make([]string, 0, len(r.RowErrors))
	for _, e := range r.RowErrors {
		out = append(out, fmt.Sprintf("Row %d: %s", e.Row, e.Reason))
	}
	return out
}

// Ingest extracts, then batch-inserts whatever rows survived. Partial success
// still inserts and reports both counts together.
func (ing *Ingestor) Ingest(ownerID, filename string, data []byte) (Result, error) {
	result, err := ing.Extract(ownerID, filename, data)
	if err != nil {
		return Result{}, err
	}

	if len(result.Products) > 0 {
		if err := ing.db.InsertProducts(result.Products); err != nil {
			return Result{}, fmt.Errorf("could not store products: %w", err)
		}
	}

	result.Message = buildResultMessage(len(result.Products), result.ErrorStrings())
	return result, nil
}

// Extract is the pure half: file bytes in, products and per-row errors out.
// Only whole-file structural problems return a non-nil error.
func (ing *Ingestor) Extract(ownerID, filename string, data []byte) (Result, error) {
	table, err := ReadTable(filename, data)
	if err != nil {
		return Result{}, err
	}

	zap.S().Infow("catalog file parsed", "file", filename, "columns", table.Headers, "rows", len(table.Rows))

	mapped := map[string]string{}
	colIndex := map[string]int{}
	for i, h := range table.Headers {
		if _, seen := colIndex[h]; !seen {
			colIndex[h] = i
		}
	}

	fields := []string{
		FieldName, FieldDescription,
		FieldPriceLt500, FieldPriceGe500, FieldPriceGe2000, FieldPriceGe5000,
		FieldBasePrice, FieldCategory, FieldSubcategory,
		FieldWidth, FieldHeight, FieldDepth, FieldWeight,
		FieldTechnique, FieldMaxArea, FieldImage, FieldReference, FieldSpecs,
	}
	consumed := map[string]bool{}
	for _, field := range fields {
		if header, ok := ResolveColumn(table.Headers, field); ok {
			mapped[field] = header
			consumed[header] = true
		}
	}

	// No recognized price column at all: fall back to scanning for a numeric
	// column that looks like unit prices.
	heuristicPriceCol := ""
	if !hasPriceColumn(mapped) {
		if df, ok := frameFromRecords(table.records()); ok {
			skip := map[string]bool{}
			for header := range consumed {
				skip[header] = true
			}
			if name, found := DetectPriceColumn(df, skip); found {
				heuristicPriceCol = name
				zap.S().Infow("price column detected heuristically", "file", filename, "column", name)
			}
		}
	}

	cell := func(row []string, field string) string {
		header, ok := mapped[field]
		if !ok {
			return ""
		}
		idx := colIndex[header]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	report := ColumnReport{Found: table.Headers, Mapped: mapped}
	var products []internal.Product
	var rowErrors []internal.RowError

	for i, row := range table.Rows {
		// 1-indexed data rows plus the header row.
		rowNo := i + 2
		product, rowErr := ing.extractRow(ownerID, row, cell, table.Headers, colIndex, consumed, heuristicPriceCol)
		if rowErr != nil {
			rowErrors = append(rowErrors, internal.RowError{Row: rowNo, Reason: rowErr.Error()})
			continue
		}
		products = append(products, product)
	}

	return Result{Products: products, Report: report, RowErrors: rowErrors}, nil
}

func (ing *Ingestor) extractRow(
	ownerID string,
	row []string,
	cell func([]string, string) string,
	headers []string,
	colIndex map[string]int,
	consumed map[string]bool,
	heuristicPriceCol string,
) (internal.Product, error) {
	chars := internal.Characteristics{}

	name := cell(row, FieldName)
	if name == "" {
		name = "Sin nombre"
	}

	// Volume tiers in declared order; the first non-zero one is the base
	// price.
	tierKeys := map[string]string{
		FieldPriceLt500:  "menos_500",
		FieldPriceGe500:  "desde_500",
		FieldPriceGe2000: "desde_2000",
		FieldPriceGe5000: "desde_5000",
	}
	basePrice := 0.0
	volumen := map[string]internal.CharValue{}
	for _, tier := range volumeTierFields {
		price := util.ParsePrice(cell(row, tier))
		if price > 0 {
			volumen[tierKeys[tier]] = internal.NumberChar(price)
			if basePrice == 0 {
				basePrice = price
			}
		}
	}
	if len(volumen) > 0 {
		chars["precios_volumen"] = internal.MapChar(volumen)
	}
	if basePrice == 0 {
		basePrice = util.ParsePrice(cell(row, FieldBasePrice))
	}
	if basePrice == 0 && heuristicPriceCol != "" {
		if idx, ok := colIndex[heuristicPriceCol]; ok && idx < len(row) {
			basePrice = util.ParsePrice(row[idx])
		}
	}

	category := cell(row, FieldCategory)
	if category == "" {
		category = "General"
	}
	if sub := cell(row, FieldSubcategory); sub != "" {
		chars["subcategoria"] = internal.StringChar(sub)
	}

	for field, key := range map[string]string{
		FieldWidth:     "ancho",
		FieldHeight:    "alto",
		FieldDepth:     "profundidad",
		FieldWeight:    "peso",
		FieldTechnique: "tecnica_marcaje",
		FieldMaxArea:   "area_maxima",
		FieldReference: "referencia",
	} {
		if v := cell(row, field); v != "" {
			chars[key] = internal.StringChar(v)
		}
	}

	if specs := cell(row, FieldSpecs); specs != "" {
		if err := mergeSpecs(chars, specs); err != nil {
			return internal.Product{}, err
		}
	}

	// Everything the mapper did not consume is preserved verbatim.
	for i, header := range headers {
		if consumed[header] || header == heuristicPriceCol || colIndex[header] != i {
			continue
		}
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			chars[header] = internal.StringChar(strings.TrimSpace(row[i]))
		}
	}

	var imageURL *string
	if img := cell(row, FieldImage); strings.HasPrefix(img, "http") {
		imageURL = util.StringPtr(img)
	}

	return internal.Product{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     cell(row, FieldDescription),
		BasePrice:       basePrice,
		Category:        category,
		Characteristics: chars,
		ImageURL:        imageURL,
		OwnerID:         ownerID,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// mergeSpecs folds a supplier characteristics cell in. JSON-looking cells must
// parse; anything else is kept as raw text.
func mergeSpecs(chars internal.Characteristics, specs string) error {
	trimmed := strings.TrimSpace(specs)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return fmt.Errorf("invalid characteristics JSON: %v", err)
		}
		if obj, ok := decoded.(map[string]any); ok {
			for k, v := range obj {
				chars[k] = internal.CharFromAny(v)
			}
			return nil
		}
		chars["caracteristicas"] = internal.CharFromAny(decoded)
		return nil
	}
	chars["caracteristicas"] = internal.StringChar(trimmed)
	return nil
}

func hasPriceColumn(mapped map[string]string) bool {
	if _, ok := mapped[FieldBasePrice]; ok {
		return true
	}
	for _, tier := range volumeTierFields {
		if _, ok := mapped[tier]; ok {
			return true
		}
	}
	return false
}

// buildResultMessage mirrors the user-facing upload summary: success count
// first, then up to three row errors and a remainder count.
func buildResultMessage(count int, errs []string) string {
	msg := fmt.Sprintf("Successfully uploaded %d products", count)
	if len(errs) == 0 {
		return msg
	}

	shown := errs
	if len(shown) > 3 {
		shown = shown[:3]
	}
	msg += fmt.Sprintf(". %d errors occurred: %s", len(errs), strings.Join(shown, "; "))
	if len(errs) > 3 {
		msg += fmt.Sprintf(" and %d more errors.", len(errs)-3)
	}
	return msg
}
