package catalog

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Canonical fields a supplier column can resolve to. Synonym lists are
// priority-ordered: the first synonym present among the observed headers wins.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPriceLt500  = "price_lt500"
	FieldPriceGe500  = "price_ge500"
	FieldPriceGe2000 = "price_ge2000"
	FieldPriceGe5000 = "price_ge5000"
	FieldBasePrice   = "base_price"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldWidth       = "width"
	FieldHeight      = "height"
	FieldDepth       = "depth"
	FieldWeight      = "weight"
	FieldTechnique   = "technique"
	FieldMaxArea     = "max_area"
	FieldImage       = "image"
	FieldReference   = "reference"
	FieldSpecs       = "specs"
)

// volumeTierFields is the declared extraction order: the first non-zero tier
// becomes the base price.
var volumeTierFields = []string{FieldPriceLt500, FieldPriceGe500, FieldPriceGe2000, FieldPriceGe5000}

var columnSynonyms = map[string][]string{
	FieldName:        {"nombre", "name", "producto", "articulo", "artículo", "item", "descripción_corta", "descripcion_corta", "title"},
	FieldDescription: {"descripcion", "descripción", "description", "desc", "detalle", "detalles"},
	FieldPriceLt500:  {"precio menos 500", "precio hasta 500", "precio <500", "precio 500", "price <500"},
	FieldPriceGe500:  {"precio 500+", "precio desde 500", "precio >500", "price 500+"},
	FieldPriceGe2000: {"precio 2000", "precio 2000+", "precio desde 2000", "price 2000+"},
	FieldPriceGe5000: {"precio 5000", "precio 5000+", "precio desde 5000", "price 5000+"},
	FieldBasePrice:   {"precio confidencial", "precio base", "precio neto", "precio", "price", "coste", "cost", "pvp", "tarifa", "importe", "valor"},
	FieldCategory:    {"categoria", "categoría", "category", "tipo", "clase", "familia", "grupo"},
	FieldSubcategory: {"subcategoria", "subcategoría", "subcategory", "subtipo", "subfamilia", "subgrupo"},
	FieldWidth:       {"ancho", "ancho cm", "width"},
	FieldHeight:      {"alto", "altura", "alto cm", "height"},
	FieldDepth:       {"profundidad", "fondo", "depth"},
	FieldWeight:      {"peso", "peso g", "gramos", "weight"},
	FieldTechnique:   {"tecnica de marcaje", "técnica de marcaje", "tecnica", "técnica", "marcaje", "impresion", "impresión", "printing"},
	FieldMaxArea:     {"area maxima", "área máxima", "area de marcaje", "área de marcaje", "superficie maxima", "max print area"},
	FieldImage:       {"imagen", "image", "foto", "url imagen", "imagen url", "image url", "picture"},
	FieldReference:   {"referencia", "ref", "codigo", "código", "sku", "reference"},
	FieldSpecs:       {"caracteristicas", "características", "specs", "specifications", "propiedades", "atributos"},
}

// ResolveColumn maps a canonical field onto one of the observed headers.
// Headers must already be lowercased and trimmed; matching is exact, not
// fuzzy. The second return is false when nothing matched.
func ResolveColumn(headers []string, field string) (string, bool) {
	observed := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		observed[h] = struct{}{}
	}
	for _, synonym := range columnSynonyms[field] {
		if _, ok := observed[synonym]; ok {
			return synonym, true
		}
	}
	return "", false
}

// ColumnReport is returned with every ingestion so callers can see how the
// supplier's schema was interpreted.
type ColumnReport struct {
	Found  []string          `json:"columns_found"`
	Mapped map[string]string `json:"columns_mapped"`
}

// priceCandidateMax bounds what a plausible unit price column can hold.
const priceCandidateMax = 10000

// DetectPriceColumn scans every column of a frame for the first one whose
// non-missing values are all numeric, fall inside [0, 10000] and actually
// vary (min < max). Used only when no recognized price column exists.
func DetectPriceColumn(df dataframe.DataFrame, skip map[string]bool) (string, bool) {
	for _, name := range df.Names() {
		if skip[name] {
			continue
		}
		col := df.Col(name)
		if col.Type() != series.Float && col.Type() != series.Int {
			continue
		}

		vals := nonMissingFloats(col)
		if len(vals) == 0 {
			continue
		}

		min, max := vals[0], vals[0]
		ok := true
		for _, v := range vals {
			if v < 0 || v > priceCandidateMax {
				ok = false
				break
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if ok && min < max {
			return name, true
		}
	}
	return "", false
}

func nonMissingFloats(col series.Series) []float64 {
	out := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() {
			continue
		}
		v := el.Float()
		if v != v { // NaN
			continue
		}
		out = append(out, v)
	}
	return out
}

// frameFromRecords builds a typed gota frame from raw string records so the
// numeric heuristics can look at column types the way pandas would.
func frameFromRecords(records [][]string) (dataframe.DataFrame, bool) {
	if len(records) < 2 {
		return dataframe.DataFrame{}, false
	}
	df := dataframe.LoadRecords(
		records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, false
	}
	return df, true
}
