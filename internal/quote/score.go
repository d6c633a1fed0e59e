package quote

import (
	"regexp"
	"sort"
	"strings"

	"presup/internal"
	"presup/internal/util"
)

// Factor weights. Each factor contributes at most its weight; a product
// missing the underlying data simply scores zero there.
const (
	weightPrice          = 0.30
	weightQuality        = 0.25
	weightTechnique      = 0.20
	weightStock          = 0.10
	weightLeadTime       = 0.10
	weightSustainability = 0.05

	priceCeiling    = 50.0
	defaultLeadDays = 30.0
)

// qualityOrder fixes tier adjacency: an exact match earns the full weight,
// neighbors earn half.
var qualityOrder = []string{"baja", "media", "alta"}

var leadDaysPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Score rates one product against a parsed intent. The result lives in
// [0, 1] in practice; it never fails on missing characteristics.
func Score(p internal.Product, req internal.ParsedRequest) float64 {
	score := 0.0

	if p.BasePrice >= 0 {
		ratio := 1 - p.BasePrice/priceCeiling
		if ratio < 0 {
			ratio = 0
		}
		score += weightPrice * ratio
	}

	score += weightQuality * qualityFactor(p, req.Calidad)
	score += weightTechnique * techniqueFactor(p, req.Tecnica)
	score += weightStock * stockFactor(p)
	score += weightLeadTime * leadTimeFactor(p)

	if hasSustainability(p) {
		score += weightSustainability
	}

	return score
}

// Rank sorts candidates by descending score. The sort is stable, so ties keep
// their retrieval order.
func Rank(products []internal.Product, req internal.ParsedRequest) []internal.Product {
	type scored struct {
		product internal.Product
		score   float64
	}
	entries := make([]scored, len(products))
	for i, p := range products {
		entries[i] = scored{product: p, score: Score(p, req)}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score > entries[j].score })

	out := make([]internal.Product, len(entries))
	for i, e := range entries {
		out[i] = e.product
	}
	return out
}

func qualityFactor(p internal.Product, requested string) float64 {
	if requested == "" {
		return 0
	}
	product := productQuality(p)
	if product == "" {
		return 0
	}
	ri := qualityIndex(requested)
	pi := qualityIndex(product)
	if ri < 0 || pi < 0 {
		return 0
	}
	switch diff := abs(ri - pi); diff {
	case 0:
		return 1
	case 1:
		return 0.5
	default:
		return 0
	}
}

func qualityIndex(tier string) int {
	for i, t := range qualityOrder {
		if t == tier {
			return i
		}
	}
	return -1
}

func productQuality(p internal.Product) string {
	raw := charString(p, "calidad", "quality")
	if raw == "" {
		return ""
	}
	if v, ok := matchSynonym(util.Fold(strings.ToLower(raw)), qualitySynonyms); ok {
		return v
	}
	return ""
}

func techniqueFactor(p internal.Product, requested string) float64 {
	if requested == "" {
		return 0
	}
	raw := charString(p, "tecnica_marcaje", "tecnica", "marcaje")
	if raw == "" {
		return 0
	}
	if strings.Contains(util.Fold(strings.ToLower(raw)), requested) {
		return 1
	}
	return 0
}

func stockFactor(p internal.Product) float64 {
	v, ok := charValue(p, "stock", "existencias", "disponibilidad")
	if !ok {
		return 0
	}

	if n, isNum := v.AsNumber(); isNum {
		if n > 0 {
			return 1
		}
		return 0
	}

	raw := util.Fold(strings.ToLower(v.AsString()))
	if raw == "" {
		return 0
	}
	if strings.Contains(raw, "bajo") || strings.Contains(raw, "low") {
		return 0.5
	}
	for _, yes := range []string{"si", "yes", "true", "disponible", "available", "in stock"} {
		if strings.Contains(raw, yes) {
			return 1
		}
	}
	return 0
}

func leadTimeFactor(p internal.Product) float64 {
	days := defaultLeadDays
	if v, ok := charValue(p, "plazo_entrega", "plazo", "lead_time", "dias_entrega"); ok {
		if n, isNum := v.AsNumber(); isNum && n > 0 {
			days = n
		} else if m := leadDaysPattern.FindString(v.AsString()); m != "" {
			if n := parseNumber(m); n > 0 {
				days = n
			}
		}
	}

	ratio := 1 - days/defaultLeadDays
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

func hasSustainability(p internal.Product) bool {
	for _, key := range []string{"eco", "sostenible", "sostenibilidad", "reciclado", "sustainability"} {
		if v, ok := p.Characteristics[key]; ok && !v.IsEmpty() {
			return true
		}
	}
	return false
}

func charValue(p internal.Product, keys ...string) (internal.CharValue, bool) {
	for _, key := range keys {
		if v, ok := p.Characteristics[key]; ok && !v.IsEmpty() {
			return v, true
		}
	}
	return internal.CharValue{}, false
}

func charString(p internal.Product, keys ...string) string {
	v, ok := charValue(p, keys...)
	if !ok {
		return ""
	}
	return v.AsString()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
