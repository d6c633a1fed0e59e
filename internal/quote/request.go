package quote

import (
	"regexp"
	"strconv"
	"strings"

	"presup/internal"
	"presup/internal/util"
)

// synonymSet maps request wording onto a canonical value. Sets are checked in
// declaration order; the first stem found in the text wins.
type synonymSet struct {
	canonical string
	stems     []string
}

var categorySynonyms = []synonymSet{
	{"camiseta", []string{"camiseta", "t-shirt", "tshirt", "playera"}},
	{"polo", []string{"polo"}},
	{"sudadera", []string{"sudadera", "hoodie"}},
	{"gorra", []string{"gorra", "gorro"}},
	{"bolsa", []string{"bolsa", "tote"}},
	{"mochila", []string{"mochila", "backpack"}},
	{"boligrafo", []string{"boligrafo", "boli "}},
	{"taza", []string{"taza", "mug"}},
	{"botella", []string{"botella", "bidon"}},
	{"libreta", []string{"libreta", "cuaderno", "notebook"}},
	{"llavero", []string{"llavero", "keychain"}},
	{"paraguas", []string{"paraguas"}},
}

var qualitySynonyms = []synonymSet{
	{"alta", []string{"premium", "alta calidad", "calidad alta", "lujo", "superior", "high"}},
	{"baja", []string{"barat", "economic", "basic", "sencill", "low"}},
	{"media", []string{"calidad media", "estandar", "standard", "intermedi", "medium", "normal"}},
}

var techniqueSynonyms = []synonymSet{
	{"bordado", []string{"bordad", "embroider"}},
	{"serigrafia", []string{"serigraf", "screen print"}},
	{"transfer", []string{"transfer"}},
	{"sublimacion", []string{"sublimac", "sublimat"}},
	{"dtf", []string{"dtf"}},
	{"laser", []string{"laser", "grabado"}},
}

var coverageSynonyms = []synonymSet{
	{"lleno", []string{"lleno", "solido", "filled"}},
	{"contorno", []string{"contorno", "outline", "perfil"}},
}

var positionSynonyms = []synonymSet{
	{"pecho", []string{"pecho", "chest"}},
	{"espalda", []string{"espalda", "trasera"}},
	{"manga", []string{"manga", "sleeve"}},
	{"lateral", []string{"lateral", "costado"}},
}

// Dimension patterns are tried in order; the first match wins. A WxH pair
// yields both the raw dimension string and the area, a bare area mention
// yields only the area.
var dimensionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[x×]\s*(\d+(?:[.,]\d+)?)\s*cm`),
	regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*por\s*(\d+(?:[.,]\d+)?)\s*(?:cm)?`),
	regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[x×]\s*(\d+(?:[.,]\d+)?)`),
}

var areaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`area\s+de\s+(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`superficie\s+(?:de\s+)?(\d+(?:[.,]\d+)?)`),
}

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`hasta\s+(\d+(?:[.,]\d+)?)\s*€`),
	regexp.MustCompile(`maximo\s+(\d+(?:[.,]\d+)?)\s*(?:€|euros)`),
	regexp.MustCompile(`budget\s+(?:de\s+)?(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`presupuesto\s+(?:de\s+)?(\d+(?:[.,]\d+)?)`),
}

// ParseRequest converts a free-text client request into a structured intent.
// Pure and deterministic; accents are folded before matching so "área" and
// "area" behave the same.
func ParseRequest(freeText string, cantidad int) internal.ParsedRequest {
	text := util.Fold(strings.ToLower(freeText))

	parsed := internal.ParsedRequest{
		Categoria: "general",
		Cantidad:  cantidad,
	}

	if v, ok := matchSynonym(text, categorySynonyms); ok {
		parsed.Categoria = v
	}
	if v, ok := matchSynonym(text, qualitySynonyms); ok {
		parsed.Calidad = v
	}
	if v, ok := matchSynonym(text, techniqueSynonyms); ok {
		parsed.Tecnica = v
	}
	if v, ok := matchSynonym(text, coverageSynonyms); ok {
		parsed.Cobertura = v
	}
	if v, ok := matchSynonym(text, positionSynonyms); ok {
		parsed.Posicion = v
	}

	parsed.Dimensiones, parsed.AreaCm2 = matchDimensions(text)
	parsed.PresupuestoMax = matchBudget(text)

	return parsed
}

func matchSynonym(text string, sets []synonymSet) (string, bool) {
	for _, set := range sets {
		for _, stem := range set.stems {
			if strings.Contains(text, stem) {
				return set.canonical, true
			}
		}
	}
	return "", false
}

func matchDimensions(text string) (string, float64) {
	for _, re := range dimensionPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		w := parseNumber(m[1])
		h := parseNumber(m[2])
		if w <= 0 || h <= 0 {
			continue
		}
		return m[1] + "x" + m[2] + "cm", w * h
	}

	for _, re := range areaPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if area := parseNumber(m[1]); area > 0 {
			return "", area
		}
	}

	return "", 0
}

func matchBudget(text string) float64 {
	for _, re := range budgetPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := parseNumber(m[1]); v > 0 {
			return v
		}
	}
	return 0
}

func parseNumber(token string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
