package quote

import (
	"presup/internal"
	"presup/internal/util"
)

// TierConfig carries the pricing knobs injected from configuration.
type TierConfig struct {
	EmbroideryRateCm2 float64
	BasicMarkMult     float64
	MediumMarkMult    float64
	PremiumMarkMult   float64
}

type TierSet struct {
	Basic   internal.TierDetail
	Medium  internal.TierDetail
	Premium internal.TierDetail
}

// Fallback markups applied when a tier ends up with no products of its own.
const (
	mediumAvgFallbackMult  = 1.3
	premiumAvgFallbackMult = 1.4
)

// BuildTiers partitions a score-sorted candidate list into the three pricing
// bands and computes their economics. Candidates must already be truncated to
// the bounded top-N. Monetary values are rounded only here, at presentation;
// everything upstream keeps full precision.
func BuildTiers(candidates []internal.Product, req internal.ParsedRequest, techniques []internal.MarkingTechnique, cfg TierConfig) TierSet {
	n := len(candidates)
	if n == 0 {
		return TierSet{}
	}

	qty := req.Cantidad
	if qty < 1 {
		qty = 1
	}

	tierSize := n / 3
	if tierSize < 1 {
		tierSize = 1
	}

	basic := candidates[:minInt(tierSize, n)]

	medium := candidates[minInt(tierSize, n):minInt(2*tierSize, n)]
	if len(medium) == 0 {
		medium = candidates[minInt(1, n):minInt(6, n)]
	}

	var premium []internal.Product
	if n < 2*tierSize {
		premium = candidates[:minInt(3, n)]
	} else {
		premium = candidates[n-tierSize:]
	}

	basicAvg := avgPrice(basic, 0)
	mediumAvg := avgPrice(medium, basicAvg*mediumAvgFallbackMult)
	premiumAvg := avgPrice(premium, mediumAvg*premiumAvgFallbackMult)

	markBase := markingUnitCost(req, techniques, cfg)

	return TierSet{
		Basic:   tierDetail(basic, basicAvg, markBase*cfg.BasicMarkMult, qty, "Opción básica: los productos más ajustados en precio"),
		Medium:  tierDetail(medium, mediumAvg, markBase*cfg.MediumMarkMult, qty, "Opción media: equilibrio entre precio y calidad"),
		Premium: tierDetail(premium, premiumAvg, markBase*cfg.PremiumMarkMult, qty, "Opción premium: los productos mejor valorados"),
	}
}

// markingUnitCost picks the per-unit marking model. Embroidery with a known
// print area uses the area-based rate; every other technique sums the
// explicitly requested techniques' unit costs.
func markingUnitCost(req internal.ParsedRequest, techniques []internal.MarkingTechnique, cfg TierConfig) float64 {
	if req.Tecnica == "bordado" && req.AreaCm2 > 0 {
		return embroideryUnitCost(cfg.EmbroideryRateCm2, req.AreaCm2, req.Cobertura)
	}

	total := 0.0
	for _, t := range techniques {
		total += t.CostPerUnit
	}
	return total
}

func embroideryUnitCost(rate, areaCm2 float64, coverage string) float64 {
	coverageMult := 1.0
	switch coverage {
	case "lleno":
		coverageMult = 1.2
	case "contorno":
		coverageMult = 0.8
	}

	// Small areas carry setup overhead, very large ones get a volume break.
	bandMult := 1.0
	switch {
	case areaCm2 <= 15:
		bandMult = 1.3
	case areaCm2 <= 35:
		bandMult = 1.1
	case areaCm2 >= 50:
		bandMult = 0.9
	}

	return rate * areaCm2 * coverageMult * bandMult
}

func tierDetail(products []internal.Product, avg, markingPerUnit float64, qty int, description string) internal.TierDetail {
	unit := avg + markingPerUnit

	sampled := products
	if len(sampled) > 3 {
		sampled = sampled[:3]
	}
	sample := make([]internal.TierProduct, 0, len(sampled))
	for _, p := range sampled {
		sample = append(sample, internal.TierProduct{Name: p.Name, BasePrice: util.Round2(p.BasePrice)})
	}

	return internal.TierDetail{
		Products:       sample,
		AvgUnitPrice:   util.Round2(avg),
		MarkingPerUnit: util.Round2(markingPerUnit),
		UnitPrice:      util.Round2(unit),
		Total:          util.Round2(unit * float64(qty)),
		Description:    description,
	}
}

func avgPrice(products []internal.Product, fallback float64) float64 {
	if len(products) == 0 {
		return fallback
	}
	total := 0.0
	for _, p := range products {
		total += p.BasePrice
	}
	return total / float64(len(products))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
