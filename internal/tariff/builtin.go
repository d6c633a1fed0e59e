package tariff

import (
	"time"

	"github.com/google/uuid"

	"presup/internal"
)

type builtinTechnique struct {
	name        string
	costPerUnit float64
	description string
}

// The standard tariff sheet every season: same techniques, same order. Only
// the per-unit costs change between editions.
var builtinTariff = []builtinTechnique{
	{"Serigrafía 1 color", 0.18, "Serigrafía textil a 1 tinta, hasta A4"},
	{"Serigrafía 2 colores", 0.32, "Serigrafía textil a 2 tintas, hasta A4"},
	{"Serigrafía 3 colores", 0.45, "Serigrafía textil a 3 tintas, hasta A4"},
	{"Serigrafía 4 colores", 0.58, "Serigrafía textil a 4 tintas, hasta A4"},
	{"Serigrafía circular", 0.40, "Serigrafía sobre superficie cilíndrica"},
	{"Tampografía 1 color", 0.12, "Tampografía a 1 tinta, hasta 40 cm²"},
	{"Tampografía 2 colores", 0.22, "Tampografía a 2 tintas, hasta 40 cm²"},
	{"Tampografía 3 colores", 0.30, "Tampografía a 3 tintas, hasta 40 cm²"},
	{"Bordado hasta 5000 puntadas", 0.90, "Bordado pequeño, logos simples"},
	{"Bordado hasta 10000 puntadas", 1.40, "Bordado mediano"},
	{"Bordado hasta 15000 puntadas", 1.95, "Bordado grande, alta densidad"},
	{"Bordado 3D", 2.60, "Bordado con relieve para gorras"},
	{"Transfer serigráfico", 0.55, "Transfer de serigrafía multicolor"},
	{"Transfer digital", 0.75, "Transfer digital fotográfico"},
	{"Transfer metálico", 0.95, "Transfer con acabado metalizado"},
	{"Sublimación parcial", 0.65, "Sublimación de zona sobre poliéster"},
	{"Sublimación total", 1.80, "Sublimación all-over sobre poliéster"},
	{"Sublimación taza", 0.85, "Sublimación sobre taza cerámica"},
	{"DTF textil", 0.70, "Impresión DTF a todo color sobre textil"},
	{"DTF UV", 1.10, "DTF UV para superficies rígidas"},
	{"Láser madera", 0.35, "Grabado láser sobre madera y bambú"},
	{"Láser metal", 0.48, "Grabado láser sobre aluminio y acero"},
	{"Láser vidrio", 0.62, "Grabado láser sobre vidrio"},
	{"Láser cuero", 0.55, "Grabado láser sobre piel y polipiel"},
	{"Impresión digital directa", 0.95, "Impresión UV directa a todo color"},
	{"Impresión digital A3", 1.35, "Impresión UV directa, formato A3"},
	{"Doming", 0.80, "Gota de resina sobre adhesivo impreso"},
	{"Vinilo textil", 0.60, "Corte de vinilo termoadhesivo, 1 color"},
	{"Vinilo impreso", 0.78, "Vinilo impreso y cortado a todo color"},
	{"Etiqueta tejida", 0.42, "Etiqueta tejida cosida o termosellada"},
	{"Gofrado", 0.88, "Grabado en seco sobre piel o papel"},
	{"Termograbado", 0.72, "Grabado por calor sobre polipiel"},
}

func builtinTechniques(ownerID string) []internal.MarkingTechnique {
	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]internal.MarkingTechnique, 0, len(builtinTariff))
	for _, t := range builtinTariff {
		out = append(out, internal.MarkingTechnique{
			ID:          uuid.NewString(),
			Name:        t.name,
			CostPerUnit: t.costPerUnit,
			Description: t.description,
			OwnerID:     ownerID,
			CreatedAt:   now,
		})
	}
	return out
}
