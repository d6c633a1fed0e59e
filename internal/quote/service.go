package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"presup/internal"
	"presup/internal/config"
	"presup/internal/storage"
)

// ErrNoProducts reports that candidate retrieval came back empty for the
// parsed intent.
var ErrNoProducts = errors.New("no products found")

// Service runs the quote flow end to end: parse, retrieve, score, tier,
// persist. The store handle and config are injected at construction.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Generate creates and stores a quote for a free-text request. The stored
// quote is an immutable historical record; it is never updated afterwards.
func (s *Service) Generate(ownerID, clientName, freeText string, cantidad int, techniqueNames []string) (internal.Quote, error) {
	parsed := ParseRequest(freeText, cantidad)

	category := parsed.Categoria
	if category == "general" {
		category = ""
	}

	candidates, err := s.db.FindProductsByCategory(ownerID, category, s.cfg.CandidateLimit)
	if err != nil {
		return internal.Quote{}, fmt.Errorf("could not search products: %w", err)
	}
	if len(candidates) == 0 {
		if parsed.Tecnica != "" {
			return internal.Quote{}, fmt.Errorf("%w for category %q and technique %q", ErrNoProducts, parsed.Categoria, parsed.Tecnica)
		}
		return internal.Quote{}, fmt.Errorf("%w for category %q", ErrNoProducts, parsed.Categoria)
	}

	techniques, err := s.db.FindTechniquesByNames(ownerID, techniqueNames)
	if err != nil {
		return internal.Quote{}, fmt.Errorf("could not load marking techniques: %w", err)
	}

	ranked := Rank(candidates, parsed)
	if len(ranked) > s.cfg.QuoteTopN {
		ranked = ranked[:s.cfg.QuoteTopN]
	}

	tiers := BuildTiers(ranked, parsed, techniques, TierConfig{
		EmbroideryRateCm2: s.cfg.EmbroideryRateCm2,
		BasicMarkMult:     s.cfg.QuoteBasicMarkMult,
		MediumMarkMult:    s.cfg.QuoteMediumMarkMult,
		PremiumMarkMult:   s.cfg.QuotePremiumMarkMult,
	})

	q := internal.Quote{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Products: []internal.QuoteBreakdown{{
			RequestText: freeText,
			Parsed:      parsed,
			Basic:       tiers.Basic,
			Medium:      tiers.Medium,
			Premium:     tiers.Premium,
		}},
		TotalBasic:        tiers.Basic.Total,
		TotalMedium:       tiers.Medium.Total,
		TotalPremium:      tiers.Premium.Total,
		MarkingTechniques: techniqueNames,
		OwnerID:           ownerID,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.db.InsertQuote(q); err != nil {
		return internal.Quote{}, fmt.Errorf("could not store quote: %w", err)
	}

	zap.S().Infow("quote generated",
		"quote", q.ID,
		"category", parsed.Categoria,
		"candidates", len(candidates),
		"basic", q.TotalBasic,
		"medium", q.TotalMedium,
		"premium", q.TotalPremium,
	)

	return q, nil
}
