package listener

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"presup/internal"
	"presup/internal/catalog"
	"presup/internal/config"
	"presup/internal/storage"
	"presup/internal/tariff"
)

type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

type ProcessResult struct {
	EmailID    int
	Products   int
	Techniques int
	RowErrors  []string
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	email, err := s.db.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	if email == nil {
		return ProcessResult{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return s.ProcessEmail(*email)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedProducts := 0
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(email)
		if err != nil {
			return processedEmails, processedProducts, err
		}
		processedEmails++
		processedProducts += res.Products
	}
	return processedEmails, processedProducts, nil
}

// ProcessEmail walks the stored raw message and routes every attachment it
// recognizes: spreadsheets, CSVs and HTML tables go through catalog ingestion,
// PDFs and tariff-named CSVs through tariff extraction. Messages with no
// usable attachment are marked skipped.
func (s *ProcessingService) ProcessEmail(email internal.MailRow) (ProcessResult, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("read stored message: %w", err)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ProcessResult{}, fmt.Errorf("parse stored message: %w", err)
	}

	result := ProcessResult{EmailID: email.ID}
	handled := 0

	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}

		switch routeAttachment(filename) {
		case routeCatalog:
			ingestor := catalog.NewIngestor(s.db)
			ingestResult, err := ingestor.Ingest(s.cfg.DefaultOwner, filename, att.Content)
			if err != nil {
				zap.S().Warnw("attachment ingest failed", "email_id", email.ID, "attachment", filename, "error", err)
				continue
			}
			handled++
			result.Products += len(ingestResult.Products)
			result.RowErrors = append(result.RowErrors, ingestResult.ErrorStrings()...)
		case routeTariff:
			extractor := tariff.NewExtractor()
			techniques, err := extractor.Extract(s.cfg.DefaultOwner, filename, att.Content)
			if err != nil {
				zap.S().Warnw("attachment tariff extraction failed", "email_id", email.ID, "attachment", filename, "error", err)
				continue
			}
			if len(techniques) > 0 {
				if err := s.db.InsertTechniques(techniques); err != nil {
					return result, fmt.Errorf("could not store marking techniques: %w", err)
				}
			}
			handled++
			result.Techniques += len(techniques)
		}
	}

	status := "processed"
	if handled == 0 {
		status = "skipped"
	}
	if err := s.db.UpdateEmailStatus(email.ID, status); err != nil {
		return result, err
	}

	zap.S().Infow("email processed",
		"email_id", email.ID,
		"from", email.Sender,
		"status", status,
		"products", result.Products,
		"techniques", result.Techniques,
		"row_errors", len(result.RowErrors))

	return result, nil
}

type attachmentRoute int

const (
	routeIgnore attachmentRoute = iota
	routeCatalog
	routeTariff
)

var tariffNameHints = []string{"tarifa", "tariff", "marcaje", "marking", "tecnica", "técnica"}

func routeAttachment(filename string) attachmentRoute {
	lower := strings.ToLower(filename)
	ext := filepath.Ext(lower)

	switch ext {
	case ".pdf":
		return routeTariff
	case ".csv":
		for _, hint := range tariffNameHints {
			if strings.Contains(lower, hint) {
				return routeTariff
			}
		}
		return routeCatalog
	case ".xlsx", ".xls", ".html", ".htm":
		return routeCatalog
	}
	return routeIgnore
}
