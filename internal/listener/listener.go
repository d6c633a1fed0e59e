package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"presup/internal/config"
	"presup/internal/connectors"
	gmailconnector "presup/internal/connectors/gmail"
	imapconnector "presup/internal/connectors/imap"
	"presup/internal/storage"
)

type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			zap.S().Errorw("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	// Stored mail survives a shutdown here; the next cycle picks it up.
	if ctx.Err() != nil {
		return nil
	}

	processor := NewProcessingService(s.db, s.cfg)
	processedEmails, processedProducts, err := processor.ProcessPending(s.cfg.MailListenerBatch, provider)
	if err != nil {
		return err
	}

	_ = s.db.SetMetadata("listener:last_cycle", time.Now().UTC().Format(time.RFC3339))

	zap.S().Infow("listener cycle done",
		"provider", provider,
		"fetched", fetchResult.Fetched,
		"stored", fetchResult.Stored,
		"duplicates", fetchResult.Duplicates,
		"processed_emails", processedEmails,
		"processed_products", processedProducts)
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
