package connectors

import (
	"go.uber.org/zap"

	"presup/internal/storage"
)

// FetchService pulls supplier mail from a connector and registers it for
// catalog processing. Providers redeliver: IMAP re-reports unseen mail when
// mark-seen is off and Gmail label queries return already-known messages, so
// mail the pipeline already handled must never be re-queued as pending.
type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched    int
	Stored     int
	Duplicates int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		if msg.MessageID == "" || len(msg.Raw) == 0 {
			zap.S().Debugw("skipping message without id or body",
				"provider", msg.Provider, "from", msg.From)
			continue
		}

		existing, err := s.db.GetEmailByProviderMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return result, err
		}
		if existing != nil && existing.Status != "fetched" {
			// Already went through attachment processing; a redelivery must
			// not reset it to pending.
			result.Duplicates++
			continue
		}

		if _, err := s.store.Store(msg); err != nil {
			return result, err
		}
		if existing != nil {
			result.Duplicates++
		} else {
			result.Stored++
		}
	}

	return result, nil
}
