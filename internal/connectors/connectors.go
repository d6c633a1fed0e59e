package connectors

import "presup/internal"

// MailConnector fetches unseen messages from a supplier inbox.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.InboundMessage, error)
}
