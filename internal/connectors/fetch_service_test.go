package connectors

import (
	"os"
	"path/filepath"
	"testing"

	"presup/internal"
	"presup/internal/storage"
)

type fakeConnector struct {
	messages []internal.InboundMessage
}

func (f *fakeConnector) FetchInbox(label string, max int) ([]internal.InboundMessage, error) {
	if max < len(f.messages) {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func TestFetchAndStore(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	raw := []byte("From: proveedor@example.com\r\nSubject: Catalogo\r\n\r\nhola")
	conn := &fakeConnector{messages: []internal.InboundMessage{
		{Provider: "imap", MessageID: "<m1@example.com>", Subject: "Catalogo", From: "proveedor@example.com", Raw: raw},
		{Provider: "imap", MessageID: "<m2@example.com>", Subject: "Tarifa", From: "proveedor@example.com", Raw: append(raw, '!')},
	}}

	svc := NewFetchService(db, filepath.Join(dir, "raw"), conn)
	result, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Fetched != 2 || result.Stored != 2 {
		t.Fatalf("result=%+v", result)
	}

	row, err := db.GetEmailByProviderMessageID("imap", "<m1@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if row == nil || row.Status != "fetched" {
		t.Fatalf("row=%+v", row)
	}
	if _, err := os.Stat(row.RawRef); err != nil {
		t.Fatalf("raw file missing: %v", err)
	}

	// Fetching the same messages again must not create duplicates.
	again, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if again.Stored != 0 || again.Duplicates != 2 {
		t.Fatalf("result=%+v", again)
	}
	pending, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending=%d", len(pending))
	}
}

func TestFetchAndStoreKeepsProcessedStatus(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	raw := []byte("From: proveedor@example.com\r\nSubject: Catalogo\r\n\r\nhola")
	conn := &fakeConnector{messages: []internal.InboundMessage{
		{Provider: "imap", MessageID: "<m1@example.com>", Subject: "Catalogo", From: "proveedor@example.com", Raw: raw},
	}}

	svc := NewFetchService(db, filepath.Join(dir, "raw"), conn)
	if _, err := svc.FetchAndStore("INBOX", 10); err != nil {
		t.Fatal(err)
	}
	row, err := db.GetEmailByProviderMessageID("imap", "<m1@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateEmailStatus(row.ID, "processed"); err != nil {
		t.Fatal(err)
	}

	// The provider redelivers the processed message.
	result, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stored != 0 || result.Duplicates != 1 {
		t.Fatalf("result=%+v", result)
	}
	row, err = db.GetEmailByProviderMessageID("imap", "<m1@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != "processed" {
		t.Fatalf("status=%q", row.Status)
	}
}

func TestFetchAndStoreSkipsEmptyMessages(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	conn := &fakeConnector{messages: []internal.InboundMessage{
		{Provider: "imap", MessageID: "", Raw: []byte("sin id")},
		{Provider: "imap", MessageID: "<empty@example.com>"},
	}}

	svc := NewFetchService(db, filepath.Join(dir, "raw"), conn)
	result, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Fetched != 2 || result.Stored != 0 {
		t.Fatalf("result=%+v", result)
	}
}
