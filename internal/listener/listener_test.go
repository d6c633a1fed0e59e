package listener

import (
	"context"
	"testing"
	"time"
)

func TestRunReturnsWhenCancelled(t *testing.T) {
	db, cfg := testSetup(t)
	cfg.MailListenerProvider = "imap"
	cfg.MailListenerIntervalSec = 3600

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- NewService(db, cfg).Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestMakeConnectorUnsupportedProvider(t *testing.T) {
	db, cfg := testSetup(t)
	if _, err := NewService(db, cfg).makeConnector("pigeon"); err == nil {
		t.Fatal("expected error")
	}
}
