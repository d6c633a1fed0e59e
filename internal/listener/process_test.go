package listener

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"

	"presup/internal"
	"presup/internal/config"
	"presup/internal/connectors"
	"presup/internal/storage"
)

func testSetup(t *testing.T) (*storage.DB, config.Config) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		RawMailDir:   filepath.Join(dir, "raw"),
		DefaultOwner: "local",
	}
	return db, cfg
}

func rawEmailWithAttachment(filename, contentType string, content []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(content)
	var b strings.Builder
	b.WriteString("From: proveedor@example.com\r\n")
	b.WriteString("To: compras@example.com\r\n")
	b.WriteString("Subject: Nuevo catalogo\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"frontier\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("--frontier\r\n")
	b.WriteString("Content-Type: text/plain\r\n\r\n")
	b.WriteString("Adjunto el fichero.\r\n")
	b.WriteString("--frontier\r\n")
	b.WriteString("Content-Type: " + contentType + "; name=\"" + filename + "\"\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + filename + "\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(encoded + "\r\n")
	b.WriteString("--frontier--\r\n")
	return []byte(b.String())
}

func storeEmail(t *testing.T, db *storage.DB, cfg config.Config, messageID string, raw []byte) internal.MailRow {
	t.Helper()
	store := connectors.NewMailStoreService(db, cfg.RawMailDir)
	row, err := store.Store(internal.InboundMessage{
		Provider:  "imap",
		MessageID: messageID,
		Subject:   "Nuevo catalogo",
		From:      "proveedor@example.com",
		Raw:       raw,
	})
	if err != nil {
		t.Fatal(err)
	}
	return row
}

func TestProcessEmailCatalogAttachment(t *testing.T) {
	db, cfg := testSetup(t)

	csv := "Nombre,Precio,Categoria\nCamiseta,\"4,50\",camiseta\nTaza,\"3,20\",taza\n"
	raw := rawEmailWithAttachment("catalogo.csv", "text/csv", []byte(csv))
	row := storeEmail(t, db, cfg, "<cat@example.com>", raw)

	svc := NewProcessingService(db, cfg)
	result, err := svc.ProcessEmail(row)
	if err != nil {
		t.Fatal(err)
	}
	if result.Products != 2 {
		t.Fatalf("products=%d", result.Products)
	}

	stored, err := db.ListProducts("local")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored=%d", len(stored))
	}

	updated, err := db.GetEmailByProviderMessageID("imap", "<cat@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "processed" {
		t.Fatalf("status=%q", updated.Status)
	}
}

func TestProcessEmailTariffAttachment(t *testing.T) {
	db, cfg := testSetup(t)

	csv := "Tecnica,Precio\nSerigrafía,\"0,18\"\nBordado,\"0,90\"\n"
	raw := rawEmailWithAttachment("tarifa_marcaje.csv", "text/csv", []byte(csv))
	row := storeEmail(t, db, cfg, "<tarifa@example.com>", raw)

	svc := NewProcessingService(db, cfg)
	result, err := svc.ProcessEmail(row)
	if err != nil {
		t.Fatal(err)
	}
	if result.Techniques != 2 {
		t.Fatalf("techniques=%d", result.Techniques)
	}

	stored, err := db.ListTechniques("local")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored=%d", len(stored))
	}
}

func TestProcessEmailNoAttachments(t *testing.T) {
	db, cfg := testSetup(t)

	raw := []byte("From: alguien@example.com\r\nSubject: Consulta\r\n\r\nHola, ¿me pasáis precios?\r\n")
	row := storeEmail(t, db, cfg, "<plain@example.com>", raw)

	svc := NewProcessingService(db, cfg)
	result, err := svc.ProcessEmail(row)
	if err != nil {
		t.Fatal(err)
	}
	if result.Products != 0 || result.Techniques != 0 {
		t.Fatalf("result=%+v", result)
	}

	updated, err := db.GetEmailByProviderMessageID("imap", "<plain@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "skipped" {
		t.Fatalf("status=%q", updated.Status)
	}
}

func TestProcessPendingFiltersProvider(t *testing.T) {
	db, cfg := testSetup(t)

	csv := "Nombre,Precio\nCamiseta,\"4,50\"\nTaza,\"3,20\"\n"
	raw := rawEmailWithAttachment("catalogo.csv", "text/csv", []byte(csv))
	storeEmail(t, db, cfg, "<p1@example.com>", raw)

	svc := NewProcessingService(db, cfg)
	emails, products, err := svc.ProcessPending(10, "gmail")
	if err != nil {
		t.Fatal(err)
	}
	if emails != 0 || products != 0 {
		t.Fatalf("emails=%d products=%d", emails, products)
	}

	emails, products, err = svc.ProcessPending(10, "imap")
	if err != nil {
		t.Fatal(err)
	}
	if emails != 1 || products != 2 {
		t.Fatalf("emails=%d products=%d", emails, products)
	}
}

func TestRouteAttachment(t *testing.T) {
	cases := []struct {
		filename string
		want     attachmentRoute
	}{
		{filename: "catalogo.xlsx", want: routeCatalog},
		{filename: "precios.csv", want: routeCatalog},
		{filename: "tarifa_2026.csv", want: routeTariff},
		{filename: "Tarifa Marcaje.PDF", want: routeTariff},
		{filename: "lista.html", want: routeCatalog},
		{filename: "firma.png", want: routeIgnore},
	}

	for _, tc := range cases {
		if got := routeAttachment(tc.filename); got != tc.want {
			t.Fatalf("routeAttachment(%q) = %d, want %d", tc.filename, got, tc.want)
		}
	}
}
