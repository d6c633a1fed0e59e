package storage

import (
	"path/filepath"
	"testing"

	"presup/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProductsCategorySearch(t *testing.T) {
	db := openTestDB(t)

	products := []internal.Product{
		{ID: "1", Name: "Camiseta básica", Category: "Camisetas", OwnerID: "a", BasePrice: 3,
			Characteristics: internal.Characteristics{"calidad": internal.StringChar("media")}, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: "2", Name: "Camiseta premium", Category: "camiseta técnica", OwnerID: "a", BasePrice: 7,
			Characteristics: internal.Characteristics{}, CreatedAt: "2026-01-02T00:00:00Z"},
		{ID: "3", Name: "Taza", Category: "tazas", OwnerID: "a", BasePrice: 4,
			Characteristics: internal.Characteristics{}, CreatedAt: "2026-01-03T00:00:00Z"},
		{ID: "4", Name: "Camiseta ajena", Category: "camiseta", OwnerID: "b", BasePrice: 5,
			Characteristics: internal.Characteristics{}, CreatedAt: "2026-01-04T00:00:00Z"},
	}
	if err := db.InsertProducts(products); err != nil {
		t.Fatal(err)
	}

	// Contains match, case-insensitive, scoped by owner.
	found, err := db.FindProductsByCategory("a", "camiseta", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Fatalf("found=%d", len(found))
	}
	if found[0].ID != "1" || found[1].ID != "2" {
		t.Fatalf("order=%s,%s", found[0].ID, found[1].ID)
	}

	// Characteristics survive the round trip.
	if v, ok := found[0].Characteristics["calidad"]; !ok || v.AsString() != "media" {
		t.Fatalf("characteristics=%+v", found[0].Characteristics)
	}

	all, err := db.ListProducts("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("all=%d", len(all))
	}

	limited, err := db.FindProductsByCategory("a", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited=%d", len(limited))
	}
}

func TestDeleteProducts(t *testing.T) {
	db := openTestDB(t)
	_ = db.InsertProduct(internal.Product{ID: "1", Name: "Taza", Category: "taza", OwnerID: "a",
		Characteristics: internal.Characteristics{}, CreatedAt: "2026-01-01T00:00:00Z"})
	_ = db.InsertProduct(internal.Product{ID: "2", Name: "Gorra", Category: "gorra", OwnerID: "a",
		Characteristics: internal.Characteristics{}, CreatedAt: "2026-01-01T00:00:00Z"})

	n, err := db.DeleteProduct("a", "1")
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	n, err = db.DeleteProduct("a", "missing")
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	n, err = db.DeleteProductsByOwner("a")
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestFindTechniquesByNames(t *testing.T) {
	db := openTestDB(t)
	techniques := []internal.MarkingTechnique{
		{ID: "1", Name: "Serigrafía 1 color", CostPerUnit: 0.18, OwnerID: "a", CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: "2", Name: "Bordado 3D", CostPerUnit: 2.6, OwnerID: "a", CreatedAt: "2026-01-02T00:00:00Z"},
		{ID: "3", Name: "DTF textil", CostPerUnit: 0.7, OwnerID: "a", CreatedAt: "2026-01-03T00:00:00Z"},
	}
	if err := db.InsertTechniques(techniques); err != nil {
		t.Fatal(err)
	}

	found, err := db.FindTechniquesByNames("a", []string{"Serigrafía 1 color", "DTF textil", "inexistente"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Fatalf("found=%d", len(found))
	}

	none, err := db.FindTechniquesByNames("a", nil)
	if err != nil || none != nil {
		t.Fatalf("none=%v err=%v", none, err)
	}
}

func TestQuotePersistence(t *testing.T) {
	db := openTestDB(t)

	q := internal.Quote{
		ID:         "q1",
		ClientName: "ACME",
		Products: []internal.QuoteBreakdown{{
			RequestText: "50 gorras bordadas",
			Parsed:      internal.ParsedRequest{Categoria: "gorra", Cantidad: 50, Tecnica: "bordado"},
			Basic:       internal.TierDetail{UnitPrice: 3.5, Total: 175},
		}},
		TotalBasic:        175,
		TotalMedium:       210,
		TotalPremium:      260,
		MarkingTechniques: []string{"Bordado 3D"},
		OwnerID:           "a",
		CreatedAt:         "2026-02-01T00:00:00Z",
	}
	if err := db.InsertQuote(q); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetQuote("a", "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Products[0].Parsed.Categoria != "gorra" || got.TotalPremium != 260 {
		t.Fatalf("got=%+v", got)
	}

	missing, err := db.GetQuote("a", "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing=%+v err=%v", missing, err)
	}

	otherOwner, err := db.GetQuote("b", "q1")
	if err != nil || otherOwner != nil {
		t.Fatalf("otherOwner=%+v err=%v", otherOwner, err)
	}

	list, err := db.ListQuotes("a")
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%d err=%v", len(list), err)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	if v, err := db.GetMetadata("cursor"); err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("cursor", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("cursor", "2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("cursor")
	if err != nil || v == nil || *v != "2" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
