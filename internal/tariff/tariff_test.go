package tariff

import (
	"strings"
	"testing"
)

func TestExtractCSVNamedColumns(t *testing.T) {
	csv := "Tecnica,Precio,Descripcion\n" +
		"Serigrafía 1 color,\"0,18\",1 tinta\n" +
		"Bordado,\"0,90\",hasta 5000 puntadas\n" +
		"Sin precio,,\n"

	e := NewExtractor()
	techniques, err := e.Extract("local", "tarifa.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(techniques) != 2 {
		t.Fatalf("techniques=%d", len(techniques))
	}
	if techniques[0].Name != "Serigrafía 1 color" || techniques[0].CostPerUnit != 0.18 {
		t.Fatalf("technique=%+v", techniques[0])
	}
	if techniques[1].Description != "hasta 5000 puntadas" {
		t.Fatalf("technique=%+v", techniques[1])
	}
	if techniques[0].OwnerID != "local" {
		t.Fatalf("owner=%q", techniques[0].OwnerID)
	}
}

func TestExtractCSVInferredColumns(t *testing.T) {
	// No recognizable headers; the text column becomes the name and the
	// numeric one the price.
	csv := "Proceso,Unitario\nTampografía,0.12\nLáser madera,0.35\n"

	e := NewExtractor()
	techniques, err := e.Extract("local", "precios.csv", []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(techniques) != 2 {
		t.Fatalf("techniques=%d", len(techniques))
	}
	if techniques[0].Name != "Tampografía" || techniques[0].CostPerUnit != 0.12 {
		t.Fatalf("technique=%+v", techniques[0])
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("local", "tarifa.docx", []byte("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractPDFInvalid(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("local", "tarifa.pdf", []byte("not a pdf")); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuiltinTariff(t *testing.T) {
	techniques := builtinTechniques("owner-1")
	if len(techniques) != 32 {
		t.Fatalf("len=%d", len(techniques))
	}
	names := make(map[string]bool, len(techniques))
	for _, tech := range techniques {
		if tech.CostPerUnit <= 0 {
			t.Fatalf("non-positive cost: %+v", tech)
		}
		if tech.OwnerID != "owner-1" {
			t.Fatalf("owner=%q", tech.OwnerID)
		}
		names[tech.Name] = true
	}
	for _, want := range []string{"Serigrafía 1 color", "Bordado 3D", "DTF textil"} {
		if !names[want] {
			t.Fatalf("missing %q", want)
		}
	}
	embroidered := 0
	for name := range names {
		if strings.HasPrefix(name, "Bordado") {
			embroidered++
		}
	}
	if embroidered != 4 {
		t.Fatalf("embroidery variants=%d", embroidered)
	}
}
