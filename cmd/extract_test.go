package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/statement/security"
)

func TestExtract(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(broken, []byte("this is not a PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	paths := []string{"../testdata/dkb", "../testdata/export/Export01.json", broken}
	b, err := Extract(context.Background(), paths, builtins(t), security.NewRegistry(), 2)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if len(b.Results) != 8 {
		t.Fatalf("Extract() = %d results, want 8", len(b.Results))
	}
	if b.Failed != 1 || b.Succeeded+b.Flagged != 7 {
		t.Errorf("Extract() = %d succeeded, %d flagged, %d failed, want 7 extracted and 1 failed", b.Succeeded, b.Flagged, b.Failed)
	}
	if last := b.Results[7]; last.Document != broken || len(last.Errors) != 1 {
		t.Errorf("unreadable document result = %+v", last)
	}

	var buf bytes.Buffer
	if err := writeItems(&buf, b); err != nil {
		t.Fatalf("writeItems() failed: %v", err)
	}
	items := 0
	for _, r := range b.Results {
		items += len(r.Items)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != items {
		t.Fatalf("writeItems() wrote %d lines, want %d", len(lines), items)
	}
	for _, l := range lines {
		var v map[string]any
		if err := json.Unmarshal([]byte(l), &v); err != nil {
			t.Errorf("invalid JSON line %q: %v", l, err)
			continue
		}
		if _, ok := v["item"]; !ok {
			t.Errorf("line %q has no item kind", l)
		}
	}
}

func TestEncodeRegistry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegistryFile = filepath.Join(t.TempDir(), "securities.json")
	r, err := DecodeRegistry(cfg)
	if err != nil {
		t.Fatalf("DecodeRegistry(missing) failed: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("DecodeRegistry(missing) = %d securities, want none", r.Len())
	}
	r = r.With(&security.Security{Name: "Nestlé SA", ISIN: "CH0038863350", Currency: "CHF"})
	if err := EncodeRegistry(cfg, r); err != nil {
		t.Fatalf("EncodeRegistry() failed: %v", err)
	}
	got, err := DecodeRegistry(cfg)
	if err != nil {
		t.Fatalf("DecodeRegistry() failed: %v", err)
	}
	if got.Len() != 1 || got.All()[0].ISIN != "CH0038863350" {
		t.Errorf("DecodeRegistry() = %v", got.All())
	}
}

func TestCheckRuleSets(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(valid, []byte(`{"name": "bank", "documents": [{"name": "d", "blocks": [{"name": "b", "start": "x", "produce": {"type": "DEPOSIT"}}]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(invalid, []byte(`{"name": "bank", "documents": [{"name": "d", "blocks": [{"name": "b", "start": "(x", "produce": {"type": "GIFT"}}]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if n := CheckRuleSets(&buf, []string{valid, invalid}); n != 1 {
		t.Errorf("CheckRuleSets() = %d invalid, want 1", n)
	}
	for _, want := range []string{`rule set "bank", 1 document types`, "invalid pattern", "unknown transaction type"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("CheckRuleSets() output does not contain %q:\n%s", want, buf.String())
		}
	}
}
