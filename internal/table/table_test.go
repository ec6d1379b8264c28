package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestLoadCSVTrimsHeaders(t *testing.T) {
	path := writeTempCSV(t, " CAR , CPF_Produtor \nMT-1,123\nMT-2,456\n")
	tbl, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if tbl.Headers[0] != "CAR" || tbl.Headers[1] != "CPF_Produtor" {
		t.Fatalf("headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 || tbl.Get(0, 0) != "MT-1" {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestColumnNotFoundListsAvailable(t *testing.T) {
	path := writeTempCSV(t, "CAR\nMT-1\n")
	tbl, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	_, err = tbl.Column("missing")
	if err == nil || !strings.Contains(err.Error(), "CAR") {
		t.Fatalf("Column error = %v, want available columns listed", err)
	}
}

func TestEnsureColumnPadsRows(t *testing.T) {
	path := writeTempCSV(t, "CAR\nMT-1\nMT-2\n")
	tbl, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	col := tbl.EnsureColumn("deforestation_2004_2023")
	if col != 1 {
		t.Fatalf("EnsureColumn = %d, want 1", col)
	}
	tbl.Set(0, col, "id-1")
	if tbl.Get(0, col) != "id-1" || tbl.Get(1, col) != "" {
		t.Fatalf("cells = %q / %q", tbl.Get(0, col), tbl.Get(1, col))
	}
	// Second call must not duplicate the column.
	if again := tbl.EnsureColumn("deforestation_2004_2023"); again != col {
		t.Fatalf("EnsureColumn second call = %d, want %d", again, col)
	}
}

func TestSaveAndReloadCSV(t *testing.T) {
	path := writeTempCSV(t, "CAR\nMT-1\n")
	tbl, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	col := tbl.EnsureColumn("result")
	tbl.Set(0, col, "ok")

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := tbl.Save(out); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	back, err := Load(out, "")
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if back.Get(0, 1) != "ok" {
		t.Fatalf("reloaded cell = %q, want ok", back.Get(0, 1))
	}
}

func TestSaveAndReloadXLSX(t *testing.T) {
	tbl := &Table{
		Headers: []string{"CAR", "deforestation_prodes"},
		Rows:    [][]string{{"MT-1", "id-1"}, {"MT-2"}},
	}
	out := filepath.Join(t.TempDir(), "out.xlsx")
	if err := tbl.Save(out); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	back, err := Load(out, "")
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if back.Headers[1] != "deforestation_prodes" {
		t.Fatalf("headers = %v", back.Headers)
	}
	if back.Get(0, 1) != "id-1" {
		t.Fatalf("cell = %q, want id-1", back.Get(0, 1))
	}
}

func TestLoadRejectsLegacyXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.xls")
	if err := os.WriteFile(path, []byte("not really xls"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := Load(path, ""); err == nil || !strings.Contains(err.Error(), ".xlsx") {
		t.Fatalf("Load(.xls) error = %v, want conversion hint", err)
	}
}
