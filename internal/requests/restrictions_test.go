package requests

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"agrobatch/internal/document"
	"agrobatch/internal/table"
)

func TestRestrictionProcessValidatesBeforeCalling(t *testing.T) {
	var calls int
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("cpf"); got != "12345678901" {
			t.Errorf("cpf = %q", got)
		}
		_, _ = w.Write([]byte(`{"data":{"hasRestrictions":false}}`))
	})

	tbl := &table.Table{
		Headers: []string{"CPF_Produtor"},
		Rows: [][]string{
			{"123.456.789-01"}, // valid after cleaning
			{"123"},            // too short, never sent
			{""},               // blank, skipped
		},
	}
	out := filepath.Join(t.TempDir(), "restrictions.json")
	p := NewRestrictionProcessor(client, discard())
	stats, err := p.Process(context.Background(), tbl, "CPF_Produtor", document.CPF, out)
	if err != nil {
		t.Fatalf("Process error = %v", err)
	}

	if calls != 1 {
		t.Fatalf("API called %d times, want 1", calls)
	}
	if stats.Submitted != 1 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var parsed struct {
		Data []RestrictionEntry `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed.Data) != 2 {
		t.Fatalf("entries = %d, want 2 (valid + invalid, blank omitted)", len(parsed.Data))
	}
	if parsed.Data[0].HasRestrictions == nil || *parsed.Data[0].HasRestrictions {
		t.Fatalf("first entry = %+v, want hasRestrictions false", parsed.Data[0])
	}
	if parsed.Data[1].Error == "" {
		t.Fatalf("invalid document entry should carry an error")
	}
}
