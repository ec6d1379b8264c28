package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrobatch/internal/api"
	"agrobatch/internal/table"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, "test-token", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestAPIWithURL also exposes the server URL for handlers that build
// absolute links pointing back at themselves.
func newTestAPIWithURL(t *testing.T, handler http.HandlerFunc, baseURL *string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	*baseURL = srv.URL
	return api.NewClient(srv.URL, "test-token", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestYearRangeColumn(t *testing.T) {
	if got := YearRangeColumn([]int{2004, 2023}); got != "deforestation_2004_2023" {
		t.Fatalf("YearRangeColumn = %q", got)
	}
}

func TestProcessMapBiomasWritesIDsAndSkipsBlanks(t *testing.T) {
	var submissions int
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			CodImovel   string `json:"codImovel"`
			YearsBiomas []int  `json:"yearsBiomas"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		submissions++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"id":"an-%d"}}`, submissions)
	})

	tbl := &table.Table{
		Headers: []string{"CAR"},
		Rows:    [][]string{{"MT-1"}, {""}, {"MT-2"}},
	}
	p := NewDeforestationProcessor(client, nil, discard())
	stats, err := p.ProcessMapBiomas(context.Background(), tbl, "CAR", [][]int{{2004, 2023}})
	if err != nil {
		t.Fatalf("ProcessMapBiomas error = %v", err)
	}

	if stats.Submitted != 2 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	col, err := tbl.Column("deforestation_2004_2023")
	if err != nil {
		t.Fatalf("result column missing: %v", err)
	}
	if tbl.Get(0, col) != "an-1" || tbl.Get(1, col) != "" || tbl.Get(2, col) != "an-2" {
		t.Fatalf("result column = %q/%q/%q",
			tbl.Get(0, col), tbl.Get(1, col), tbl.Get(2, col))
	}
}

func TestProcessMapBiomasContinuesPastFailures(t *testing.T) {
	var calls int
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"an-ok"}}`))
	})

	tbl := &table.Table{
		Headers: []string{"CAR"},
		Rows:    [][]string{{"MT-1"}, {"MT-2"}},
	}
	p := NewDeforestationProcessor(client, nil, discard())
	stats, err := p.ProcessMapBiomas(context.Background(), tbl, "CAR", [][]int{{2004, 2023}})
	if err != nil {
		t.Fatalf("ProcessMapBiomas error = %v", err)
	}
	if stats.Failed != 1 || stats.Submitted != 1 {
		t.Fatalf("stats = %+v, want one failure and one success", stats)
	}
}

func TestProcessProdes(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deforestation/prodes" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"prodes-1"}}`))
	})

	tbl := &table.Table{
		Headers: []string{"CAR"},
		Rows:    [][]string{{"MT-1"}},
	}
	p := NewDeforestationProcessor(client, nil, discard())
	if _, err := p.ProcessProdes(context.Background(), tbl, "CAR"); err != nil {
		t.Fatalf("ProcessProdes error = %v", err)
	}
	col, err := tbl.Column("deforestation_prodes")
	if err != nil {
		t.Fatalf("result column missing: %v", err)
	}
	if tbl.Get(0, col) != "prodes-1" {
		t.Fatalf("cell = %q", tbl.Get(0, col))
	}
}

func TestProcessMapBiomasUnknownColumn(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	tbl := &table.Table{Headers: []string{"CAR"}}
	p := NewDeforestationProcessor(client, nil, discard())
	if _, err := p.ProcessMapBiomas(context.Background(), tbl, "CODIGO", [][]int{{2004, 2023}}); err == nil {
		t.Fatalf("ProcessMapBiomas should fail for unknown column")
	}
}
