package requests

import (
	"context"
	"net/http"
	"testing"

	"agrobatch/internal/table"
)

func TestSweepUpdatesStatusesInPlace(t *testing.T) {
	responses := map[string]string{
		"rep-1": `{"data":[{"taskStatus":"COMPLETED","reportResults":{"restrictions":[1]}}]}`,
		"rep-2": `{"data":[{"taskStatus":"PROCESSING","reportResults":null}]}`,
		"rep-3": `{"data":[]}`,
	}
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(responses[r.URL.Query().Get("id")]))
	})

	tbl := &table.Table{
		Headers: []string{"restriction_id", "taskStatus"},
		Rows: [][]string{
			{"rep-1", ""},
			{"rep-2", ""},
			{"rep-3", ""},
			{"rep-done", "COMPLETED"}, // already done, must not be polled
			{"", ""},
		},
	}
	p := NewReportProcessor(client, nil, discard())
	stats, err := p.Sweep(context.Background(), tbl, "restriction_id")
	if err != nil {
		t.Fatalf("Sweep error = %v", err)
	}
	if stats.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2 (done row and blank row)", stats.Skipped)
	}

	statusCol, _ := tbl.Column("taskStatus")
	resultCol, _ := tbl.Column("reportResults")
	if tbl.Get(0, statusCol) != "COMPLETED" {
		t.Fatalf("rep-1 status = %q", tbl.Get(0, statusCol))
	}
	if tbl.Get(0, resultCol) != `{"restrictions":[1]}` {
		t.Fatalf("rep-1 results = %q", tbl.Get(0, resultCol))
	}
	if tbl.Get(1, statusCol) != "PROCESSING" {
		t.Fatalf("rep-2 status = %q", tbl.Get(1, statusCol))
	}
	if tbl.Get(2, statusCol) != "NO_DATA" {
		t.Fatalf("rep-3 status = %q", tbl.Get(2, statusCol))
	}
	if tbl.Get(3, statusCol) != "COMPLETED" {
		t.Fatalf("rep-done status = %q, should be untouched", tbl.Get(3, statusCol))
	}
}

func TestSweepRecordsHTTPErrorCode(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	tbl := &table.Table{
		Headers: []string{"restriction_id"},
		Rows:    [][]string{{"rep-1"}},
	}
	p := NewReportProcessor(client, nil, discard())
	if _, err := p.Sweep(context.Background(), tbl, "restriction_id"); err != nil {
		t.Fatalf("Sweep error = %v", err)
	}
	statusCol, _ := tbl.Column("taskStatus")
	if tbl.Get(0, statusCol) != "HTTP_ERROR_503" {
		t.Fatalf("status = %q, want HTTP_ERROR_503", tbl.Get(0, statusCol))
	}
}

func TestSubmitReportFillsRestrictionID(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"rep-9"}}`))
	})

	tbl := &table.Table{
		Headers: []string{"CAR"},
		Rows:    [][]string{{"MT-1"}},
	}
	p := NewReportProcessor(client, nil, discard())
	if _, err := p.Submit(context.Background(), tbl, "CAR"); err != nil {
		t.Fatalf("Submit error = %v", err)
	}
	col, err := tbl.Column("restriction_id")
	if err != nil {
		t.Fatalf("restriction_id column missing: %v", err)
	}
	if tbl.Get(0, col) != "rep-9" {
		t.Fatalf("restriction_id = %q", tbl.Get(0, col))
	}
}
