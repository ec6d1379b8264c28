package ledger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	t.Cleanup(func() {
		_ = l.Close()
	})
	return l
}

func TestRecordAndPending(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if _, err := l.RecordSubmission(ctx, "/deforestation", 0, "MT-1", "an-1"); err != nil {
		t.Fatalf("RecordSubmission error = %v", err)
	}
	if _, err := l.RecordSubmission(ctx, "/deforestation", 1, "MT-2", "an-2"); err != nil {
		t.Fatalf("RecordSubmission error = %v", err)
	}
	if _, err := l.RecordSubmission(ctx, "/deforestation/prodes", 0, "MT-1", "an-3"); err != nil {
		t.Fatalf("RecordSubmission error = %v", err)
	}

	pending, err := l.Pending(ctx, "/deforestation")
	if err != nil {
		t.Fatalf("Pending error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].AnalysisID != "an-1" || pending[1].AnalysisID != "an-2" {
		t.Fatalf("pending order = %+v", pending)
	}
}

func TestMarkResolvedRemovesFromPending(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if _, err := l.RecordSubmission(ctx, "/deforestation", 0, "MT-1", "an-1"); err != nil {
		t.Fatalf("RecordSubmission error = %v", err)
	}
	if err := l.MarkResolved(ctx, "an-1", "COMPLETED", 3); err != nil {
		t.Fatalf("MarkResolved error = %v", err)
	}

	pending, err := l.Pending(ctx, "/deforestation")
	if err != nil {
		t.Fatalf("Pending error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0", len(pending))
	}
}

func TestMarkResolvedUnknownIDIsNotAnError(t *testing.T) {
	l := openTestLedger(t)
	if err := l.MarkResolved(context.Background(), "nope", "ERROR", 1); err != nil {
		t.Fatalf("MarkResolved unknown id error = %v", err)
	}
}
