package api

import (
	"testing"

	"agrobatch/internal/reconcile"
)

func TestClassifyAnalysis(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantKind   reconcile.Kind
		wantStatus string
	}{
		{
			name:       "completed with results",
			body:       `{"data":[{"Task":[{"status":"COMPLETED"}],"analysisResults":{"area":1.5}}]}`,
			wantKind:   reconcile.Completed,
			wantStatus: "COMPLETED",
		},
		{
			name:       "completed but null results stays pending",
			body:       `{"data":[{"Task":[{"status":"COMPLETED"}],"analysisResults":null}]}`,
			wantKind:   reconcile.Pending,
			wantStatus: "COMPLETED",
		},
		{
			name:       "lowercase status is normalized",
			body:       `{"data":[{"Task":[{"status":"completed"}],"analysisResults":{"area":1.5}}]}`,
			wantKind:   reconcile.Completed,
			wantStatus: "COMPLETED",
		},
		{
			name:       "error is terminal",
			body:       `{"data":[{"Task":[{"status":"ERROR"}],"analysisResults":null}]}`,
			wantKind:   reconcile.Failed,
			wantStatus: "ERROR",
		},
		{
			name:       "processing stays pending",
			body:       `{"data":[{"Task":[{"status":"PROCESSING"}],"analysisResults":null}]}`,
			wantKind:   reconcile.Pending,
			wantStatus: "PROCESSING",
		},
		{
			name:       "unrecognized status stays pending",
			body:       `{"data":[{"Task":[{"status":"QUEUED_WEIRDLY"}],"analysisResults":null}]}`,
			wantKind:   reconcile.Pending,
			wantStatus: "QUEUED_WEIRDLY",
		},
		{
			name:       "no task list but results counts as completed",
			body:       `{"data":[{"analysisResults":{"area":2.0}}]}`,
			wantKind:   reconcile.Completed,
			wantStatus: "COMPLETED",
		},
		{
			name:     "no task list and no results stays pending",
			body:     `{"data":[{"analysisResults":null}]}`,
			wantKind: reconcile.Pending,
		},
		{
			name:     "empty data array stays pending",
			body:     `{"data":[]}`,
			wantKind: reconcile.Pending,
		},
		{
			name:     "non-json body stays pending",
			body:     `<html>gateway timeout</html>`,
			wantKind: reconcile.Pending,
		},
		{
			name:     "scalar analysisResults fails schema and stays pending",
			body:     `{"data":[{"Task":[{"status":"COMPLETED"}],"analysisResults":"done"}]}`,
			wantKind: reconcile.Pending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ClassifyAnalysis([]byte(tc.body))
			if out.Kind != tc.wantKind {
				t.Fatalf("kind = %d, want %d", out.Kind, tc.wantKind)
			}
			if tc.wantStatus != "" && out.LastStatus != tc.wantStatus {
				t.Fatalf("last status = %q, want %q", out.LastStatus, tc.wantStatus)
			}
			if out.Kind == reconcile.Completed && string(out.Result) != tc.body {
				t.Fatalf("completed outcome should keep the full payload")
			}
		})
	}
}
