package query

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/pdf2md/internal/providers"
)

func writeModelsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModels(t *testing.T) {
	t.Run("valid roster", func(t *testing.T) {
		path := writeModelsFile(t, `- id: openai/gpt-4o
  label: GPT-4o
- id: gpt-4o-mini
`)
		models, err := LoadModels(path)
		if err != nil {
			t.Fatalf("LoadModels() error: %v", err)
		}
		if len(models) != 2 {
			t.Fatalf("got %d models, want 2", len(models))
		}
		if models[0].ID != "openai/gpt-4o" || models[0].Label != "GPT-4o" {
			t.Errorf("first model = %+v", models[0])
		}
		if models[1].ID != "gpt-4o-mini" || models[1].Label != "" {
			t.Errorf("second model = %+v", models[1])
		}
	})

	t.Run("empty roster", func(t *testing.T) {
		path := writeModelsFile(t, "")
		if _, err := LoadModels(path); err == nil {
			t.Error("expected error for empty roster")
		}
	})

	t.Run("entry without id", func(t *testing.T) {
		path := writeModelsFile(t, `- label: unnamed
`)
		if _, err := LoadModels(path); err == nil {
			t.Error("expected error for entry without id")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadModels(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func newTestRunner(t *testing.T, client providers.LLMClient, outputDir string) *Runner {
	t.Helper()
	r, err := NewRunner(Options{
		Client:    client,
		OutputDir: outputDir,
		MaxTokens: 500,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	return r
}

func readRecord(t *testing.T, path string) Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("parsing record: %v", err)
	}
	return rec
}

func TestRunnerRun(t *testing.T) {
	outDir := t.TempDir()
	mock := providers.NewMockClient()
	mock.Responses = []string{"answer from 4o", "answer from mini"}
	r := newTestRunner(t, mock, outDir)

	models := []Model{
		{ID: "openai/gpt-4o", Label: "GPT-4o"},
		{ID: "gpt-4o-mini"},
	}
	written, err := r.Run(context.Background(), "What is a PDF?", models, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("got %d records, want 2", len(written))
	}

	day := time.Now().UTC().Format("2006-01-02")
	wantFirst := filepath.Join(outDir, day, "gpt-4o.json")
	if written[0] != wantFirst {
		t.Errorf("record path = %s, want %s", written[0], wantFirst)
	}

	rec := readRecord(t, written[0])
	if rec.Model != "openai/gpt-4o" || rec.Label != "GPT-4o" {
		t.Errorf("record identity = %s / %s", rec.Model, rec.Label)
	}
	if rec.Prompt != "What is a PDF?" {
		t.Errorf("record prompt = %q", rec.Prompt)
	}
	if rec.Response == nil || *rec.Response != "answer from 4o" {
		t.Errorf("record response = %v", rec.Response)
	}
	if rec.FinishReason != "stop" {
		t.Errorf("finish_reason = %q", rec.FinishReason)
	}
	if rec.Date != day {
		t.Errorf("record date = %q, want %q", rec.Date, day)
	}
	if rec.Usage == nil || rec.Usage.PromptTokens == 0 {
		t.Errorf("usage not recorded: %+v", rec.Usage)
	}

	requests := mock.Requests()
	if len(requests) != 2 || requests[0].Model != "openai/gpt-4o" || requests[1].Model != "gpt-4o-mini" {
		t.Errorf("unexpected requests: %+v", requests)
	}
}

func TestRunnerRecordsFailures(t *testing.T) {
	outDir := t.TempDir()
	mock := providers.NewMockClient()
	mock.Responses = []string{"fine"}
	mock.FailRequests = map[int]bool{2: true}
	r := newTestRunner(t, mock, outDir)

	models := []Model{{ID: "gpt-4o"}, {ID: "flaky-model"}}
	written, err := r.Run(context.Background(), "ping", models, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("failing model should still get a record, got %d", len(written))
	}

	rec := readRecord(t, written[1])
	if rec.Response != nil {
		t.Errorf("failed record response = %v, want null", rec.Response)
	}
	if rec.Usage != nil {
		t.Errorf("failed record usage = %+v, want null", rec.Usage)
	}
	if rec.FinishReason != "error" {
		t.Errorf("failed record finish_reason = %q, want error", rec.FinishReason)
	}
	if rec.Error == "" {
		t.Error("failed record should carry the error message")
	}
}

func TestRunnerModelFilter(t *testing.T) {
	outDir := t.TempDir()
	mock := providers.NewMockClient()
	mock.Responses = []string{"only one"}
	r := newTestRunner(t, mock, outDir)

	models := []Model{{ID: "gpt-4o"}, {ID: "gpt-4o-mini"}}

	written, err := r.Run(context.Background(), "ping", models, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "gpt-4o-mini.json" {
		t.Errorf("filter wrote %v", written)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("RequestCount = %d, want 1", mock.RequestCount())
	}

	if _, err := r.Run(context.Background(), "ping", models, "unknown-model"); err == nil {
		t.Error("expected error for a filter that matches nothing")
	}
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(Options{}); err == nil {
		t.Error("NewRunner() should reject missing client")
	}
	if _, err := NewRunner(Options{Client: providers.NewMockClient()}); err == nil {
		t.Error("NewRunner() should reject missing output dir")
	}
}
