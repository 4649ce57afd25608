// Package query sends one prompt to a roster of models and records each
// response as a JSON file for side-by-side comparison.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/pdf2md/internal/providers"
)

// Model is one entry in the models roster.
type Model struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label,omitempty"`
}

// LoadModels reads a YAML roster: a list of entries with an id and an
// optional label.
func LoadModels(file string) ([]Model, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}
	var models []Model
	if err := yaml.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("models file %s lists no models", file)
	}
	for i, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("models file %s: entry %d has no id", file, i+1)
		}
	}
	return models, nil
}

// Usage carries the token accounting of one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Record is the JSON document written for one model's response. Response
// and Usage are null and FinishReason is "error" when the call failed.
type Record struct {
	Model        string  `json:"model"`
	Label        string  `json:"label,omitempty"`
	Date         string  `json:"date"`
	Prompt       string  `json:"prompt"`
	Response     *string `json:"response"`
	FinishReason string  `json:"finish_reason"`
	Usage        *Usage  `json:"usage"`
	Error        string  `json:"error,omitempty"`
}

// Options configures a Runner.
type Options struct {
	Client    providers.LLMClient
	OutputDir string
	MaxTokens int
	Logger    *slog.Logger
}

// Runner fans one prompt out to a set of models.
type Runner struct {
	opts Options
	log  *slog.Logger
}

// NewRunner validates options and applies defaults.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("query: client is required")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("query: output dir is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{opts: opts, log: log}, nil
}

// Run sends the prompt to every model in the roster, or to the single
// model named by only, and writes one JSON record per model under a
// dated subdirectory of the output dir. A failing model gets an error
// record and the loop keeps going. Returns the written record paths.
func (r *Runner) Run(ctx context.Context, prompt string, models []Model, only string) ([]string, error) {
	selected := models
	if only != "" {
		selected = nil
		for _, m := range models {
			if m.ID == only {
				selected = append(selected, m)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("model %q not in the models file", only)
		}
	}

	day := time.Now().UTC().Format("2006-01-02")
	dir := filepath.Join(r.opts.OutputDir, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	for _, m := range selected {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rec := r.queryModel(ctx, m, prompt, day)
		outPath := filepath.Join(dir, path.Base(m.ID)+".json")
		if err := writeRecord(outPath, rec); err != nil {
			return written, err
		}
		written = append(written, outPath)
		r.log.Info("recorded model response",
			"model", m.ID,
			"finish_reason", rec.FinishReason,
			"path", outPath)
	}
	return written, nil
}

func (r *Runner) queryModel(ctx context.Context, m Model, prompt, day string) *Record {
	rec := &Record{
		Model:  m.ID,
		Label:  m.Label,
		Date:   day,
		Prompt: prompt,
	}

	req := &providers.ChatRequest{
		Messages:  []providers.Message{{Role: "user", Content: prompt}},
		Model:     m.ID,
		MaxTokens: r.opts.MaxTokens,
	}
	res, err := r.opts.Client.Chat(ctx, req)
	if err != nil {
		r.log.Warn("model query failed", "model", m.ID, "error", err)
		rec.FinishReason = "error"
		rec.Error = err.Error()
		return rec
	}

	rec.Response = &res.Content
	rec.FinishReason = res.FinishReason
	rec.Usage = &Usage{
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
	}
	return rec
}

func writeRecord(outPath string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
