// Package convert drives page-by-page conversion of a PDF into a single
// Markdown document. Each page is rasterized, sent to a vision model with
// the previous page's Markdown as context, and normalized into a fragment.
// Pages that fail are skipped so one bad page cannot sink a long document.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/schollz/progressbar/v3"

	"github.com/jackzampolin/pdf2md/internal/providers"
	"github.com/jackzampolin/pdf2md/internal/prompts/transcribe"
	"github.com/jackzampolin/pdf2md/version"
)

// ImageSource yields page counts and rendered page images for a PDF.
// pdf.Renderer is the production implementation.
type ImageSource interface {
	PageCount(pdfPath string) (int, error)
	RenderPage(ctx context.Context, pdfPath string, pageNum int, outDir string) (string, error)
}

// Options configures a Converter.
type Options struct {
	Client            providers.LLMClient
	Source            ImageSource
	Model             string // overrides the client default when set
	MaxTokens         int
	Temperature       float64
	Attempts          int           // model call attempts per page
	RetryDelay        time.Duration // delay between attempts
	RequestsPerMinute int           // model calls per minute, 0 disables limiting
	OutputPath        string        // overrides the derived output path when set
	Progress          bool          // render a progress bar on stderr
	Logger            *slog.Logger
}

// Converter runs the conversion pipeline for one PDF at a time.
type Converter struct {
	opts    Options
	limiter *providers.RateLimiter
	log     *slog.Logger
}

// New validates options and applies defaults.
func New(opts Options) (*Converter, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("convert: client is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("convert: image source is required")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 3000
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 2
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	var limiter *providers.RateLimiter
	if opts.RequestsPerMinute > 0 {
		limiter = providers.NewRateLimiter(opts.RequestsPerMinute)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Converter{opts: opts, limiter: limiter, log: log}, nil
}

// Result summarizes a completed conversion run.
type Result struct {
	Fragments  []Fragment
	Pages      int
	Failed     []int // pages skipped after exhausting retries
	OutputPath string
	Model      string
}

// Run converts every page of the PDF and writes the assembled document.
// The document is written even when every page fails, so a run always
// leaves an artifact recording what happened.
func (c *Converter) Run(ctx context.Context, pdfPath string) (*Result, error) {
	pageCount, err := c.opts.Source.PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	model := c.modelName()
	c.log.Info("starting conversion",
		"file", filepath.Base(pdfPath),
		"pages", pageCount,
		"model", model)

	tmpDir, err := os.MkdirTemp("", "pdf2md-pages-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var bar *progressbar.ProgressBar
	if c.opts.Progress {
		bar = newPageBar(pageCount, filepath.Base(pdfPath))
	}

	result := &Result{Pages: pageCount, Model: model}
	previous := "" // fragment of the most recent successful page

	for page := 1; page <= pageCount; page++ {
		fragment, err := c.convertPage(ctx, pdfPath, page, tmpDir, previous)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn("page failed, skipping", "page", page, "error", err)
			result.Failed = append(result.Failed, page)
		} else {
			result.Fragments = append(result.Fragments, Fragment{Page: page, Text: fragment})
			previous = fragment
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	outPath := c.opts.OutputPath
	if outPath == "" {
		outPath, err = ResolveOutputPath(pdfPath)
		if err != nil {
			return nil, err
		}
	}

	meta := Metadata{
		Command:   strings.Join(os.Args, " "),
		Timestamp: time.Now().UTC(),
		Source:    filepath.Base(pdfPath),
		Platform:  version.GoInfo,
		Model:     model,
	}
	doc := Assemble(result.Fragments, meta)
	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	result.OutputPath = outPath

	c.log.Info("conversion complete",
		"output", outPath,
		"converted", len(result.Fragments),
		"failed", len(result.Failed))
	return result, nil
}

// convertPage renders one page, sends it to the model, and returns the
// normalized fragment. The rendered image is removed before returning
// whether or not the page succeeded.
func (c *Converter) convertPage(ctx context.Context, pdfPath string, page int, tmpDir, previous string) (string, error) {
	imgPath, err := c.opts.Source.RenderPage(ctx, pdfPath, page, tmpDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(imgPath)

	imgBytes, err := os.ReadFile(imgPath)
	if err != nil {
		return "", fmt.Errorf("failed to read page image: %w", err)
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: transcribe.SystemPrompt()},
			{Role: "user", Content: transcribe.UserPrompt(previous), Images: [][]byte{imgBytes}},
		},
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	var content string
	err = retry.Do(
		func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			res, err := c.opts.Client.Chat(ctx, req)
			if err != nil {
				if rle, ok := providers.IsRateLimitError(err); ok && c.limiter != nil {
					c.limiter.Record429(rle.RetryAfter)
				}
				return err
			}
			content = res.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.opts.Attempts)),
		retry.Delay(c.opts.RetryDelay),
	)
	if err != nil {
		return "", err
	}

	return normalizePage(content, page)
}

// normalizePage applies response cleanup. A panic here counts as a page
// failure so one malformed response cannot abort the run.
func normalizePage(raw string, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalization failed for page %d: %v", page, r)
		}
	}()
	return Normalize(raw, page), nil
}

func (c *Converter) modelName() string {
	if c.opts.Model != "" {
		return c.opts.Model
	}
	return c.opts.Client.Model()
}

func newPageBar(total int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("converting "+name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}
