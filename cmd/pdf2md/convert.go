package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdf2md/internal/config"
	"github.com/jackzampolin/pdf2md/internal/convert"
	"github.com/jackzampolin/pdf2md/internal/pdf"
	"github.com/jackzampolin/pdf2md/internal/providers"
)

var (
	convertModel  string
	convertOutput string
	noProgress    bool
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE.pdf",
	Short: "Convert a PDF to a Markdown document",
	Long: `Convert a PDF to Markdown by transcribing each page with a vision model.

The output lands next to the input as FILE.md. Existing files are never
overwritten; a _converted suffix (then a counter) is used instead.

Requires pdftoppm (poppler-utils) on the PATH and OPENAI_API_KEY in the
environment or a .env file.

Examples:
  pdf2md convert report.pdf
  pdf2md convert report.pdf --model gpt-4o-mini
  pdf2md convert report.pdf --output notes/report.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pdfPath := args[0]
		logger := newLogger()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if convertModel != "" {
			cfg.Model = convertModel
		}

		if err := pdf.Validate(pdfPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("file not found: %w", err)
			}
			return fmt.Errorf("validation error: %w", err)
		}

		apiKey, err := cfg.ResolveAPIKey()
		if err != nil {
			return fmt.Errorf("environment error: %w", err)
		}

		if convertOutput != "" {
			if _, err := os.Stat(convertOutput); err == nil {
				return fmt.Errorf("validation error: output file already exists: %s", convertOutput)
			}
		}

		client := providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:     apiKey,
			Model:      cfg.Model,
			MaxRetries: cfg.Request.MaxRetries,
			Timeout:    cfg.RequestTimeout(),
			BaseURL:    cfg.BaseURL,
		})

		conv, err := convert.New(convert.Options{
			Client:            client,
			Source:            pdf.NewRenderer(cfg.Raster.DPI, cfg.Raster.Quality),
			Model:             cfg.Model,
			MaxTokens:         cfg.Request.MaxTokens,
			Temperature:       cfg.Request.Temperature,
			Attempts:          cfg.Retry.Attempts,
			RetryDelay:        cfg.RetryDelay(),
			RequestsPerMinute: cfg.Request.RequestsPerMinute,
			OutputPath:        convertOutput,
			Progress:          !noProgress,
			Logger:            logger,
		})
		if err != nil {
			return err
		}

		res, err := conv.Run(ctx, pdfPath)
		if err != nil {
			switch {
			case errors.Is(err, pdf.ErrRasterize):
				return fmt.Errorf("rasterization error: %w", err)
			case errors.Is(err, context.Canceled):
				return fmt.Errorf("conversion interrupted")
			default:
				return fmt.Errorf("unexpected error: %w", err)
			}
		}

		fmt.Printf("Conversion complete: %s\n", res.OutputPath)
		if len(res.Failed) > 0 {
			fmt.Printf("Skipped %d of %d pages: %v\n", len(res.Failed), res.Pages, res.Failed)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertModel, "model", "", "vision model to use (default from config)")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "output path (default: next to the input PDF)")
	convertCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(convertCmd)
}
