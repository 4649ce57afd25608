package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdf2md/internal/config"
	"github.com/jackzampolin/pdf2md/internal/providers"
	"github.com/jackzampolin/pdf2md/internal/query"
)

var (
	queryPromptFile string
	queryModelsFile string
	queryOutputDir  string
	queryOnlyModel  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Send one prompt to a roster of models and record the responses",
	Long: `Send one prompt to every model in a YAML roster and save each response
as a JSON record under a dated subdirectory of the output directory.

The roster is a YAML list of entries with an id and an optional label:

  - id: openai/gpt-4o
    label: GPT-4o
  - id: gpt-4o-mini

Failing models get an error record and the run keeps going, so one
flaky model never costs you the rest of the comparison.

Examples:
  pdf2md query --prompt prompt.txt --models models.yaml --output results/
  pdf2md query --prompt prompt.txt --models models.yaml --output results/ --model gpt-4o-mini`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		promptBytes, err := os.ReadFile(queryPromptFile)
		if err != nil {
			return fmt.Errorf("failed to read prompt file: %w", err)
		}
		prompt := strings.TrimSpace(string(promptBytes))

		models, err := query.LoadModels(queryModelsFile)
		if err != nil {
			return err
		}

		apiKey, err := cfg.ResolveAPIKey()
		if err != nil {
			return fmt.Errorf("environment error: %w", err)
		}

		client := providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:     apiKey,
			Model:      cfg.Model,
			MaxRetries: cfg.Request.MaxRetries,
			Timeout:    cfg.RequestTimeout(),
			BaseURL:    cfg.BaseURL,
		})

		runner, err := query.NewRunner(query.Options{
			Client:    client,
			OutputDir: queryOutputDir,
			MaxTokens: cfg.Request.MaxTokens,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		written, err := runner.Run(ctx, prompt, models, queryOnlyModel)
		for _, p := range written {
			fmt.Printf("Saved %s\n", p)
		}
		return err
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryPromptFile, "prompt", "", "path to the prompt text file")
	queryCmd.Flags().StringVar(&queryModelsFile, "models", "", "path to the models YAML roster")
	queryCmd.Flags().StringVar(&queryOutputDir, "output", "", "output directory for JSON records")
	queryCmd.Flags().StringVar(&queryOnlyModel, "model", "", "query only this model id")

	_ = queryCmd.MarkFlagRequired("prompt")
	_ = queryCmd.MarkFlagRequired("models")
	_ = queryCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(queryCmd)
}
