package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdf2md/version"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pdf2md",
	Short: "Convert scanned PDFs to Markdown with vision-capable models",
	Long: `pdf2md converts PDF documents to Markdown one page at a time.

Each page is rendered to an image and transcribed by a vision model,
with the previous page's Markdown passed along so headings, lists and
tables carry across page breaks. Pages that fail are skipped so one bad
page cannot sink a long document.

Tables are emitted as embedded HTML and each page opens with an
HTML comment marking its number.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pdf2md/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Load .env before any command runs; absence is fine
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger commands hand to the pipeline packages.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
