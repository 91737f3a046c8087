// Package cli provides the command-line interface for the document
// classification pipeline.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-triage/internal/config"
	"github.com/kirillkom/document-triage/internal/observability/logging"
)

// Version is set at build time.
var Version = "0.1.0"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "classifier",
	Short: "Classify documents against a managed taxonomy",
	Long: `Classifier runs an LLM-backed document triage pipeline: it reads
documents from disk, asks a local Ollama model to classify each one against
the taxonomy stored in Postgres, reconciles the model's JSON response, and
persists the result idempotently.

Runs produce JSON, text, and xlsx reports under the configured report
directory.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		slog.SetDefault(logging.NewJSONLogger("classifier", cfg.LogLevel))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the classifier version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("classifier %s\n", Version)
	},
}

// Execute adds all child commands to the root command and runs it. The
// command context is cancelled on SIGINT/SIGTERM so in-flight batch work
// can wind down.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(versionCmd)
}
