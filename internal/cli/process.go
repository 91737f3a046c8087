package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-triage/internal/bootstrap"
	"github.com/kirillkom/document-triage/internal/core/ports"
)

var (
	processPath             string
	processID               string
	processAll              bool
	processBatchSize        int
	processLimit            int
	processDryRun           bool
	processRetries          int
	processIncludeProcessed bool
	processRequeueFailures  bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify one document or a batch of unclassified documents",
	Long: `Process classifies documents through the oracle pipeline.

Target exactly one of:
  --path   a single document by its stored path
  --id     a single document by its id
  --all    every unclassified document (plus already-classified ones
           with --include-processed)

Examples:
  classifier process --path reports/q1.pdf
  classifier process --all --batch-size 5 --limit 100
  classifier process --all --dry-run
  classifier process --all --requeue-failures`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processPath, "path", "", "classify the document with this path")
	processCmd.Flags().StringVar(&processID, "id", "", "classify the document with this id")
	processCmd.Flags().BoolVar(&processAll, "all", false, "classify all unclassified documents")
	processCmd.Flags().IntVar(&processBatchSize, "batch-size", 0, "documents processed concurrently per chunk")
	processCmd.Flags().IntVar(&processLimit, "limit", 0, "cap on candidate documents (0 = no cap)")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "list candidates without classifying")
	processCmd.Flags().IntVar(&processRetries, "retries", 0, "per-document retry attempts (0 = configured default)")
	processCmd.Flags().BoolVar(&processIncludeProcessed, "include-processed", false, "also reclassify documents that already have a type")
	processCmd.Flags().BoolVar(&processRequeueFailures, "requeue-failures", false, "publish failed documents to the classify queue")
}

func runProcess(cmd *cobra.Command, args []string) error {
	targets := 0
	if processPath != "" {
		targets++
	}
	if processID != "" {
		targets++
	}
	if processAll {
		targets++
	}
	if targets != 1 {
		return errors.New("specify exactly one of --path, --id or --all")
	}

	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:      "classifier",
		Mode:         bootstrap.ModeBatch,
		ConnectQueue: processRequeueFailures,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	if !processAll {
		if err := app.BatchUC.RunOne(ctx, processID, processPath, processRetries); err != nil {
			return fmt.Errorf("classify document: %w", err)
		}
		fmt.Println("Document classified.")
		return nil
	}

	run, err := app.BatchUC.Run(ctx, ports.BatchOptions{
		BatchSize:        processBatchSize,
		Limit:            processLimit,
		DryRun:           processDryRun,
		MaxRetries:       processRetries,
		IncludeProcessed: processIncludeProcessed,
		RequeueFailures:  processRequeueFailures,
	})
	if err != nil {
		return err
	}

	if run.DryRun {
		fmt.Printf("Dry run: %d candidate document(s), nothing classified.\n", run.Total)
		return nil
	}

	fmt.Printf("Run %s finished in %s\n", run.RunID, run.Elapsed().Round(0))
	fmt.Printf("  total=%d succeeded=%d failed=%d (degraded=%d) deleted=%d\n",
		run.Total, run.Succeeded, run.Failed, run.Degraded, run.Deleted)
	for _, runErr := range run.Errors {
		fmt.Printf("  failed %s (%s): %s\n", runErr.DocumentID, runErr.Path, runErr.Error)
	}
	return nil
}
