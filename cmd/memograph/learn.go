package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/checkpoint"
	"github.com/soundprediction/memograph/pkg/config"
)

var learnCmd = &cobra.Command{
	Use:   "learn [text]",
	Short: "Ingest text into the knowledge graph",
	Long: `Learn extracts entities and relationships from text and stores them in
the knowledge graph. Text is taken from the argument, or line by line from
--file (each non-empty line becomes one batch item).`,
	RunE: runLearn,
}

var (
	learnFile        string
	learnContextName string
	learnBatchID     string
)

func init() {
	rootCmd.AddCommand(learnCmd)

	learnCmd.Flags().StringVar(&learnFile, "file", "", "read items line by line from a file")
	learnCmd.Flags().StringVar(&learnContextName, "context-name", "", "label for the provenance context")
	learnCmd.Flags().StringVar(&learnBatchID, "batch-id", "", "enable checkpointed resume under this batch id")
}

func runLearn(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && learnFile == "" {
		return fmt.Errorf("provide text as an argument or use --file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer engine.Close(ctx)

	if len(args) > 0 {
		result, err := engine.Learn(ctx, strings.Join(args, " "), &memograph.LearnOptions{ContextName: learnContextName})
		if err != nil {
			return err
		}
		fmt.Printf("document %s (created=%d) entities created=%d reused=%d relationships=%d\n",
			result.Document.ID, result.Created.Documents,
			result.Created.Entities, result.Reused.Entities,
			result.Created.Relationships)
		return nil
	}

	items, err := readLines(learnFile)
	if err != nil {
		return err
	}

	opts := &memograph.BatchOptions{
		ContextName: learnContextName,
		Progress: func(p memograph.Progress) {
			eta := "?"
			if p.ETA != nil {
				eta = p.ETA.Round(1e9).String()
			}
			fmt.Printf("[%d/%d] ok=%d failed=%d eta=%s\n", p.Index+1, p.Total, p.Completed, p.Failed, eta)
		},
	}
	if learnBatchID != "" {
		ckpt, err := checkpoint.Open(cfg.Checkpoint.Path, logger)
		if err != nil {
			return err
		}
		defer ckpt.Close()
		opts.Checkpoint = ckpt
		opts.BatchID = learnBatchID
	}

	result, err := engine.LearnBatch(ctx, items, opts)
	if err != nil {
		return err
	}
	fmt.Printf("batch done: %d total, %d succeeded, %d failed, %d skipped\n",
		result.Summary.Total, result.Summary.Succeeded, result.Summary.Failed, result.Summary.Skipped)
	for _, batchErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "item %d failed: %v\n", batchErr.Index, batchErr.Err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
