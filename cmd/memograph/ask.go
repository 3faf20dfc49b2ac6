package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/config"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the knowledge graph a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var (
	askStrategy string
	askLimit    int
	askDepth    int
	askContexts []string
	askStats    bool
)

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askStrategy, "strategy", "both", "seed strategy (documents, entities, both)")
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "max seed results and subgraph entities")
	askCmd.Flags().IntVar(&askDepth, "depth", 0, "max traversal depth")
	askCmd.Flags().StringSliceVar(&askContexts, "contexts", nil, "restrict to facts from these context ids")
	askCmd.Flags().BoolVar(&askStats, "stats", false, "print per-stage timing")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	result, err := engine.Ask(ctx, strings.Join(args, " "), &memograph.AskOptions{
		Strategy:     memograph.Strategy(askStrategy),
		Limit:        askLimit,
		MaxDepth:     askDepth,
		Contexts:     askContexts,
		IncludeStats: askStats,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if result.Statistics != nil {
		s := result.Statistics
		fmt.Printf("\nseeds: %d documents, %d entities; subgraph: %d entities, %d relationships\n",
			s.DocumentsFound, s.EntitiesFound, s.SubgraphEntities, s.SubgraphRelationships)
		fmt.Printf("timing: search=%s subgraph=%s answer=%s total=%s\n",
			s.SearchTime, s.SubgraphTime, s.AnswerTime, s.TotalTime)
	}
	return nil
}
