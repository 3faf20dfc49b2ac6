package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/memograph/pkg/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate graph counts for the configured scope",
	RunE:  runStats,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create database indices, constraints, and vector indexes",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(initCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := engine.GetStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("documents:     %d\n", stats.DocumentCount)
	fmt.Printf("entities:      %d\n", stats.EntityCount)
	fmt.Printf("relationships: %d\n", stats.RelationshipCount)
	fmt.Printf("contexts:      %d\n", stats.ContextCount)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
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

	if err := engine.CreateIndices(ctx); err != nil {
		return err
	}
	fmt.Println("indices created")
	return nil
}
