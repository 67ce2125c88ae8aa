// Package main provides a command line client for the generation pipeline
// that runs without the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"ai-postgen-be/internal/bootstrap"
	"ai-postgen-be/internal/config"
	"ai-postgen-be/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "postgen",
	Short: "Seafood social post generator",
	Long:  "Generates social media posts through the single-pass or multi-pass pipeline and checks drafts against previously published content.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadContainer wires the same components the server uses and starts the
// background workers.
func loadContainer(ctx context.Context) (*bootstrap.Container, error) {
	cfg := config.Load()

	var db *gorm.DB
	if cfg.Database.Connection != "" {
		gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		db = gormDB
	}

	container, err := bootstrap.NewContainer(ctx, db, cfg)
	if err != nil {
		return nil, err
	}
	container.Start(ctx)
	return container, nil
}
