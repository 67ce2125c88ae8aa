package main

import (
	"fmt"
	"os"
	"os/signal"

	"ai-postgen-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Check a draft against stored content, optionally storing it afterwards",
	RunE:  runSimilarity,
}

var (
	simTitle     string
	simContent   string
	simFile      string
	simThreshold float64
	simStoreAs   string
)

func init() {
	similarityCmd.Flags().StringVar(&simTitle, "title", "", "Post title")
	similarityCmd.Flags().StringVar(&simContent, "content", "", "Post body")
	similarityCmd.Flags().StringVarP(&simFile, "file", "f", "", "Read the post body from a file")
	similarityCmd.Flags().Float64Var(&simThreshold, "threshold", 0, "Similarity threshold (0 uses the configured default)")
	similarityCmd.Flags().StringVar(&simStoreAs, "store-as", "", "Store the embedding under this post id after checking")

	rootCmd.AddCommand(similarityCmd)
}

func runSimilarity(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	content := simContent
	if simFile != "" {
		data, err := os.ReadFile(simFile)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		content = string(data)
	}

	container, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	res, err := container.SimilarityService.CheckSimilarity(ctx, dto.CheckSimilarityRequest{
		Title:               simTitle,
		Content:             content,
		SimilarityThreshold: simThreshold,
	})
	if err != nil {
		return err
	}
	printSimilarity(cmd.OutOrStdout(), res)

	if simStoreAs == "" {
		return nil
	}
	stored, err := container.SimilarityService.StoreEmbedding(ctx, dto.StoreEmbeddingRequest{
		PostId:  simStoreAs,
		Title:   simTitle,
		Content: content,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Stored embedding %s\n", stored.EmbeddingId)
	return nil
}
