package main

import (
	"fmt"
	"os"
	"os/signal"

	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/singlepass"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate three post variations in one LLM call",
	RunE:  runGenerate,
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run the multi-pass pipeline and print its events as they arrive",
	RunE:  runStream,
}

var (
	genTopic     string
	genIdea      string
	genProductID string
	genURL       string
	genDetail    string
	genSession   string
	genPlatform  string
	genPostID    string
	genJSON      bool
)

func init() {
	for _, cmd := range []*cobra.Command{generateCmd, streamCmd} {
		cmd.Flags().StringVar(&genTopic, "topic", "", "Post topic")
		cmd.Flags().StringVar(&genIdea, "idea", "", "Raw content idea")
		cmd.Flags().StringVar(&genProductID, "product", "", "Catalog product id")
		cmd.Flags().StringVar(&genURL, "url", "", "Product page URL")
		cmd.Flags().StringVar(&genDetail, "detail", "", "Extra instructions for the writer")
		cmd.Flags().BoolVar(&genJSON, "json", false, "Print raw JSON instead of formatted output")
	}
	streamCmd.Flags().StringVar(&genSession, "session", "", "Resume an existing session")
	streamCmd.Flags().StringVar(&genPlatform, "platform", "", "Target platform (facebook, instagram, tiktok, zalo, youtube, website)")
	streamCmd.Flags().StringVar(&genPostID, "post-id", "", "Store the final content under this post id")

	rootCmd.AddCommand(generateCmd, streamCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	container, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	res, err := container.GenerationService.Generate(ctx, singlepass.Request{
		Topic:             genTopic,
		Idea:              genIdea,
		ProductID:         genProductID,
		ProductURL:        genURL,
		DetailInstruction: genDetail,
	})
	if err != nil {
		return err
	}

	if genJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printVariations(cmd.OutOrStdout(), res)
	return nil
}

func runStream(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	container, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	events, sessionID, err := container.GenerationService.GenerateStream(ctx, pipeline.Request{
		SessionID:         genSession,
		Idea:              genIdea,
		Topic:             genTopic,
		ProductID:         genProductID,
		ProductURL:        genURL,
		PlatformHint:      genPlatform,
		DetailInstruction: genDetail,
		PostID:            genPostID,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !genJSON {
		color.New(color.FgCyan, color.Bold).Fprintf(out, "Session %s\n", sessionID)
	}

	var failed bool
	for ev := range events {
		if genJSON {
			if err := writeJSON(out, ev); err != nil {
				return err
			}
		} else {
			printEvent(out, ev)
		}
		failed = failed || ev.Type == pipeline.EventError
	}
	if failed {
		return fmt.Errorf("generation stopped, resume with --session %s", sessionID)
	}
	return nil
}
