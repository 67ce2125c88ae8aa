package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/singlepass"

	"github.com/fatih/color"
)

func printSimilarity(w io.Writer, res *dto.CheckSimilarityResponse) {
	if res.IsSimilar {
		color.New(color.FgRed, color.Bold).Fprintf(w, "⚠ %s\n", res.Warning)
	} else {
		color.New(color.FgGreen).Fprintf(w, "✔ Content looks unique (max similarity %.2f)\n", res.MaxSimilarity)
	}
	for _, hit := range res.SimilarContent {
		fmt.Fprintf(w, "  %.2f  %s  %s\n", hit.Score, hit.PostID, hit.Content)
	}
}

func printVariations(w io.Writer, res *singlepass.Result) {
	for i, v := range res.Variations {
		color.New(color.FgYellow, color.Bold).Fprintf(w, "\n[%d] %s (%s)\n", i+1, v.Title, v.Style)
		fmt.Fprintln(w, v.Body)
	}
	if len(res.Hashtags) > 0 {
		color.New(color.FgBlue).Fprintf(w, "\n%s\n", strings.Join(res.Hashtags, " "))
	}
}

func printEvent(w io.Writer, ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventPassStart:
		color.New(color.FgYellow).Fprintf(w, "\n▶ %s\n", ev.Pass)
	case pipeline.EventPassChunk:
		fmt.Fprint(w, ev.Text)
	case pipeline.EventPassComplete:
		color.New(color.FgGreen).Fprintf(w, "\n✔ %s\n", ev.Pass)
	case pipeline.EventError:
		color.New(color.FgRed).Fprintf(w, "\n✖ %s\n", ev.Message)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
