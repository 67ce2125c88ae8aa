// Package singlepass produces a complete post and three style variations
// from one LLM call.
package singlepass

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/llm"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/store"

	"github.com/xeipuuv/gojsonschema"
)

const (
	module      = "SINGLE_PASS"
	temperature = 0.8
	maxTokens   = 2048
)

// Styles are the variation styles every answer must cover exactly once.
var Styles = []string{"professional", "casual", "promotional"}

type Request struct {
	Topic             string `json:"topic" validate:"required_without_all=Idea ProductURL ProductID,max=500"`
	Idea              string `json:"idea" validate:"max=2000"`
	ProductID         string `json:"productId" validate:"max=64"`
	ProductURL        string `json:"productUrl" validate:"omitempty,url"`
	DetailInstruction string `json:"detailInstruction" validate:"max=2000"`
}

type Variation struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Style string `json:"style"`
}

type Result struct {
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	Hashtags   []string    `json:"hashtags"`
	Variations []Variation `json:"variations"`
}

// ProductLookup resolves catalog details; (nil, nil) means unknown.
type ProductLookup interface {
	Lookup(ctx context.Context, productID string) (*store.Product, error)
}

type Generator struct {
	llm      llm.LLMProvider
	prompts  *prompt.Builder
	products ProductLookup
	schema   *gojsonschema.Schema
	logger   logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, prompts *prompt.Builder, products ProductLookup, log logger.ILogger) (*Generator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("compile single-pass schema: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{llm: provider, prompts: prompts, products: products, schema: schema, logger: log}, nil
}

// Generate returns the parsed answer verbatim. Nothing is persisted.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Idea = strings.TrimSpace(req.Idea)
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.ProductURL = strings.TrimSpace(req.ProductURL)
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	in := prompt.Input{
		Topic:             req.Topic,
		Idea:              req.Idea,
		ProductURL:        req.ProductURL,
		DetailInstruction: req.DetailInstruction,
	}
	if req.ProductID != "" && g.products != nil {
		product, err := g.products.Lookup(ctx, req.ProductID)
		if err != nil {
			return nil, apperror.External("product_catalog", err)
		}
		in.Product = product
	}

	res, err := g.llm.Generate(ctx, g.buildPrompt(in),
		llm.WithSystemPrompt(g.prompts.System()),
		llm.WithTemperature(temperature),
		llm.WithMaxTokens(maxTokens),
		llm.WithJSONFormat(),
	)
	if err != nil {
		g.logger.Error(module, "LLM call failed", map[string]interface{}{"error": err})
		return nil, apperror.External("llm", err)
	}

	result, err := g.parse(res.Content)
	if err != nil {
		g.logger.Warn(module, "Rejected malformed response", map[string]interface{}{
			"error":        err,
			"response_len": len(res.Content),
		})
		return nil, err
	}

	g.logger.Info(module, "Post generated", map[string]interface{}{
		"model":         res.Model,
		"input_tokens":  res.Usage.InputTokens,
		"output_tokens": res.Usage.OutputTokens,
	})
	return result, nil
}

func (g *Generator) parse(raw string) (*Result, error) {
	cleaned := llm.CleanJSONBlock(raw)

	validation, err := g.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, &apperror.MalformedResponseError{Pass: "single-pass", Message: "invalid JSON", Raw: raw, Cause: err}
	}
	if !validation.Valid() {
		problems := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &apperror.MalformedResponseError{Pass: "single-pass", Message: strings.Join(problems, "; "), Raw: raw}
	}

	var out Result
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &apperror.MalformedResponseError{Pass: "single-pass", Message: "invalid JSON", Raw: raw, Cause: err}
	}

	seen := make(map[string]bool, len(Styles))
	for _, v := range out.Variations {
		if seen[v.Style] {
			return nil, &apperror.MalformedResponseError{Pass: "single-pass", Message: fmt.Sprintf("style %q appears twice", v.Style), Raw: raw}
		}
		seen[v.Style] = true
	}
	return &out, nil
}

func (g *Generator) buildPrompt(in prompt.Input) string {
	var b strings.Builder
	brand := g.prompts.Brand()

	b.WriteString("<brand>\n")
	fmt.Fprintf(&b, "Name: %s\n", brand.Name)
	if brand.Voice != "" {
		fmt.Fprintf(&b, "Voice: %s\n", brand.Voice)
	}
	if brand.Hotline != "" {
		fmt.Fprintf(&b, "Hotline: %s\n", brand.Hotline)
	}
	if brand.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", brand.Website)
	}
	if brand.DefaultHashtags != "" {
		fmt.Fprintf(&b, "Default hashtags: %s\n", brand.DefaultHashtags)
	}
	b.WriteString("</brand>\n\n")

	b.WriteString("<request>\n")
	if in.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", in.Topic)
	}
	if in.Idea != "" {
		fmt.Fprintf(&b, "Idea: %s\n", in.Idea)
	}
	if in.ProductURL != "" {
		fmt.Fprintf(&b, "Product page: %s\n", in.ProductURL)
	}
	if p := in.Product; p != nil {
		fmt.Fprintf(&b, "Product: %s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
		if p.Price > 0 {
			fmt.Fprintf(&b, "Price: %.0f/%s\n", p.Price, p.Unit)
		}
	}
	if in.DetailInstruction != "" {
		fmt.Fprintf(&b, "Extra instructions: %s\n", in.DetailInstruction)
	}
	b.WriteString("</request>\n\n")

	b.WriteString("<task>\n")
	b.WriteString("Write one social media post for the request, then three variations of it:\n")
	b.WriteString("one professional, one casual and one promotional.\n")
	b.WriteString("</task>\n\n")
	b.WriteString("Respond with JSON only, exactly in this shape:\n")
	b.WriteString(`{"title": "...", "body": "...", "hashtags": ["#..."], "variations": [{"title": "...", "body": "...", "style": "professional"}, {"title": "...", "body": "...", "style": "casual"}, {"title": "...", "body": "...", "style": "promotional"}]}`)
	return b.String()
}
