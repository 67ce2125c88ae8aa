// Package prompt builds the prompts for every generation pass and parses
// the structured answers that come back.
package prompt

import (
	"fmt"
	"strings"

	"ai-postgen-be/pkg/store"
	"ai-postgen-be/pkg/utils"
)

// Brand carries the retailer settings injected into every prompt.
type Brand struct {
	Name            string
	Voice           string
	Language        string
	Hotline         string
	Website         string
	DefaultHashtags string
}

// Input is what the caller asked for.
type Input struct {
	Idea              string
	Topic             string
	Product           *store.Product
	ProductURL        string
	PlatformHint      string
	DetailInstruction string
}

// Subject is the shortest description of what the post is about.
func (in Input) Subject() string {
	if in.Idea != "" {
		return in.Idea
	}
	if in.Topic != "" {
		return in.Topic
	}
	if in.Product != nil {
		return in.Product.Name
	}
	return in.ProductURL
}

const maxContextRunes = 1500

// Builder renders pass prompts for one brand.
type Builder struct {
	brand Brand
}

func NewBuilder(brand Brand) *Builder {
	if brand.Language == "" {
		brand.Language = "Vietnamese"
	}
	return &Builder{brand: brand}
}

func (b *Builder) Brand() Brand {
	return b.brand
}

// System is the persona shared by all content passes.
func (b *Builder) System() string {
	var prompt strings.Builder
	prompt.WriteString("You are the social media copywriter for ")
	if b.brand.Name != "" {
		prompt.WriteString(b.brand.Name)
	} else {
		prompt.WriteString("a seafood retailer")
	}
	prompt.WriteString(".\n")
	if b.brand.Voice != "" {
		fmt.Fprintf(&prompt, "Brand voice: %s.\n", b.brand.Voice)
	}
	fmt.Fprintf(&prompt, "Always write in %s.\n", b.brand.Language)
	prompt.WriteString("Never invent prices, certifications or health claims that are not given to you.")
	return prompt.String()
}

// ResearchQuery is the search query sent to the research provider.
func (b *Builder) ResearchQuery(in Input) string {
	parts := []string{in.Subject()}
	if in.Product != nil && in.Product.Name != in.Subject() {
		parts = append(parts, in.Product.Name)
	}
	parts = append(parts, "seafood social media marketing trends")
	return utils.JoinNonEmpty(" ", parts...)
}

func (b *Builder) Research(in Input, material string) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)

	prompt.WriteString("<research_material>\n")
	prompt.WriteString(utils.TruncateRunes(material, 4000))
	prompt.WriteString("\n</research_material>\n\n")

	prompt.WriteString("<task>\n")
	prompt.WriteString("Distil the research material into guidance for a social media post about the request.\n")
	prompt.WriteString("</task>\n\n")
	writeFormat(&prompt, `{"insights": ["..."], "risks": ["..."], "recommendedAngles": ["..."]}`)
	return prompt.String()
}

func (b *Builder) Idea(in Input, view *store.GenerationSession) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)
	writeResearch(&prompt, view)
	writeKnowledge(&prompt, view)

	prompt.WriteString("<task>\n")
	prompt.WriteString("Propose 3 to 5 distinct post ideas for the request and select the strongest one.\n")
	if in.Idea != "" {
		prompt.WriteString("The user already has an idea; refine it and keep it as one of the candidates.\n")
	}
	prompt.WriteString("</task>\n\n")
	writeFormat(&prompt, `{"ideas": ["..."], "selectedIdea": "..."}`)
	return prompt.String()
}

func (b *Builder) Angle(in Input, view *store.GenerationSession) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)
	writeResearch(&prompt, view)
	writeIdea(&prompt, in, view)

	prompt.WriteString("<task>\n")
	prompt.WriteString("Suggest 3 narrative angles for the selected idea (for example storytelling, freshness proof, limited offer) and select one.\n")
	prompt.WriteString("</task>\n\n")
	writeFormat(&prompt, `{"angles": ["..."], "selectedAngle": "..."}`)
	return prompt.String()
}

func (b *Builder) Outline(in Input, view *store.GenerationSession) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)
	writeKnowledge(&prompt, view)
	writeIdea(&prompt, in, view)
	writeAngle(&prompt, view)

	prompt.WriteString("<task>\n")
	prompt.WriteString("Write a numbered outline for the post: hook, body points, call to action.\n")
	prompt.WriteString("Also give a short catchy title and up to 6 hashtags on one line.\n")
	if b.brand.DefaultHashtags != "" {
		fmt.Fprintf(&prompt, "Include the brand hashtags: %s\n", b.brand.DefaultHashtags)
	}
	prompt.WriteString("</task>\n\n")
	writeFormat(&prompt, `{"outline": "1. ...\n2. ...", "title": "...", "hashtags": "#... #..."}`)
	return prompt.String()
}

func (b *Builder) Draft(in Input, view *store.GenerationSession) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)
	writeKnowledge(&prompt, view)
	writeIdea(&prompt, in, view)
	writeAngle(&prompt, view)

	if o := view.OutlinePass; o != nil {
		prompt.WriteString("<outline>\n")
		fmt.Fprintf(&prompt, "Title: %s\n%s\n", o.Title, o.Outline)
		if o.Hashtags != "" {
			fmt.Fprintf(&prompt, "Hashtags: %s\n", o.Hashtags)
		}
		prompt.WriteString("</outline>\n\n")
	}

	prompt.WriteString("<task>\n")
	prompt.WriteString("Write the full post following the outline. Plain text only, no markdown headings.\n")
	b.writeContact(&prompt)
	prompt.WriteString("End with the hashtags.\n")
	prompt.WriteString("</task>\n\n")
	prompt.WriteString("Write the post now:")
	return prompt.String()
}

func (b *Builder) Enhance(in Input, view *store.GenerationSession) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)

	prompt.WriteString("<draft>\n")
	if view.DraftPass != nil {
		prompt.WriteString(view.DraftPass.Draft)
	}
	prompt.WriteString("\n</draft>\n\n")

	prompt.WriteString("<task>\n")
	prompt.WriteString("Improve the draft: tighten the hook, fix grammar, keep the facts and the length roughly the same.\n")
	prompt.WriteString("Return only the improved post.\n")
	prompt.WriteString("</task>\n\n")
	prompt.WriteString("Improved post:")
	return prompt.String()
}

func (b *Builder) Scoring(in Input, content string) string {
	var prompt strings.Builder
	b.writeRequest(&prompt, in)

	prompt.WriteString("<post>\n")
	prompt.WriteString(content)
	prompt.WriteString("\n</post>\n\n")

	prompt.WriteString("<task>\n")
	prompt.WriteString("Score the post on clarity, engagement, brandVoice, platformFit and safety, each an integer from 0 to 20.\n")
	prompt.WriteString("List concrete weaknesses and a suggested fix for each.\n")
	prompt.WriteString("</task>\n\n")
	writeFormat(&prompt, `{"scoreBreakdown": {"clarity": 0, "engagement": 0, "brandVoice": 0, "platformFit": 0, "safety": 0}, "weaknesses": ["..."], "suggestedFixes": ["..."]}`)
	return prompt.String()
}

func (b *Builder) writeRequest(prompt *strings.Builder, in Input) {
	prompt.WriteString("<request>\n")
	if in.Topic != "" {
		fmt.Fprintf(prompt, "Topic: %s\n", in.Topic)
	}
	if in.Idea != "" {
		fmt.Fprintf(prompt, "Idea: %s\n", in.Idea)
	}
	if in.PlatformHint != "" {
		fmt.Fprintf(prompt, "Platform: %s\n", in.PlatformHint)
	}
	if in.ProductURL != "" {
		fmt.Fprintf(prompt, "Product page: %s\n", in.ProductURL)
	}
	if p := in.Product; p != nil {
		fmt.Fprintf(prompt, "Product: %s\n", p.Name)
		if p.Price > 0 {
			fmt.Fprintf(prompt, "Price: %.0f/%s\n", p.Price, p.Unit)
		}
		if p.Description != "" {
			fmt.Fprintf(prompt, "Description: %s\n", utils.TruncateRunes(p.Description, 600))
		}
	}
	if in.DetailInstruction != "" {
		fmt.Fprintf(prompt, "Extra instructions: %s\n", in.DetailInstruction)
	}
	prompt.WriteString("</request>\n\n")
}

func (b *Builder) writeContact(prompt *strings.Builder) {
	if b.brand.Hotline != "" {
		fmt.Fprintf(prompt, "Mention the hotline %s in the call to action.\n", b.brand.Hotline)
	}
	if b.brand.Website != "" {
		fmt.Fprintf(prompt, "Mention the website %s.\n", b.brand.Website)
	}
}

func writeResearch(prompt *strings.Builder, view *store.GenerationSession) {
	r := view.ResearchPass
	if r == nil || (len(r.Insights) == 0 && len(r.RecommendedAngles) == 0) {
		return
	}
	prompt.WriteString("<research>\n")
	writeList(prompt, "Insights", r.Insights)
	writeList(prompt, "Risks to avoid", r.Risks)
	writeList(prompt, "Recommended angles", r.RecommendedAngles)
	prompt.WriteString("</research>\n\n")
}

func writeKnowledge(prompt *strings.Builder, view *store.GenerationSession) {
	if view.RAGPass == nil || view.RAGPass.RAGContext == "" {
		return
	}
	prompt.WriteString("<previous_content>\n")
	prompt.WriteString(utils.TruncateRunes(view.RAGPass.RAGContext, maxContextRunes))
	prompt.WriteString("\n</previous_content>\n")
	prompt.WriteString("Do not repeat the previous content above.\n\n")
}

func writeIdea(prompt *strings.Builder, in Input, view *store.GenerationSession) {
	idea := in.Subject()
	if view.IdeaPass != nil && view.IdeaPass.SelectedIdea != "" {
		idea = view.IdeaPass.SelectedIdea
	}
	fmt.Fprintf(prompt, "<idea>\n%s\n</idea>\n\n", idea)
}

func writeAngle(prompt *strings.Builder, view *store.GenerationSession) {
	if view.AnglePass == nil || view.AnglePass.SelectedAngle == "" {
		return
	}
	fmt.Fprintf(prompt, "<angle>\n%s\n</angle>\n\n", view.AnglePass.SelectedAngle)
}

func writeList(prompt *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	prompt.WriteString(label)
	prompt.WriteString(":\n")
	for _, item := range items {
		prompt.WriteString("- ")
		prompt.WriteString(item)
		prompt.WriteString("\n")
	}
}

func writeFormat(prompt *strings.Builder, shape string) {
	prompt.WriteString("Respond with JSON only, exactly in this shape:\n")
	prompt.WriteString(shape)
}
