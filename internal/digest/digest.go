package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"governai/internal/article"
)

const (
	NoHeadlinesMessage      = "No valid headlines to summarize. Please try again later."
	GenerationFailedMessage = "Could not generate content."

	CollectiveBullets = 5
	SourceBullets     = 3
)

type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFailed    Outcome = "failed"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is one generated summary. Text is always presentable; Bullets is
// Text split into its bullet lines.
type Result struct {
	Text    string   `json:"text"`
	Bullets []string `json:"bullets"`
	Outcome Outcome  `json:"outcome"`
	Items   int      `json:"items"`
}

type SourceInsight struct {
	Source string `json:"source"`
	Result
}

type Digest struct {
	Collective  Result          `json:"collective"`
	Sources     []SourceInsight `json:"sources"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

type Digester struct {
	generator Generator
}

func NewDigester(g Generator) *Digester {
	return &Digester{generator: g}
}

// Build produces the collective digest and the per-source insights.
func (d *Digester) Build(ctx context.Context, items []article.Article) Digest {
	return Digest{
		Collective:  d.Collective(ctx, items),
		Sources:     d.PerSource(ctx, items),
		GeneratedAt: time.Now().UTC(),
	}
}

// Collective summarises all titled items into the most important insights.
// With no usable item the model is not called.
func (d *Digester) Collective(ctx context.Context, items []article.Article) Result {
	var lines []string
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", it.Title, it.Summary))
	}
	if len(lines) == 0 {
		return Result{Text: NoHeadlinesMessage, Outcome: OutcomeEmpty}
	}

	prompt := fmt.Sprintf("You are summarizing recent news articles related to AI ethics and policy. "+
		"From the following headlines and summaries, extract the %d most important insights as short bullet points. "+
		"Use compact, professional language. Do not repeat headlines. Focus on substance.\n\n"+
		"%s\n\nRespond in bullet points only.", CollectiveBullets, strings.Join(lines, "\n"))

	return d.run(ctx, prompt, len(lines), "collective")
}

// PerSource writes trend insights for each source, in order of first appearance.
func (d *Digester) PerSource(ctx context.Context, items []article.Article) []SourceInsight {
	var order []string
	groups := make(map[string][]string)
	for _, it := range items {
		if it.Source == "" {
			continue
		}
		if _, seen := groups[it.Source]; !seen {
			order = append(order, it.Source)
			groups[it.Source] = nil
		}
		if t := strings.TrimSpace(it.Title); t != "" {
			groups[it.Source] = append(groups[it.Source], t)
		}
	}

	var out []SourceInsight
	for _, src := range order {
		titles := groups[src]
		if len(titles) == 0 {
			continue
		}
		var sb strings.Builder
		for _, t := range titles {
			sb.WriteString("- " + t + "\n")
		}
		prompt := fmt.Sprintf("You are analyzing AI ethics headlines from the source: %s. "+
			"From the list of titles below, write %d concise bullet-point insights. "+
			"Do not copy titles verbatim. Focus on the implied trend or issue:\n\n"+
			"%s\nRespond with %d concise bullet points.", src, SourceBullets, sb.String(), SourceBullets)

		out = append(out, SourceInsight{Source: src, Result: d.run(ctx, prompt, len(titles), src)})
	}
	return out
}

func (d *Digester) run(ctx context.Context, prompt string, items int, scope string) Result {
	text, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		slog.ErrorContext(ctx, "digest generation failed", "scope", scope, "error", err)
		return Result{Text: GenerationFailedMessage, Outcome: OutcomeFailed, Items: items}
	}
	return Result{Text: text, Bullets: Bullets(text), Outcome: OutcomeGenerated, Items: items}
}

// Bullets splits model output into bullet lines, dropping markers, blank
// lines and "Source:" echoes.
func Bullets(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		if l == "" || strings.HasPrefix(strings.ToLower(l), "source:") {
			continue
		}
		if r, size := utf8.DecodeRuneInString(l); strings.ContainsRune("*•-–·", r) && strings.HasPrefix(l[size:], " ") {
			l = strings.TrimSpace(l[size:])
		}
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
