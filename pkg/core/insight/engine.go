package insight

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"financial_analyzer/pkg/core/agent"
	"financial_analyzer/pkg/core/filing"
	"financial_analyzer/pkg/core/llm"
	"financial_analyzer/pkg/core/prompt"
	"financial_analyzer/pkg/core/utils"
	"financial_analyzer/pkg/logger"
)

// DefaultMaxSectionChars bounds the section text sent to the model.
const DefaultMaxSectionChars = 12000

// Used when resources/prompts is not loaded.
const fallbackSystemPrompt = `You are extracting filing insights for a financial analysis app.
Use only the provided SEC filing text. Do not infer beyond this text.

Return JSON only with these exact keys:
- revenue_trends: string[]
- debt_risk_signals: string[]
- risk_factor_highlights: string[]
- red_flags: string[]
- management_commentary: string[]
- evidence_quotes: string[]
- confidence: number between 0 and 1

Rules:
- If evidence is insufficient, use empty arrays.
- Keep bullets concise.
- Include brief quote-like snippets in evidence_quotes copied verbatim from the text.`

const fallbackUserPrompt = "Form: {{.Form}}\nSection: {{.Section}}\nText:\n{{.Text}}"

// PromptExecutor sends one prompt for an agent type. *agent.Manager satisfies it.
type PromptExecutor interface {
	ExecutePrompt(ctx context.Context, agentType string, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// Result is the merged narrative output for a filing plus aligned evidence.
type Result struct {
	Bundle        Bundle         `json:"bundle"`
	EvidenceSpans []EvidenceSpan `json:"evidence_spans"`
}

// Engine runs the section analyst prompt over filing sections.
type Engine struct {
	executor        PromptExecutor
	registry        *prompt.Registry
	MaxSectionChars int
	// Concurrency is the number of sections analyzed in parallel. Values
	// below 1 mean sequential.
	Concurrency int
	log         *logger.Logger
}

// NewEngine uses the global prompt registry when registry is nil.
func NewEngine(executor PromptExecutor, registry *prompt.Registry, maxSectionChars int, log *logger.Logger) *Engine {
	if registry == nil {
		registry = prompt.Get()
	}
	if maxSectionChars <= 0 {
		maxSectionChars = DefaultMaxSectionChars
	}
	return &Engine{
		executor:        executor,
		registry:        registry,
		MaxSectionChars: maxSectionChars,
		Concurrency:     1,
		log:             logger.OrNop(log),
	}
}

// Analyze asks the model for one section's insights and normalizes whatever
// comes back. Only transport or provider failures are returned as errors.
func (e *Engine) Analyze(ctx context.Context, documentType, sectionName, sectionText string) (Bundle, error) {
	system, user, err := e.buildPrompt(documentType, sectionName, utils.Truncate(sectionText, e.MaxSectionChars))
	if err != nil {
		return EmptyBundle(), err
	}

	options := map[string]interface{}{
		llm.OptTemperature: 0.0,
		llm.OptJSON:        true,
	}
	raw, err := e.executor.ExecutePrompt(ctx, agent.SectionAnalyst, user, system, options)
	if err != nil {
		return EmptyBundle(), fmt.Errorf("analyze section %s: %w", sectionName, err)
	}

	payload := ExtractJSONBlock(raw)
	if len(payload) == 0 {
		e.log.Warn("section analysis returned no JSON object", "section", sectionName, "response_chars", len(raw))
	}
	return NormalizePayload(payload), nil
}

func (e *Engine) buildPrompt(documentType, sectionName, text string) (string, string, error) {
	pt, err := e.registry.GetPrompt(prompt.PromptIDs.SectionAnalysis)
	if err != nil {
		pt = &prompt.PromptTemplate{
			ID:             prompt.PromptIDs.SectionAnalysis,
			SystemPrompt:   fallbackSystemPrompt,
			UserPromptTmpl: fallbackUserPrompt,
		}
	}
	pctx := prompt.NewContext().
		Set("Form", documentType).
		Set("Section", sectionName).
		Set("Text", text)
	user, err := prompt.RenderUserPrompt(pt, pctx)
	if err != nil {
		return "", "", fmt.Errorf("render prompt %s: %w", pt.ID, err)
	}
	return pt.SystemPrompt, user, nil
}

// ExtractFromSpans analyzes every non-blank span, merges the bundles in
// section order and aligns the merged evidence quotes onto the spans.
func (e *Engine) ExtractFromSpans(ctx context.Context, documentType string, spans *filing.SpanSet) (*Result, error) {
	sections := spans.Spans()
	bundles := make([]Bundle, len(sections))
	ran := make([]bool, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.Concurrency))
	for i, sp := range sections {
		if strings.TrimSpace(sp.Text) == "" {
			continue
		}
		g.Go(func() error {
			b, err := e.Analyze(gctx, documentType, sp.Name, sp.Text)
			if err != nil {
				return err
			}
			bundles[i] = b
			ran[i] = true
			e.log.Debug("section analyzed", "section", sp.Name, "confidence", b.Confidence)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ordered := make([]Bundle, 0, len(bundles))
	for i, b := range bundles {
		if ran[i] {
			ordered = append(ordered, b)
		}
	}
	merged := MergeBundles(ordered)
	return &Result{
		Bundle:        merged,
		EvidenceSpans: AlignEvidence(merged.EvidenceQuotes, spans),
	}, nil
}
