package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/profile"
)

//go:embed summary_prompt.md
var summaryPromptTemplate string

//go:embed evaluate_prompt.md
var evaluatePromptTemplate string

const (
	summarizerSystem = "You are an expert at analyzing professional profiles and extracting key insights for networking purposes."
	evaluatorSystem  = "You are an expert networking coach evaluating professional networking profiles."
	inferGiveSystem  = "You are an expert at identifying what professionals can offer in networking contexts."
	inferAskSystem   = "You are an expert at identifying what professionals are seeking in networking contexts."

	inferGivePrompt = "Based on this person's professional information, what can they offer to others in a networking context?\n\n%s\n\nProvide a concise statement (1-2 sentences) of what they can give/offer to others. Focus on their expertise, skills, knowledge, or connections they can share."
	inferAskPrompt  = "Based on this person's professional information, what are they likely looking for in a networking context?\n\n%s\n\nProvide a concise statement (1-2 sentences) of what they might be seeking. Consider their career stage, industry, and current role."
)

var summarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString, Description: "A concise 2-3 sentence summary of the person's background, expertise, and what they can offer"},
		"tags": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "5-8 relevant tags that capture their skills, industry, and expertise",
		},
	},
	Required: []string{"summary", "tags"},
}

var evaluationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"compatibility_score": {Type: genai.TypeNumber, Description: "Overall compatibility score (0-1)"},
		"give_quality_score":  {Type: genai.TypeNumber, Description: "Quality of what the user can offer (0-1)"},
		"take_quality_score":  {Type: genai.TypeNumber, Description: "Quality of what the user is seeking (0-1)"},
		"reasoning":           {Type: genai.TypeString, Description: "Detailed reasoning for the scores"},
		"match_potential":     {Type: genai.TypeString, Description: "Assessment of networking potential"},
	},
	Required: []string{"compatibility_score", "give_quality_score", "take_quality_score", "reasoning"},
}

// Extractor implements structured profile extraction on the Gemini
// generator.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
}

func NewExtractor(generator contentGenerator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{generator: generator, logger: logger}
}

func (e *Extractor) SummarizeProfile(ctx context.Context, profileText string) (*ai.Summary, error) {
	prompt := strings.ReplaceAll(summaryPromptTemplate, "{{PROFILE_TEXT}}", profileText)

	raw, err := e.generator.GenerateJSON(ctx, summarizerSystem, prompt, summarySchema)
	if err != nil {
		return nil, fmt.Errorf("%w: summarize profile: %v", ai.ErrOracleUnavailable, err)
	}

	var summary ai.Summary
	if err := json.Unmarshal([]byte(extractJSON(raw)), &summary); err != nil {
		return nil, fmt.Errorf("%w: parse summary: %v", ai.ErrSchemaViolation, err)
	}

	return &summary, nil
}

func (e *Extractor) InferGive(ctx context.Context, profileText string) (string, error) {
	raw, err := e.generator.GenerateContent(ctx, inferGiveSystem, fmt.Sprintf(inferGivePrompt, profileText))
	if err != nil {
		return "", fmt.Errorf("%w: infer give: %v", ai.ErrOracleUnavailable, err)
	}
	return strings.TrimSpace(raw), nil
}

func (e *Extractor) InferAsk(ctx context.Context, profileText string) (string, error) {
	raw, err := e.generator.GenerateContent(ctx, inferAskSystem, fmt.Sprintf(inferAskPrompt, profileText))
	if err != nil {
		return "", fmt.Errorf("%w: infer ask: %v", ai.ErrOracleUnavailable, err)
	}
	return strings.TrimSpace(raw), nil
}

func (e *Extractor) EvaluateGiveTake(ctx context.Context, p profile.Profile) (*ai.GiveTakeEvaluation, error) {
	prompt := evaluatePromptTemplate
	replacements := map[string]string{
		"{{NAME}}":  p.Name,
		"{{ABOUT}}": p.About,
		"{{GIVE}}":  p.Give,
		"{{ASK}}":   p.Ask,
	}
	for placeholder, value := range replacements {
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}

	raw, err := e.generator.GenerateJSON(ctx, evaluatorSystem, prompt, evaluationSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: evaluate give/take: %v", ai.ErrOracleUnavailable, err)
	}

	var eval ai.GiveTakeEvaluation
	if err := json.Unmarshal([]byte(extractJSON(raw)), &eval); err != nil {
		return nil, fmt.Errorf("%w: parse evaluation: %v", ai.ErrSchemaViolation, err)
	}

	return &eval, nil
}
