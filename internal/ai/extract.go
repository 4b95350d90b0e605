package ai

import (
	"context"

	"github.com/openmixer/mixer/internal/profile"
)

// Summary is the structured output of profile summarization.
type Summary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// GiveTakeEvaluation scores the quality of a user's give/ask statements.
type GiveTakeEvaluation struct {
	CompatibilityScore float64 `json:"compatibility_score"`
	GiveQuality        float64 `json:"give_quality_score"`
	TakeQuality        float64 `json:"take_quality_score"`
	Reasoning          string  `json:"reasoning"`
	MatchPotential     string  `json:"match_potential"`
}

// Extractor turns free profile text into structured data. Each method is a
// single request/response model call that may fail with OracleUnavailable
// or SchemaViolation.
type Extractor interface {
	SummarizeProfile(ctx context.Context, profileText string) (*Summary, error)
	InferGive(ctx context.Context, profileText string) (string, error)
	InferAsk(ctx context.Context, profileText string) (string, error)
	EvaluateGiveTake(ctx context.Context, p profile.Profile) (*GiveTakeEvaluation, error)
}
