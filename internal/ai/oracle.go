package ai

import (
	"context"
	"errors"

	"github.com/openmixer/mixer/internal/profile"
)

// ErrOracleUnavailable marks transport-level failures reaching a model
// backend. It is never masked by the judge fallback score.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// ErrSchemaViolation marks a structured response that could not be decoded
// into the expected shape.
var ErrSchemaViolation = errors.New("schema violation")

// PairRequest carries everything the judgment oracle needs to score one
// user/candidate pair. The two similarity scalars are included so the
// textual judgment is not blind to them.
type PairRequest struct {
	UserGive   string
	UserAsk    string
	OtherGive  string
	OtherAsk   string
	SimAskGive float64
	SimGiveAsk float64
}

// PairAssessment is the judgment oracle's verdict on a single pair.
// Fallback is true when the score could not be parsed from the response and
// a randomized stand-in was used instead.
type PairAssessment struct {
	Score         float64
	Justification string
	Fallback      bool
	Raw           string
}

// ShortlistEntry is the slice of a scored candidate the validation oracle
// sees. It deliberately excludes internal bookkeeping fields.
type ShortlistEntry struct {
	Name          string   `json:"name"`
	Title         string   `json:"title,omitempty"`
	Give          string   `json:"give"`
	Ask           string   `json:"ask"`
	Tags          []string `json:"tags,omitempty"`
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`
}

// ShortlistVerdict is the reflection oracle's accept/reject decision.
type ShortlistVerdict struct {
	Good   bool
	Reason string
}

// SimilarityOracle reports a scalar affinity between two pieces of text.
// Cosine similarity bounds the value to [-1,1]; values outside [0,1] are
// passed through without clamping.
type SimilarityOracle interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// JudgmentOracle wraps the two language-model call shapes used by matching.
//
// JudgePair degrades instead of failing when the response text contains no
// parseable score: the assessment carries a randomized fallback score in
// [0.4, 0.8]. Transport errors still fail. ValidateShortlist has no such
// fallback; an undecodable response is a hard error since it gates the
// retry decision.
type JudgmentOracle interface {
	JudgePair(ctx context.Context, req PairRequest) (*PairAssessment, error)
	ValidateShortlist(ctx context.Context, user profile.Profile, shortlist []ShortlistEntry) (*ShortlistVerdict, error)
}
