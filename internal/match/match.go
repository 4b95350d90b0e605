package match

import (
	"time"

	"github.com/openmixer/mixer/internal/profile"
)

const (
	defaultTopK           = 3
	defaultMaxAttempts    = 3
	defaultJudgmentWeight = 0.7

	// NoCandidatesReason is reported when the pool is empty after
	// self-exclusion.
	NoCandidatesReason = "no candidates"
)

// Config tunes one matchmaking engine. The zero value is usable: defaults
// are applied on construction.
type Config struct {
	TopK           int           `mapstructure:"top-k"`
	MaxAttempts    int           `mapstructure:"max-attempts"`
	JudgmentWeight float64       `mapstructure:"judgment-weight"`
	CallTimeout    time.Duration `mapstructure:"call-timeout"`
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.JudgmentWeight <= 0 || c.JudgmentWeight > 1 {
		c.JudgmentWeight = defaultJudgmentWeight
	}
	return c
}

// ScoredCandidate is one candidate with its blended score. Immutable once
// computed; every retry round produces a fresh set.
type ScoredCandidate struct {
	Profile         profile.Profile
	JudgmentScore   float64
	SimilarityScore float64
	BlendedScore    float64
	Justification   string
}

// Round is the outcome of one scoring/selection/validation pass. Only the
// latest round is retained by the engine.
type Round struct {
	Attempt   int
	Shortlist []ScoredCandidate
	Validated bool
	Reason    string
}

// Result is the terminal output of one matchmaking run.
type Result struct {
	User         profile.Profile
	Shortlist    []ScoredCandidate
	Accepted     bool
	FinalReason  string
	AttemptsUsed int
}
