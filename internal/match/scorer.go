package match

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/metrics"
	"github.com/openmixer/mixer/internal/profile"
	"github.com/openmixer/mixer/internal/utils"
)

// Scorer computes blended scores for a user against a candidate pool. It
// holds no state between calls; oracle non-determinism flows straight
// through, so repeated calls for the same inputs may score differently.
type Scorer struct {
	similarity  ai.SimilarityOracle
	judgment    ai.JudgmentOracle
	weight      float64
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewScorer(similarity ai.SimilarityOracle, judgment ai.JudgmentOracle, cfg Config, logger *zap.Logger) *Scorer {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		similarity:  similarity,
		judgment:    judgment,
		weight:      cfg.JudgmentWeight,
		callTimeout: cfg.CallTimeout,
		logger:      logger,
	}
}

// ScoreAll scores every candidate sequentially and returns the unordered
// list. Candidates are expected to already exclude the user.
func (s *Scorer) ScoreAll(ctx context.Context, user profile.Profile, candidates []profile.Profile) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, 0, len(candidates))

	for _, candidate := range candidates {
		sc, err := s.score(ctx, user, candidate)
		if err != nil {
			return nil, fmt.Errorf("score candidate %q: %w", candidate.Name, err)
		}
		scored = append(scored, *sc)
	}

	return scored, nil
}

func (s *Scorer) score(ctx context.Context, user, candidate profile.Profile) (*ScoredCandidate, error) {
	// Cross terms: what the user seeks against what the candidate offers,
	// and the reverse. Never ask-to-ask.
	simAskGive, err := s.similarityCall(ctx, user.Ask, candidate.Give)
	if err != nil {
		return nil, err
	}

	simGiveAsk, err := s.similarityCall(ctx, user.Give, candidate.Ask)
	if err != nil {
		return nil, err
	}

	avgSimilarity := (simAskGive + simGiveAsk) / 2

	callCtx, cancel := s.withCallTimeout(ctx)
	assessment, err := s.judgment.JudgePair(callCtx, ai.PairRequest{
		UserGive:   user.Give,
		UserAsk:    user.Ask,
		OtherGive:  candidate.Give,
		OtherAsk:   candidate.Ask,
		SimAskGive: simAskGive,
		SimGiveAsk: simGiveAsk,
	})
	cancel()
	if err != nil {
		return nil, err
	}
	metrics.IncOracleCall("judge")

	blended := s.weight*assessment.Score + (1-s.weight)*avgSimilarity

	s.logger.Debug("candidate scored",
		zap.String("candidate", candidate.Name),
		zap.Float64("judgment_score", assessment.Score),
		zap.Float64("avg_similarity", avgSimilarity),
		zap.Float64("blended_score", blended),
		zap.Bool("judge_fallback", assessment.Fallback),
		zap.String("justification_preview", utils.TruncateForLog(assessment.Justification, 120)),
	)

	return &ScoredCandidate{
		Profile:         candidate,
		JudgmentScore:   assessment.Score,
		SimilarityScore: avgSimilarity,
		BlendedScore:    blended,
		Justification:   assessment.Justification,
	}, nil
}

func (s *Scorer) similarityCall(ctx context.Context, a, b string) (float64, error) {
	callCtx, cancel := s.withCallTimeout(ctx)
	defer cancel()

	sim, err := s.similarity.Similarity(callCtx, a, b)
	if err != nil {
		return 0, err
	}
	metrics.IncOracleCall("similarity")

	return sim, nil
}

func (s *Scorer) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// SelectTop orders the scored candidates by blended score descending and
// truncates to k. The sort is stable, so equal scores keep the pool order.
// Fewer than k candidates returns all of them.
func SelectTop(scored []ScoredCandidate, k int) []ScoredCandidate {
	shortlist := make([]ScoredCandidate, len(scored))
	copy(shortlist, scored)

	sort.SliceStable(shortlist, func(i, j int) bool {
		return shortlist[i].BlendedScore > shortlist[j].BlendedScore
	})

	if k > 0 && len(shortlist) > k {
		shortlist = shortlist[:k]
	}

	return shortlist
}
