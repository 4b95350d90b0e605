package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/metrics"
	"github.com/openmixer/mixer/internal/profile"
)

// Engine runs the matchmaking loop for one (user, pool) pair at a time:
// score every candidate, select the top K, have the reflection oracle
// validate the shortlist, and retry from scoring when it rejects. The loop
// is bounded by MaxAttempts; when the last attempt is still rejected the
// shortlist is returned anyway with the rejection reason preserved.
//
// Engines are safe for concurrent use: all round state is local to one
// FindMatches call.
type Engine struct {
	scorer   *Scorer
	judgment ai.JudgmentOracle
	cfg      Config
	logger   *zap.Logger
}

func NewEngine(similarity ai.SimilarityOracle, judgment ai.JudgmentOracle, cfg Config, logger *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		scorer:   NewScorer(similarity, judgment, cfg, logger),
		judgment: judgment,
		cfg:      cfg,
		logger:   logger,
	}
}

// FindMatches produces a shortlist for the user from the candidate pool.
// The pool may contain the user; it is excluded by identity key and linkedin
// URL before any oracle call. An empty pool after exclusion returns an
// unaccepted empty result without touching the oracles.
func (e *Engine) FindMatches(ctx context.Context, user profile.Profile, pool []profile.Profile) (*Result, error) {
	candidates := excludeSelf(user, pool)
	if len(candidates) == 0 {
		e.logger.Info("no eligible candidates",
			zap.String("user", user.Name),
			zap.Int("pool_size", len(pool)),
		)
		return &Result{
			User:        user,
			Shortlist:   []ScoredCandidate{},
			Accepted:    false,
			FinalReason: NoCandidatesReason,
		}, nil
	}

	e.logger.Info("starting matchmaking",
		zap.String("user", user.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("top_k", e.cfg.TopK),
		zap.Int("max_attempts", e.cfg.MaxAttempts),
	)

	var round Round
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		metrics.MatchRounds.Inc()
		start := time.Now()

		// Full rescoring each round: new oracle calls, scores may differ.
		scored, err := e.scorer.ScoreAll(ctx, user, candidates)
		if err != nil {
			return nil, fmt.Errorf("scoring round %d: %w", attempt, err)
		}
		metrics.ObserveRoundDuration(start)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		shortlist := SelectTop(scored, e.cfg.TopK)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		verdict, err := e.validate(ctx, user, shortlist)
		if err != nil {
			return nil, fmt.Errorf("validation round %d: %w", attempt, err)
		}

		round = Round{
			Attempt:   attempt,
			Shortlist: shortlist,
			Validated: verdict.Good,
			Reason:    verdict.Reason,
		}

		e.logger.Info("shortlist validated",
			zap.String("user", user.Name),
			zap.Int("attempt", attempt),
			zap.Bool("validated", round.Validated),
			zap.String("reason", round.Reason),
		)

		if round.Validated {
			return &Result{
				User:         user,
				Shortlist:    round.Shortlist,
				Accepted:     true,
				FinalReason:  round.Reason,
				AttemptsUsed: attempt + 1,
			}, nil
		}

		if attempt+1 >= e.cfg.MaxAttempts {
			// Attempts exhausted: return the rejected shortlist rather
			// than nothing, keeping the rejection reason visible.
			e.logger.Warn("attempts exhausted, returning unvalidated shortlist",
				zap.String("user", user.Name),
				zap.Int("attempts_used", attempt+1),
				zap.String("reason", round.Reason),
			)
			return &Result{
				User:         user,
				Shortlist:    round.Shortlist,
				Accepted:     false,
				FinalReason:  round.Reason,
				AttemptsUsed: attempt + 1,
			}, nil
		}

		metrics.MatchRetries.Inc()
	}
}

func (e *Engine) validate(ctx context.Context, user profile.Profile, shortlist []ScoredCandidate) (*ai.ShortlistVerdict, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
	}
	defer cancel()

	verdict, err := e.judgment.ValidateShortlist(callCtx, user, shortlistEntries(shortlist))
	if err != nil {
		return nil, err
	}
	metrics.IncOracleCall("validate")

	return verdict, nil
}

// excludeSelf drops the user from the pool by identity key, and by linkedin
// URL as well: pools built from separately decoded payloads may carry the
// same person under differing ids.
func excludeSelf(user profile.Profile, pool []profile.Profile) []profile.Profile {
	key := user.Key()
	userURL := strings.TrimSpace(user.LinkedinURL)
	candidates := make([]profile.Profile, 0, len(pool))
	for _, p := range pool {
		if p.Key() == key {
			continue
		}
		if userURL != "" && strings.EqualFold(strings.TrimSpace(p.LinkedinURL), userURL) {
			continue
		}
		candidates = append(candidates, p)
	}
	return candidates
}

func shortlistEntries(shortlist []ScoredCandidate) []ai.ShortlistEntry {
	entries := make([]ai.ShortlistEntry, 0, len(shortlist))
	for _, sc := range shortlist {
		entries = append(entries, ai.ShortlistEntry{
			Name:          sc.Profile.Name,
			Title:         sc.Profile.Title,
			Give:          sc.Profile.Give,
			Ask:           sc.Profile.Ask,
			Tags:          sc.Profile.Tags,
			Score:         sc.BlendedScore,
			Justification: sc.Justification,
		})
	}
	return entries
}
