package pool

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/profile"
)

// Filter represents a single eligibility step applied to a candidate pool
// before matchmaking.
type Filter interface {
	Name() string
	Apply(candidates []profile.Profile) ([]profile.Profile, Step, error)
}

// Step describes the result of executing one filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially and returns the remaining
// candidates.
func Run(logger *zap.Logger, steps []Filter, candidates []profile.Profile) ([]profile.Profile, error) {
	for _, step := range steps {
		next, info, err := step.Apply(candidates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil {
			logger.Info("pool filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		candidates = next
	}

	return candidates, nil
}

// Defaults returns the standard filter chain applied before every
// matchmaking run.
func Defaults() []Filter {
	return []Filter{
		NewComplete(),
		NewDedupe(),
	}
}

type completeFilter struct{}

// NewComplete creates a filter that removes profiles missing a give or ask
// statement. They cannot be scored.
func NewComplete() Filter {
	return &completeFilter{}
}

func (f *completeFilter) Name() string { return "complete_profile" }

func (f *completeFilter) Apply(candidates []profile.Profile) ([]profile.Profile, Step, error) {
	initial := len(candidates)
	kept := make([]profile.Profile, 0, initial)
	for _, c := range candidates {
		if strings.TrimSpace(c.Give) == "" || strings.TrimSpace(c.Ask) == "" {
			continue
		}
		kept = append(kept, c)
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type dedupeFilter struct{}

// NewDedupe creates a filter that removes duplicate registrations, keyed by
// linkedin URL when present and identity key otherwise. The first entry
// wins, preserving pool order.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) Apply(candidates []profile.Profile) ([]profile.Profile, Step, error) {
	initial := len(candidates)
	seen := make(map[string]struct{}, initial)
	kept := make([]profile.Profile, 0, initial)
	for _, c := range candidates {
		key := strings.TrimSpace(strings.ToLower(c.LinkedinURL))
		if key == "" {
			key = c.Key()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
