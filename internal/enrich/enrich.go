package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/linkedin"
	"github.com/openmixer/mixer/internal/profile"
)

// Report carries everything registration produces beyond the profile
// itself.
type Report struct {
	Profile    profile.Profile
	Evaluation *ai.GiveTakeEvaluation
	// Fetched is false when the scraper was unavailable and the profile
	// was enriched from the form data alone.
	Fetched bool
}

// Enricher runs the registration-time analysis for one profile: fetch the
// public profile text, produce summary and tags, evaluate give/take
// quality, and fill in missing give/ask statements from the profile text.
type Enricher struct {
	fetcher   linkedin.Fetcher
	extractor ai.Extractor
	logger    *zap.Logger
}

func New(fetcher linkedin.Fetcher, extractor ai.Extractor, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

// Enrich runs the analysis calls for the profile. Summarization and
// give/take evaluation are independent model calls and run concurrently.
// A scraper failure degrades to form-only enrichment rather than failing
// registration.
func (e *Enricher) Enrich(ctx context.Context, p profile.Profile) (*Report, error) {
	report := &Report{Profile: p}

	profileText := ""
	if e.fetcher != nil {
		raw, err := e.fetcher.FetchProfile(ctx, p.LinkedinURL)
		if err == nil {
			report.Fetched = true
			if report.Profile.Title == "" {
				report.Profile.Title = raw.Title
			}
			profileText = raw.Text()
		} else {
			e.logger.Warn("profile fetch failed, enriching from form data only",
				zap.String("linkedin_url", p.LinkedinURL),
				zap.Error(err),
			)
		}
	}
	if profileText == "" {
		profileText = formText(p)
	}

	var (
		wg      sync.WaitGroup
		summary *ai.Summary
		eval    *ai.GiveTakeEvaluation
		sumErr  error
		evalErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, sumErr = e.extractor.SummarizeProfile(ctx, profileText)
	}()
	go func() {
		defer wg.Done()
		eval, evalErr = e.extractor.EvaluateGiveTake(ctx, p)
	}()
	wg.Wait()

	if sumErr != nil {
		return nil, fmt.Errorf("summarize profile: %w", sumErr)
	}
	if evalErr != nil {
		return nil, fmt.Errorf("evaluate give/take: %w", evalErr)
	}

	report.Profile.Summary = summary.Summary
	report.Profile.Tags = summary.Tags
	report.Evaluation = eval

	if err := e.fillMissingStatements(ctx, &report.Profile, profileText); err != nil {
		return nil, err
	}

	return report, nil
}

func formText(p profile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	if p.About != "" {
		fmt.Fprintf(&b, "About: %s\n", p.About)
	}
	fmt.Fprintf(&b, "Give: %s\nAsk: %s\n", p.Give, p.Ask)
	return b.String()
}

func (e *Enricher) fillMissingStatements(ctx context.Context, p *profile.Profile, profileText string) error {
	if strings.TrimSpace(p.Give) == "" {
		give, err := e.extractor.InferGive(ctx, profileText)
		if err != nil {
			return fmt.Errorf("infer give: %w", err)
		}
		p.Give = give
	}

	if strings.TrimSpace(p.Ask) == "" {
		ask, err := e.extractor.InferAsk(ctx, profileText)
		if err != nil {
			return fmt.Errorf("infer ask: %w", err)
		}
		p.Ask = ask
	}

	return nil
}
