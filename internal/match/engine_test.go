package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/profile"
)

type stubSimilarity struct {
	calls int
	fn    func(a, b string) (float64, error)
}

func (s *stubSimilarity) Similarity(_ context.Context, a, b string) (float64, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(a, b)
	}
	return 0.5, nil
}

type stubJudgment struct {
	judgeCalls    int
	validateCalls int
	judge         func(req ai.PairRequest) (*ai.PairAssessment, error)
	validate      func(shortlist []ai.ShortlistEntry) (*ai.ShortlistVerdict, error)
}

func (s *stubJudgment) JudgePair(_ context.Context, req ai.PairRequest) (*ai.PairAssessment, error) {
	s.judgeCalls++
	if s.judge != nil {
		return s.judge(req)
	}
	return &ai.PairAssessment{Score: 0.5, Justification: "ok"}, nil
}

func (s *stubJudgment) ValidateShortlist(_ context.Context, _ profile.Profile, shortlist []ai.ShortlistEntry) (*ai.ShortlistVerdict, error) {
	s.validateCalls++
	if s.validate != nil {
		return s.validate(shortlist)
	}
	return &ai.ShortlistVerdict{Good: true, Reason: "looks balanced"}, nil
}

func testUser() profile.Profile {
	return profile.Profile{
		ID:   "user-1",
		Name: "Dana",
		Give: "mentoring early stage founders on go-to-market strategy",
		Ask:  "introductions to climate tech investors",
	}
}

func testPool(n int) []profile.Profile {
	pool := make([]profile.Profile, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, profile.Profile{
			ID:   fmt.Sprintf("cand-%d", i),
			Name: fmt.Sprintf("Candidate %d", i),
			Give: fmt.Sprintf("offering number %d", i),
			Ask:  fmt.Sprintf("seeking number %d", i),
		})
	}
	return pool
}

func TestFindMatchesExcludesSelf(t *testing.T) {
	sim := &stubSimilarity{}
	judgment := &stubJudgment{}
	engine := NewEngine(sim, judgment, Config{}, nil)

	user := testUser()
	pool := append(testPool(4), user)

	result, err := engine.FindMatches(context.Background(), user, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, sc := range result.Shortlist {
		if sc.Profile.Key() == user.Key() {
			t.Fatalf("user %q appeared in its own shortlist", user.Name)
		}
	}

	// 4 candidates after exclusion, two similarity calls each.
	if sim.calls != 8 {
		t.Fatalf("similarity calls = %d, want 8", sim.calls)
	}
}

func TestFindMatchesExcludesSelfWithoutIDs(t *testing.T) {
	form := map[string]any{
		"name":         "Dana Reyes",
		"linkedin_url": "https://www.linkedin.com/in/danareyes",
		"give":         "mentoring early stage founders",
		"ask":          "introductions to climate investors",
	}

	user, err := profile.FromForm(form)
	if err != nil {
		t.Fatalf("decoding the user form: %v", err)
	}
	double, err := profile.FromForm(form)
	if err != nil {
		t.Fatalf("decoding the attendee form: %v", err)
	}

	sim := &stubSimilarity{}
	engine := NewEngine(sim, &stubJudgment{}, Config{}, nil)

	pool := append(testPool(3), *double)
	result, err := engine.FindMatches(context.Background(), *user, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, sc := range result.Shortlist {
		if sc.Profile.Name == user.Name {
			t.Fatalf("user %q matched with themselves", user.Name)
		}
	}
	// 3 candidates after exclusion, two similarity calls each.
	if sim.calls != 6 {
		t.Fatalf("similarity calls = %d, want 6", sim.calls)
	}
}

func TestFindMatchesExcludesSelfByLinkedinURL(t *testing.T) {
	user := testUser()
	user.LinkedinURL = "https://www.linkedin.com/in/dana"

	double := user
	double.ID = "another-id"
	double.LinkedinURL = "https://www.linkedin.com/in/DANA"

	sim := &stubSimilarity{}
	engine := NewEngine(sim, &stubJudgment{}, Config{}, nil)

	pool := append(testPool(3), double)
	result, err := engine.FindMatches(context.Background(), user, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, sc := range result.Shortlist {
		if sc.Profile.ID == double.ID {
			t.Fatalf("user matched with themselves under id %q", double.ID)
		}
	}
	if sim.calls != 6 {
		t.Fatalf("similarity calls = %d, want 6", sim.calls)
	}
}

func TestFindMatchesEmptyPool(t *testing.T) {
	sim := &stubSimilarity{}
	judgment := &stubJudgment{}
	engine := NewEngine(sim, judgment, Config{}, nil)

	user := testUser()

	result, err := engine.FindMatches(context.Background(), user, []profile.Profile{user})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Accepted {
		t.Error("empty pool must not be accepted")
	}
	if result.FinalReason != NoCandidatesReason {
		t.Errorf("final reason = %q, want %q", result.FinalReason, NoCandidatesReason)
	}
	if len(result.Shortlist) != 0 {
		t.Errorf("shortlist is not empty: %d entries", len(result.Shortlist))
	}
	if sim.calls != 0 || judgment.judgeCalls != 0 || judgment.validateCalls != 0 {
		t.Errorf("oracle calls made for empty pool: sim=%d judge=%d validate=%d",
			sim.calls, judgment.judgeCalls, judgment.validateCalls)
	}
}

func TestFindMatchesAcceptedFirstAttempt(t *testing.T) {
	engine := NewEngine(&stubSimilarity{}, &stubJudgment{}, Config{}, nil)

	result, err := engine.FindMatches(context.Background(), testUser(), testPool(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Accepted {
		t.Error("expected an accepted result")
	}
	if result.AttemptsUsed != 1 {
		t.Errorf("attempts used = %d, want 1", result.AttemptsUsed)
	}
	if len(result.Shortlist) != defaultTopK {
		t.Errorf("shortlist size = %d, want %d", len(result.Shortlist), defaultTopK)
	}
}

func TestFindMatchesShortlistSmallerThanTopK(t *testing.T) {
	engine := NewEngine(&stubSimilarity{}, &stubJudgment{}, Config{TopK: 3}, nil)

	result, err := engine.FindMatches(context.Background(), testUser(), testPool(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Shortlist) != 2 {
		t.Errorf("shortlist size = %d, want 2", len(result.Shortlist))
	}
}

func TestFindMatchesBoundedRetries(t *testing.T) {
	judgment := &stubJudgment{
		validate: func(_ []ai.ShortlistEntry) (*ai.ShortlistVerdict, error) {
			return &ai.ShortlistVerdict{Good: false, Reason: "shortlist is one-sided"}, nil
		},
	}
	engine := NewEngine(&stubSimilarity{}, judgment, Config{MaxAttempts: 3}, nil)

	result, err := engine.FindMatches(context.Background(), testUser(), testPool(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Accepted {
		t.Error("rejected run must not be accepted")
	}
	if result.AttemptsUsed != 3 {
		t.Errorf("attempts used = %d, want 3", result.AttemptsUsed)
	}
	if judgment.validateCalls != 3 {
		t.Errorf("validate calls = %d, want 3", judgment.validateCalls)
	}
	if result.FinalReason != "shortlist is one-sided" {
		t.Errorf("final reason = %q, want the rejection reason", result.FinalReason)
	}
	if len(result.Shortlist) == 0 {
		t.Error("exhausted run must still return the last shortlist")
	}
}

func TestFindMatchesRetryThenAccept(t *testing.T) {
	judgment := &stubJudgment{}
	judgment.validate = func(_ []ai.ShortlistEntry) (*ai.ShortlistVerdict, error) {
		if judgment.validateCalls == 1 {
			return &ai.ShortlistVerdict{Good: false, Reason: "try again"}, nil
		}
		return &ai.ShortlistVerdict{Good: true, Reason: "much better"}, nil
	}
	engine := NewEngine(&stubSimilarity{}, judgment, Config{}, nil)

	result, err := engine.FindMatches(context.Background(), testUser(), testPool(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Accepted {
		t.Error("expected an accepted result after the retry")
	}
	if result.AttemptsUsed != 2 {
		t.Errorf("attempts used = %d, want 2", result.AttemptsUsed)
	}
	if result.FinalReason != "much better" {
		t.Errorf("final reason = %q, want the accepting reason", result.FinalReason)
	}
}

func TestFindMatchesRanksComplementaryPairsHigher(t *testing.T) {
	user := profile.Profile{
		ID:   "user",
		Name: "Dana",
		Give: "seed fundraising advice",
		Ask:  "intros to ml engineers",
	}
	strong := profile.Profile{
		ID:   "strong",
		Name: "Alex",
		Give: "ml engineering network",
		Ask:  "seed fundraising advice",
	}
	weak := profile.Profile{
		ID:   "weak",
		Name: "Bo",
		Give: "pottery classes",
		Ask:  "sourdough recipes",
	}

	sim := &stubSimilarity{fn: func(a, b string) (float64, error) {
		if strings.Contains(b, "ml engineering") || strings.Contains(b, "seed fundraising") {
			return 0.9, nil
		}
		return 0.1, nil
	}}
	judgment := &stubJudgment{judge: func(req ai.PairRequest) (*ai.PairAssessment, error) {
		if req.OtherGive == strong.Give {
			return &ai.PairAssessment{Score: 0.9, Justification: "direct give/ask complement"}, nil
		}
		return &ai.PairAssessment{Score: 0.1, Justification: "no overlap"}, nil
	}}

	engine := NewEngine(sim, judgment, Config{}, nil)

	result, err := engine.FindMatches(context.Background(), user, []profile.Profile{weak, strong})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Shortlist[0].Profile.ID != "strong" {
		t.Errorf("top match = %q, want the complementary candidate", result.Shortlist[0].Profile.ID)
	}
	if result.Shortlist[0].BlendedScore <= result.Shortlist[1].BlendedScore {
		t.Errorf("shortlist not ordered: %.2f <= %.2f",
			result.Shortlist[0].BlendedScore, result.Shortlist[1].BlendedScore)
	}
}

func TestFindMatchesSimilarityErrorAborts(t *testing.T) {
	sim := &stubSimilarity{fn: func(_, _ string) (float64, error) {
		return 0, fmt.Errorf("embed content: %w", ai.ErrOracleUnavailable)
	}}
	engine := NewEngine(sim, &stubJudgment{}, Config{}, nil)

	_, err := engine.FindMatches(context.Background(), testUser(), testPool(3))
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("error = %v, want ErrOracleUnavailable", err)
	}
}

func TestFindMatchesValidationErrorAborts(t *testing.T) {
	judgment := &stubJudgment{
		validate: func(_ []ai.ShortlistEntry) (*ai.ShortlistVerdict, error) {
			return nil, fmt.Errorf("decode verdict: %w", ai.ErrSchemaViolation)
		},
	}
	engine := NewEngine(&stubSimilarity{}, judgment, Config{}, nil)

	_, err := engine.FindMatches(context.Background(), testUser(), testPool(3))
	if !errors.Is(err, ai.ErrSchemaViolation) {
		t.Fatalf("error = %v, want ErrSchemaViolation", err)
	}
}

func TestFindMatchesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(&stubSimilarity{}, &stubJudgment{}, Config{}, nil)

	_, err := engine.FindMatches(ctx, testUser(), testPool(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
