package match

import (
	"strings"
	"testing"

	"github.com/openmixer/mixer/internal/profile"
)

func TestFormatDerivesPercentage(t *testing.T) {
	result := &Result{
		User: profile.Profile{Name: "Dana", LinkedinURL: "https://www.linkedin.com/in/dana"},
		Shortlist: []ScoredCandidate{
			{
				Profile:         profile.Profile{Name: "Alex"},
				BlendedScore:    0.876,
				JudgmentScore:   0.9,
				SimilarityScore: 0.82,
				Justification:   "complementary asks",
			},
		},
		Accepted:     true,
		FinalReason:  "balanced shortlist",
		AttemptsUsed: 1,
	}

	resp := Format(result)

	if resp.TotalMatches != 1 {
		t.Fatalf("total matches = %d, want 1", resp.TotalMatches)
	}
	m := resp.Matches[0]
	if m.MatchPercentage != 88 {
		t.Errorf("match percentage = %d, want 88", m.MatchPercentage)
	}
	if m.MatchScore != 0.876 {
		t.Errorf("match score = %v, want the blended score unrounded", m.MatchScore)
	}
	if !resp.Accepted || resp.AttemptsUsed != 1 {
		t.Errorf("accepted=%v attempts=%d, want true/1", resp.Accepted, resp.AttemptsUsed)
	}
}

func TestRenderTextEmptyShortlist(t *testing.T) {
	out := RenderText(&Result{User: profile.Profile{Name: "Dana"}})

	if !strings.Contains(out, "No good matches found") {
		t.Errorf("unexpected empty-shortlist text: %q", out)
	}
}

func TestRenderTextListsMatches(t *testing.T) {
	result := &Result{
		User: profile.Profile{Name: "Dana"},
		Shortlist: []ScoredCandidate{
			{
				Profile: profile.Profile{
					Name:        "Alex",
					Title:       "Founder",
					LinkedinURL: "https://www.linkedin.com/in/alex",
					Tags:        []string{"fundraising", "ml"},
				},
				BlendedScore: 0.81,
			},
		},
		FinalReason: "well rounded",
	}

	out := RenderText(result)

	for _, want := range []string{"Hi Dana", "1. Alex", "Founder", "fundraising, ml", "0.81", "Reflection: well rounded"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered text missing %q:\n%s", want, out)
		}
	}
}
