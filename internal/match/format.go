package match

import (
	"fmt"
	"math"
	"strings"
)

// Match is the external representation of one shortlisted candidate.
type Match struct {
	Name            string   `json:"name"`
	LinkedinURL     string   `json:"linkedin_url"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Tags            []string `json:"tags"`
	MatchPercentage int      `json:"match_percentage"`
	MatchScore      float64  `json:"match_score"`
	JudgmentScore   float64  `json:"judgment_score"`
	SimilarityScore float64  `json:"similarity_score"`
	Reasoning       string   `json:"reasoning"`
}

// Response is the formatted output of one matchmaking run making up the
// API payload and the stored record.
type Response struct {
	UserName     string  `json:"user_name"`
	LinkedinURL  string  `json:"linkedin_url"`
	Matches      []Match `json:"matches"`
	TotalMatches int     `json:"total_matches"`
	Accepted     bool    `json:"accepted"`
	FinalReason  string  `json:"final_reason"`
	AttemptsUsed int     `json:"attempts_used"`
}

// Format maps a Result into the response shape. Blended score, ordering
// and attempts used survive losslessly; the percentage is derived.
func Format(result *Result) *Response {
	matches := make([]Match, 0, len(result.Shortlist))
	for _, sc := range result.Shortlist {
		matches = append(matches, Match{
			Name:            sc.Profile.Name,
			LinkedinURL:     sc.Profile.LinkedinURL,
			Title:           sc.Profile.Title,
			Summary:         sc.Profile.Summary,
			Tags:            sc.Profile.Tags,
			MatchPercentage: int(math.Round(sc.BlendedScore * 100)),
			MatchScore:      sc.BlendedScore,
			JudgmentScore:   sc.JudgmentScore,
			SimilarityScore: sc.SimilarityScore,
			Reasoning:       sc.Justification,
		})
	}

	return &Response{
		UserName:     result.User.Name,
		LinkedinURL:  result.User.LinkedinURL,
		Matches:      matches,
		TotalMatches: len(matches),
		Accepted:     result.Accepted,
		FinalReason:  result.FinalReason,
		AttemptsUsed: result.AttemptsUsed,
	}
}

// RenderText renders a result as console-friendly prose for the CLI.
func RenderText(result *Result) string {
	if len(result.Shortlist) == 0 {
		return "No good matches found. Try broadening your criteria."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, here are your top networking matches:\n\n", result.User.Name)
	for i, sc := range result.Shortlist {
		fmt.Fprintf(&b, "%d. %s\n", i+1, sc.Profile.Name)
		if sc.Profile.Title != "" {
			fmt.Fprintf(&b, "   Title: %s\n", sc.Profile.Title)
		}
		if sc.Profile.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", sc.Profile.Summary)
		}
		if len(sc.Profile.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(sc.Profile.Tags, ", "))
		}
		fmt.Fprintf(&b, "   LinkedIn: %s\n", sc.Profile.LinkedinURL)
		fmt.Fprintf(&b, "   Recommendation score: %.2f\n\n", sc.BlendedScore)
	}
	if result.FinalReason != "" {
		fmt.Fprintf(&b, "Reflection: %s\n", result.FinalReason)
	}
	return b.String()
}
