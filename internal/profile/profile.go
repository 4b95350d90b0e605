package profile

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

const (
	linkedinPrefix = "https://www.linkedin.com/"
	minNameRunes   = 2
	minTextRunes   = 10
)

// Profile is a single attendee's networking profile. Ask is the canonical
// name for the seeking statement; the "take" alias used by some callers is
// folded into Ask at the ingestion boundary and never appears past it.
type Profile struct {
	ID          string   `json:"user_id,omitempty" mapstructure:"user_id"`
	Name        string   `json:"name" mapstructure:"name"`
	LinkedinURL string   `json:"linkedin_url" mapstructure:"linkedin_url"`
	About       string   `json:"about,omitempty" mapstructure:"about"`
	Give        string   `json:"give" mapstructure:"give"`
	Ask         string   `json:"ask" mapstructure:"ask"`
	Title       string   `json:"title,omitempty" mapstructure:"title"`
	Summary     string   `json:"summary,omitempty" mapstructure:"summary"`
	Tags        []string `json:"tags,omitempty" mapstructure:"tags"`
}

// Key returns the identity used for self-exclusion and storage lookups.
// Profiles registered through the API always carry an ID; hand-built pools
// in tests may only have names.
func (p Profile) Key() string {
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return strings.TrimSpace(p.Name)
}

// FromForm decodes a raw form payload into a Profile, accepting "take" as an
// alias for "ask". When both are present the canonical "ask" wins. The ID is
// left exactly as supplied: decoding the same person twice must yield the
// same identity key, so generated ids are assigned only at registration via
// EnsureID.
func FromForm(form map[string]any) (*Profile, error) {
	var p Profile
	if err := mapstructure.Decode(form, &p); err != nil {
		return nil, fmt.Errorf("decode form data: %w", err)
	}

	if strings.TrimSpace(p.Ask) == "" {
		if take, ok := form["take"].(string); ok {
			p.Ask = take
		}
	}

	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Give = strings.TrimSpace(p.Give)
	p.Ask = strings.TrimSpace(p.Ask)
	p.About = strings.TrimSpace(p.About)
	p.LinkedinURL = strings.TrimSpace(p.LinkedinURL)

	return &p, nil
}

// EnsureID assigns a generated id when none was supplied.
func (p *Profile) EnsureID() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
}

// Validate applies the registration constraints to the profile.
func (p *Profile) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(p.Name)) < minNameRunes {
		return errors.New("name must be at least 2 characters long")
	}

	if !strings.HasPrefix(p.LinkedinURL, linkedinPrefix) {
		return fmt.Errorf("linkedin url must start with %s", linkedinPrefix)
	}

	for field, value := range map[string]string{
		"give": p.Give,
		"ask":  p.Ask,
	} {
		if utf8.RuneCountInString(strings.TrimSpace(value)) < minTextRunes {
			return fmt.Errorf("%s must be at least %d characters long", field, minTextRunes)
		}
	}

	return nil
}
