package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmixer/mixer/internal/profile"
)

func TestCompleteFilterDropsIncompleteProfiles(t *testing.T) {
	candidates := []profile.Profile{
		{ID: "a", Give: "mentoring", Ask: "intros"},
		{ID: "b", Give: "", Ask: "intros"},
		{ID: "c", Give: "mentoring", Ask: "   "},
		{ID: "d", Give: "design reviews", Ask: "beta users"},
	}

	kept, step, err := NewComplete().Apply(candidates)
	require.NoError(t, err)

	assert.Equal(t, Step{Initial: 4, Dropped: 2, Left: 2}, step)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "d", kept[1].ID)
}

func TestDedupeFilterKeepsFirstEntry(t *testing.T) {
	candidates := []profile.Profile{
		{ID: "a", LinkedinURL: "https://www.linkedin.com/in/dana"},
		{ID: "b", LinkedinURL: "https://www.LINKEDIN.com/in/DANA"},
		{ID: "c", LinkedinURL: "https://www.linkedin.com/in/alex"},
	}

	kept, step, err := NewDedupe().Apply(candidates)
	require.NoError(t, err)

	assert.Equal(t, 1, step.Dropped)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID, "first registration wins")
	assert.Equal(t, "c", kept[1].ID)
}

func TestDedupeFilterFallsBackToKey(t *testing.T) {
	candidates := []profile.Profile{
		{Name: "Dana"},
		{Name: "Dana"},
		{Name: "Alex"},
	}

	kept, _, err := NewDedupe().Apply(candidates)
	require.NoError(t, err)

	require.Len(t, kept, 2)
}

func TestRunAppliesFiltersInOrder(t *testing.T) {
	candidates := []profile.Profile{
		{ID: "a", LinkedinURL: "https://www.linkedin.com/in/dana", Give: "mentoring", Ask: "intros"},
		{ID: "b", LinkedinURL: "https://www.linkedin.com/in/dana", Give: "mentoring", Ask: "intros"},
		{ID: "c", Give: "", Ask: "intros"},
	}

	kept, err := Run(nil, Defaults(), candidates)
	require.NoError(t, err)

	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].ID)
}
