package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmixer/mixer/internal/match"
	"github.com/openmixer/mixer/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func testProfile(id string) profile.Profile {
	return profile.Profile{
		ID:          id,
		Name:        "Dana Reyes",
		LinkedinURL: "https://www.linkedin.com/in/" + id,
		About:       "Founder of a climate startup",
		Give:        "mentoring early stage founders",
		Ask:         "introductions to climate investors",
		Title:       "Founder",
		Tags:        []string{"climate", "fundraising"},
	}
}

func TestUpsertAndGetProfile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := testProfile("user-1")
	require.NoError(t, s.UpsertProfile(ctx, want))

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, want, *got)
}

func TestUpsertProfileReplacesByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testProfile("user-1")
	require.NoError(t, s.UpsertProfile(ctx, p))

	p.Give = "design portfolio reviews and hiring advice"
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, p.Give, got.Give)

	all, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetProfileNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProfiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProfile(ctx, testProfile("user-1")))
	require.NoError(t, s.UpsertProfile(ctx, testProfile("user-2")))

	all, err := s.ListProfiles(ctx)
	require.NoError(t, err)

	require.Len(t, all, 2)
	assert.Equal(t, "user-1", all[0].ID)
	assert.Equal(t, "user-2", all[1].ID)
}

func TestSaveAndGetMatchResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	resp := &match.Response{
		UserName: "Dana Reyes",
		Matches: []match.Match{
			{Name: "Alex", MatchPercentage: 88, MatchScore: 0.876},
		},
		TotalMatches: 1,
		Accepted:     true,
		FinalReason:  "balanced shortlist",
		AttemptsUsed: 2,
	}
	require.NoError(t, s.SaveMatchResult(ctx, "user-1", resp))

	got, err := s.GetMatchResult(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestSaveMatchResultReplacesPreviousRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := &match.Response{UserName: "Dana", Accepted: false, AttemptsUsed: 3}
	require.NoError(t, s.SaveMatchResult(ctx, "user-1", first))

	second := &match.Response{UserName: "Dana", Accepted: true, AttemptsUsed: 1}
	require.NoError(t, s.SaveMatchResult(ctx, "user-1", second))

	got, err := s.GetMatchResult(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, got.Accepted)
	assert.Equal(t, 1, got.AttemptsUsed)
}

func TestGetMatchResultNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetMatchResult(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
