package services

import (
	"context"
	"testing"

	"github.com/Dosada05/league-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTeamWithMembers(t *testing.T, env *testEnv, paidSigned, unpaid int) (*models.Season, *models.Team) {
	t.Helper()
	season := env.openSeason()
	team := env.store.addTeam(models.Team{SeasonID: season.ID, Name: "Wolves", TeamUID: "uid-1"})
	teamID := team.ID
	for i := 0; i < paidSigned; i++ {
		user := env.confirmedUser(string(rune('a'+i)) + "-ps@test.dev")
		env.store.addEntry(models.SeasonEntry{
			UserID: user.ID, SeasonID: season.ID, TeamID: &teamID, Paid: true, Signed: true,
		})
	}
	for i := 0; i < unpaid; i++ {
		user := env.confirmedUser(string(rune('a'+i)) + "-np@test.dev")
		env.store.addEntry(models.SeasonEntry{
			UserID: user.ID, SeasonID: season.ID, TeamID: &teamID,
		})
	}
	return season, team
}

func TestRecount_BelowThresholdStaysUnregistered(t *testing.T) {
	env := newTestEnv()
	_, team := seedTeamWithMembers(t, env, RegistrationThreshold-1, 5)

	registered, flipped, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)
	assert.False(t, registered)
	assert.False(t, flipped)
}

func TestRecount_ThresholdFlipsAndStampsDate(t *testing.T) {
	env := newTestEnv()
	_, team := seedTeamWithMembers(t, env, RegistrationThreshold, 0)

	registered, flipped, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)
	assert.True(t, registered)
	assert.True(t, flipped)

	updated, err := env.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)
	assert.True(t, updated.Registered)
	require.NotNil(t, updated.RegisteredDate)
}

func TestRecount_Idempotent(t *testing.T) {
	env := newTestEnv()
	_, team := seedTeamWithMembers(t, env, RegistrationThreshold, 0)

	_, flipped, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)
	require.True(t, flipped)

	first, err := env.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)

	// A second recount over the same roster changes nothing, the stamp
	// included.
	registered, flipped, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)
	assert.True(t, registered)
	assert.False(t, flipped)

	second, err := env.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Equal(t, first.RegisteredDate, second.RegisteredDate)
}

func TestRecount_DroppingBelowThresholdUnregisters(t *testing.T) {
	env := newTestEnv()
	_, team := seedTeamWithMembers(t, env, RegistrationThreshold, 0)

	_, _, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)

	// One registered member leaves.
	entries, err := env.entries.ListByTeam(context.Background(), team.ID)
	require.NoError(t, err)
	require.NoError(t, env.entries.ClearTeam(context.Background(), nil, entries[0].ID))

	registered, flipped, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)
	assert.False(t, registered)
	assert.True(t, flipped)

	updated, err := env.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)
	assert.False(t, updated.Registered)
	assert.Nil(t, updated.RegisteredDate)
}

func TestRecount_UnpaidMembersDoNotCount(t *testing.T) {
	env := newTestEnv()
	_, team := seedTeamWithMembers(t, env, RegistrationThreshold-1, 1)

	registered, _, err := env.registration.Recount(context.Background(), nil, team.ID)
	require.NoError(t, err)
	assert.False(t, registered, "an unpaid member must not count toward registration")
}
