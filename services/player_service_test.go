package services

import (
	"context"
	"testing"
	"time"

	"github.com/chip-race/league-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPlayer(t *testing.T, svc PlayerService, name string) *models.Player {
	t.Helper()
	player, err := svc.CreatePlayer(context.Background(), PlayerInput{Name: name})
	require.NoError(t, err)
	return player
}

func TestCreatePlayer(t *testing.T) {
	svc := NewPlayerService(newFakePlayerRepo(), nil)
	ctx := context.Background()

	player := createTestPlayer(t, svc, "Alice")
	assert.NotEmpty(t, player.ID)
	assert.Equal(t, 1, player.Level())

	_, err := svc.CreatePlayer(ctx, PlayerInput{Name: "Alice"})
	assert.ErrorIs(t, err, ErrPlayerNameConflict)

	_, err = svc.CreatePlayer(ctx, PlayerInput{Name: "   "})
	assert.ErrorIs(t, err, ErrPlayerNameRequired)
}

func TestClaimDailyReward(t *testing.T) {
	repo := newFakePlayerRepo()
	svc := NewPlayerService(repo, nil)
	ctx := context.Background()
	player := createTestPlayer(t, svc, "Alice")

	claimed, err := svc.ClaimDailyReward(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed.DailyStreak)
	assert.Equal(t, 50, claimed.XP)

	_, err = svc.ClaimDailyReward(ctx, player.ID)
	assert.ErrorIs(t, err, ErrDailyAlreadyClaimed)
}

func TestClaimDailyRewardStreak(t *testing.T) {
	repo := newFakePlayerRepo()
	svc := NewPlayerService(repo, nil)
	ctx := context.Background()
	player := createTestPlayer(t, svc, "Alice")

	// A claim yesterday continues the streak.
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	player.DailyStreak = 3
	player.LastDailyClaim = &yesterday
	require.NoError(t, repo.Update(ctx, player))

	claimed, err := svc.ClaimDailyReward(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, claimed.DailyStreak)
	// 50 base + 3 streak days of bonus
	assert.Equal(t, 80, claimed.XP)
}

func TestClaimDailyRewardStreakResets(t *testing.T) {
	repo := newFakePlayerRepo()
	svc := NewPlayerService(repo, nil)
	ctx := context.Background()
	player := createTestPlayer(t, svc, "Alice")

	lastWeek := time.Now().UTC().Add(-7 * 24 * time.Hour)
	player.DailyStreak = 12
	player.LastDailyClaim = &lastWeek
	require.NoError(t, repo.Update(ctx, player))

	claimed, err := svc.ClaimDailyReward(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed.DailyStreak)
	assert.Equal(t, 50, claimed.XP)
}

func TestActivateVIP(t *testing.T) {
	svc := NewPlayerService(newFakePlayerRepo(), nil)
	ctx := context.Background()
	player := createTestPlayer(t, svc, "Alice")

	_, err := svc.ActivateVIP(ctx, player.ID, 0)
	assert.ErrorIs(t, err, ErrVIPDurationInvalid)

	activated, err := svc.ActivateVIP(ctx, player.ID, 30)
	require.NoError(t, err)
	require.NotNil(t, activated.VIPUntil)
	assert.True(t, activated.IsVIP(time.Now()))
	firstUntil := *activated.VIPUntil

	// A second purchase extends from the current end date.
	extended, err := svc.ActivateVIP(ctx, player.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, firstUntil.AddDate(0, 0, 30), *extended.VIPUntil)
}

func TestListPlayersFuzzySearch(t *testing.T) {
	svc := NewPlayerService(newFakePlayerRepo(), nil)
	ctx := context.Background()

	createTestPlayer(t, svc, "João Pereira")
	createTestPlayer(t, svc, "Maria Silva")
	createTestPlayer(t, svc, "Pedro Santos")

	all, err := svc.ListPlayers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Accent-insensitive partial match.
	matched, err := svc.ListPlayers(ctx, "joao")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "João Pereira", matched[0].Name)

	none, err := svc.ListPlayers(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUploadAvatarWithoutUploader(t *testing.T) {
	svc := NewPlayerService(newFakePlayerRepo(), nil)
	ctx := context.Background()
	player := createTestPlayer(t, svc, "Alice")

	_, err := svc.UploadAvatar(ctx, player.ID, "image/png", nil)
	assert.ErrorIs(t, err, ErrAvatarUploadsDisabled)
}
