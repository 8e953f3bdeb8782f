package scoring

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/chip-race/league-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedEvent(rankingIDs []string, results ...models.PlayerResult) *models.Event {
	return &models.Event{
		RankingType:       models.RankingTypeWeekly,
		Status:            models.EventStatusClosed,
		TotalParticipants: len(results),
		IncludedRankings:  rankingIDs,
		Results:           results,
	}
}

func attributed(name string, points int, rankingIDs ...string) models.PlayerResult {
	perRanking := make(map[string]int, len(rankingIDs))
	for _, id := range rankingIDs {
		perRanking[id] = points
	}
	return models.PlayerResult{Name: name, PointsPerRanking: perRanking}
}

func TestRecomputeRanking_SumsAttributedPoints(t *testing.T) {
	ranking := &models.RankingInstance{ID: models.RankingAnnual}
	events := []*models.Event{
		closedEvent([]string{models.RankingAnnual},
			attributed("Alice", 50, models.RankingAnnual),
			attributed("Bob", 30, models.RankingAnnual),
		),
		closedEvent([]string{models.RankingAnnual},
			attributed("bob", 40, models.RankingAnnual), // case-insensitive join
			attributed("Alice", 10, models.RankingAnnual),
		),
	}

	players := RecomputeRanking(ranking, events, nil)

	require.Len(t, players, 2)
	assert.Equal(t, "Bob", players[0].Name)
	assert.Equal(t, 70, players[0].Points)
	assert.Equal(t, 1, players[0].Rank)
	assert.Equal(t, 2, players[0].EventsPlayed)
	assert.Equal(t, "Alice", players[1].Name)
	assert.Equal(t, 60, players[1].Points)
	assert.Equal(t, 2, players[1].Rank)
}

func TestRecomputeRanking_Idempotent(t *testing.T) {
	ranking := &models.RankingInstance{ID: models.RankingQuarterly}
	events := []*models.Event{
		closedEvent([]string{models.RankingQuarterly},
			attributed("Alice", 15, models.RankingQuarterly),
			attributed("Bob", 25, models.RankingQuarterly),
			attributed("Carol", 25, models.RankingQuarterly),
		),
	}

	first := RecomputeRanking(ranking, events, nil)
	ranking.Players = first
	second := RecomputeRanking(ranking, events, nil)

	assert.Equal(t, first, second)
}

func TestRecomputeRanking_SkipsOpenEventsAndOtherRankings(t *testing.T) {
	ranking := &models.RankingInstance{ID: models.RankingAnnual}

	open := closedEvent([]string{models.RankingAnnual}, attributed("Alice", 99, models.RankingAnnual))
	open.Status = models.EventStatusRunning

	other := closedEvent([]string{models.RankingQuarterly}, attributed("Alice", 99, models.RankingQuarterly))

	counted := closedEvent([]string{models.RankingAnnual}, attributed("Alice", 7, models.RankingAnnual))

	players := RecomputeRanking(ranking, []*models.Event{open, other, counted, nil}, nil)

	require.Len(t, players, 1)
	assert.Equal(t, 7, players[0].Points)
	assert.Equal(t, 1, players[0].EventsPlayed)
}

func TestRecomputeRanking_FallsBackToCalculatedPoints(t *testing.T) {
	// An event closed before multi-ranking attribution existed: no
	// PointsPerRanking map, only the single-formula value, and no
	// included_rankings field (feeds the stock rankings).
	legacy := &models.Event{
		RankingType: models.RankingTypeWeekly,
		Status:      models.EventStatusClosed,
		Results: []models.PlayerResult{
			{Name: "Alice", Position: 1, CalculatedPoints: 33},
		},
	}

	for _, id := range models.DefaultRankingIDs() {
		players := RecomputeRanking(&models.RankingInstance{ID: id}, []*models.Event{legacy}, nil)
		require.Len(t, players, 1, "ranking %s", id)
		assert.Equal(t, 33, players[0].Points, "ranking %s", id)
	}
}

func TestRecomputeRanking_TieBreak(t *testing.T) {
	ranking := &models.RankingInstance{ID: models.RankingAnnual}
	event := closedEvent([]string{models.RankingAnnual},
		models.PlayerResult{Name: "zoe", Prize: 100, PointsPerRanking: map[string]int{models.RankingAnnual: 50}},
		models.PlayerResult{Name: "adam", Prize: 100, PointsPerRanking: map[string]int{models.RankingAnnual: 50}},
		models.PlayerResult{Name: "mia", Prize: 400, PointsPerRanking: map[string]int{models.RankingAnnual: 50}},
	)

	players := RecomputeRanking(ranking, []*models.Event{event}, nil)

	require.Len(t, players, 3)
	// Equal points: winnings decide first, then normalized name.
	assert.Equal(t, []string{"mia", "adam", "zoe"}, []string{players[0].Name, players[1].Name, players[2].Name})
	assert.Equal(t, []int{1, 2, 3}, []int{players[0].Rank, players[1].Rank, players[2].Rank})
}

func TestRecomputeRanking_SeedsProfileMetadataAndKeepsManualPrize(t *testing.T) {
	city := "Porto Alegre"
	prize := "Entrada no evento especial"
	profiles := NewProfileDirectory([]*models.Player{
		{ID: "p-1", Name: "Alice", City: &city, XP: 2500},
	})

	ranking := &models.RankingInstance{
		ID: models.RankingAnnual,
		Players: []models.RankingPlayer{
			{Name: "ALICE", Points: 999, Rank: 1, ManualPrize: &prize},
		},
	}
	event := closedEvent([]string{models.RankingAnnual}, attributed("Alice", 20, models.RankingAnnual))

	players := RecomputeRanking(ranking, []*models.Event{event}, profiles)

	require.Len(t, players, 1)
	got := players[0]
	assert.Equal(t, "p-1", got.PlayerID)
	assert.Equal(t, &city, got.City)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 2500, got.XP)
	assert.Equal(t, &prize, got.ManualPrize)
	// Points come from history alone, never from the previous list.
	assert.Equal(t, 20, got.Points)
}

func TestRecomputeRanking_RankDensity(t *testing.T) {
	faker := gofakeit.New(11)

	names := make(map[string]struct{})
	var results []models.PlayerResult
	for len(results) < 40 {
		name := faker.Name()
		key := NormalizeName(name)
		if _, dup := names[key]; dup {
			continue
		}
		names[key] = struct{}{}
		results = append(results, models.PlayerResult{
			Name:             name,
			Prize:            float64(faker.Number(0, 2000)),
			PointsPerRanking: map[string]int{models.RankingAnnual: faker.Number(0, 120)},
		})
	}

	ranking := &models.RankingInstance{ID: models.RankingAnnual}
	players := RecomputeRanking(ranking, []*models.Event{closedEvent([]string{models.RankingAnnual}, results...)}, nil)

	require.Len(t, players, 40)
	seen := make(map[int]bool, len(players))
	for i, p := range players {
		assert.Equal(t, i+1, p.Rank, "rank must be dense and 1-based")
		assert.False(t, seen[p.Rank], "duplicate rank %d", p.Rank)
		seen[p.Rank] = true
		if i > 0 {
			assert.GreaterOrEqual(t, players[i-1].Points, p.Points)
		}
	}
	for r := 1; r <= len(players); r++ {
		assert.True(t, seen[r], fmt.Sprintf("missing rank %d", r))
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "joão silva", NormalizeName("  João Silva "))
	assert.Equal(t, NormalizeName("ALICE"), NormalizeName("alice"))
}
