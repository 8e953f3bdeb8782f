package scoring

import (
	"sort"
	"strings"

	"github.com/chip-race/league-server/models"
)

// NormalizeName produces the case-insensitive join key used to match a
// display name across events, profiles and leaderboard entries.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProfileDirectory maps a normalized player name to the profile whose
// cosmetic metadata (avatar, city, bio, level...) seeds newly-seen
// leaderboard entries. Profiles never affect point totals.
type ProfileDirectory map[string]*models.Player

// NewProfileDirectory indexes player profiles by normalized name.
func NewProfileDirectory(players []*models.Player) ProfileDirectory {
	dir := make(ProfileDirectory, len(players))
	for _, p := range players {
		if p == nil {
			continue
		}
		dir[NormalizeName(p.Name)] = p
	}
	return dir
}

// RecomputeRanking rebuilds one leaderboard's player list from scratch out
// of the full closed-event history. It is a pure full recomputation:
// running it twice over the same history yields identical output, and the
// previous player list is consulted only to carry forward the admin-edited
// ManualPrize field, never for points.
//
// Events count when they are closed, have results, and include this
// ranking. Points come from the attribution map (PointsPerRanking) when the
// resolver has populated it; events closed before multi-ranking attribution
// existed fall back to their single CalculatedPoints.
//
// Ties on points break on total winnings (descending), then on normalized
// name, so rank assignment never depends on event iteration order.
func RecomputeRanking(ranking *models.RankingInstance, events []*models.Event, profiles ProfileDirectory) []models.RankingPlayer {
	manualPrizes := make(map[string]*string, len(ranking.Players))
	for i := range ranking.Players {
		if ranking.Players[i].ManualPrize != nil {
			manualPrizes[NormalizeName(ranking.Players[i].Name)] = ranking.Players[i].ManualPrize
		}
	}

	accumulators := make(map[string]*models.RankingPlayer)
	var order []string // insertion order, keeps the loop below deterministic

	for _, event := range events {
		if event == nil || event.Status != models.EventStatusClosed || len(event.Results) == 0 {
			continue
		}
		if !includesRanking(event, ranking.ID) {
			continue
		}
		for i := range event.Results {
			result := &event.Results[i]
			key := NormalizeName(result.Name)
			if key == "" {
				continue
			}

			acc, ok := accumulators[key]
			if !ok {
				acc = newAccumulator(result.Name, profiles[key], manualPrizes[key])
				accumulators[key] = acc
				order = append(order, key)
			}

			acc.Points += resultPoints(result, ranking.ID)
			acc.EventsPlayed++
			acc.TotalWinnings += result.Prize
			if result.Position > 0 && (acc.BestPosition == 0 || result.Position < acc.BestPosition) {
				acc.BestPosition = result.Position
			}
		}
	}

	players := make([]models.RankingPlayer, 0, len(accumulators))
	for _, key := range order {
		players = append(players, *accumulators[key])
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Points != players[j].Points {
			return players[i].Points > players[j].Points
		}
		if players[i].TotalWinnings != players[j].TotalWinnings {
			return players[i].TotalWinnings > players[j].TotalWinnings
		}
		return NormalizeName(players[i].Name) < NormalizeName(players[j].Name)
	})

	for i := range players {
		players[i].Rank = i + 1
	}
	return players
}

func includesRanking(event *models.Event, rankingID string) bool {
	for _, id := range event.IncludedRankingIDs() {
		if id == rankingID {
			return true
		}
	}
	return false
}

// resultPoints prefers the per-ranking attribution over the single-formula
// value. A populated map without an entry for this ranking means the
// resolver decided this leaderboard gets nothing from the event.
func resultPoints(result *models.PlayerResult, rankingID string) int {
	if result.PointsPerRanking != nil {
		return result.PointsPerRanking[rankingID]
	}
	return result.CalculatedPoints
}

func newAccumulator(name string, profile *models.Player, manualPrize *string) *models.RankingPlayer {
	acc := &models.RankingPlayer{
		Name:        name,
		ManualPrize: manualPrize,
	}
	if profile != nil {
		acc.PlayerID = profile.ID
		acc.AvatarURL = profile.AvatarURL
		acc.City = profile.City
		acc.Bio = profile.Bio
		acc.SocialLinks = profile.SocialLinks
		acc.PlayStyles = profile.PlayStyles
		acc.Gallery = profile.Gallery
		acc.Level = profile.Level()
		acc.XP = profile.XP
	}
	return acc
}
