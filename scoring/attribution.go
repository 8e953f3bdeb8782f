package scoring

import "github.com/chip-race/league-server/models"

// ResolveSelector determines which formula applies when the given event
// feeds the given ranking: the ranking's schema map entry for the event's
// ranking type wins (including an explicit suppression), otherwise the
// event's own default schema reference is used. A nil ranking means the
// event names a leaderboard that no longer exists; the event default still
// applies so closure is never blocked.
func ResolveSelector(ranking *models.RankingInstance, event *models.Event) SchemaSelector {
	if ranking != nil {
		if ref, ok := ranking.SchemaMap[event.RankingType]; ok {
			return ParseSchemaRef(ref)
		}
	}
	return ParseSchemaRef(event.ScoringSchemaID)
}

// InputForResult assembles the engine input for one result row of an event.
func InputForResult(event *models.Event, result *models.PlayerResult) Input {
	return Input{
		FormulaType:  event.RankingType,
		Participants: event.TotalParticipants,
		Buyin:        ParseBuyin(event.Buyin),
		Position:     result.Position,
		Prize:        result.Prize,
		IsVIP:        result.IsVIP,
		Rake:         result.Rake,
		ProfitLoss:   result.ProfitLoss,
	}
}

// AttributeResults fills PointsPerRanking for every result row of a
// closing event: one engine invocation per included leaderboard, each with
// that leaderboard's resolved schema. CalculatedPoints is also refreshed
// from the event's own default schema for display contexts that don't care
// which leaderboard is active.
//
// The function mutates event.Results in place and must run to completion
// before any leaderboard recomputation reads the event.
func AttributeResults(event *models.Event, rankings []*models.RankingInstance, schemas SchemaSet) {
	byID := make(map[string]*models.RankingInstance, len(rankings))
	for _, r := range rankings {
		if r != nil {
			byID[r.ID] = r
		}
	}

	included := event.IncludedRankingIDs()
	eventDefault := ParseSchemaRef(event.ScoringSchemaID)

	for i := range event.Results {
		result := &event.Results[i]
		in := InputForResult(event, result)

		result.PointsPerRanking = make(map[string]int, len(included))
		for _, rankingID := range included {
			sel := ResolveSelector(byID[rankingID], event)
			result.PointsPerRanking[rankingID] = CalculatePoints(in, sel, schemas)
		}
		result.CalculatedPoints = CalculatePoints(in, eventDefault, schemas)
	}
}
