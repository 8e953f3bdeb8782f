package models

import "time"

// Stock ranking ids. Admins can create more; these three always exist and
// are the default included set for events that predate included_rankings.
const (
	RankingAnnual    = "annual"
	RankingQuarterly = "quarterly"
	RankingLegacy    = "legacy"
)

func DefaultRankingIDs() []string {
	return []string{RankingAnnual, RankingQuarterly, RankingLegacy}
}

// RankingInstance is one leaderboard. SchemaMap routes an event's ranking
// type to a scoring schema id for this leaderboard; an absent entry means
// "no override" and SchemaRefSuppressed forces zero points. Players is
// derived state, fully recomputed from the closed event history.
type RankingInstance struct {
	ID          string                 `json:"id" db:"id"`
	Label       string                 `json:"label" db:"label"`
	Description string                 `json:"description" db:"description"`
	Rules       string                 `json:"rules" db:"rules"`
	StartDate   *time.Time             `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time             `json:"end_date,omitempty" db:"end_date"`
	SchemaMap   map[RankingType]string `json:"scoring_schema_map" db:"scoring_schema_map"`
	Players     []RankingPlayer        `json:"players" db:"players"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" db:"updated_at"`
}

// RankingPlayer is one leaderboard row. Points, rank and the played/winnings
// counters are derived from event history; the remaining fields are cosmetic
// metadata seeded from player profiles, except ManualPrize which admins edit
// directly on the leaderboard and which survives recomputation.
type RankingPlayer struct {
	PlayerID      string  `json:"player_id,omitempty"`
	Name          string  `json:"name"`
	Points        int     `json:"points"`
	Rank          int     `json:"rank"`
	EventsPlayed  int     `json:"events_played"`
	TotalWinnings float64 `json:"total_winnings"`
	BestPosition  int     `json:"best_position,omitempty"`

	ManualPrize *string           `json:"manual_prize,omitempty"`
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	City        *string           `json:"city,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	PlayStyles  []string          `json:"play_styles,omitempty"`
	Gallery     []string          `json:"gallery,omitempty"`
	Level       int               `json:"level,omitempty"`
	XP          int               `json:"xp,omitempty"`
}
