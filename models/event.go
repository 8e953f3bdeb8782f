package models

import "time"

// RankingType tags an event with the formula family that applies to it.
// It is also the key of RankingInstance.SchemaMap.
type RankingType string

const (
	RankingTypeWeekly        RankingType = "weekly"
	RankingTypeMonthly       RankingType = "monthly"
	RankingTypeSpecial       RankingType = "special"
	RankingTypeLegacyWeekly  RankingType = "legacy_weekly"
	RankingTypeLegacyMonthly RankingType = "legacy_monthly"
	RankingTypeLegacySpecial RankingType = "legacy_special"
	RankingTypeCashOnline    RankingType = "cash_online"
	RankingTypeMTTOnline     RankingType = "mtt_online"
	RankingTypeSitNGo        RankingType = "sit_n_go"
	RankingTypeSatellite     RankingType = "satellite"
)

func (t RankingType) Valid() bool {
	switch t {
	case RankingTypeWeekly, RankingTypeMonthly, RankingTypeSpecial,
		RankingTypeLegacyWeekly, RankingTypeLegacyMonthly, RankingTypeLegacySpecial,
		RankingTypeCashOnline, RankingTypeMTTOnline, RankingTypeSitNGo, RankingTypeSatellite:
		return true
	}
	return false
}

// IsCashGame reports whether the type is scored per session (rake and
// profit/loss based) rather than per tournament finish.
func (t RankingType) IsCashGame() bool {
	return t == RankingTypeCashOnline
}

// EventStatus represents event lifecycle states, matching the ENUM in the DB.
type EventStatus string

const (
	EventStatusOpen    EventStatus = "open"
	EventStatusRunning EventStatus = "running"
	EventStatusClosed  EventStatus = "closed"
)

// Event is a tournament or a cash session. Results are set at closure time
// and may be re-set when an admin edits a closed event.
type Event struct {
	ID                int            `json:"id" db:"id"`
	Name              string         `json:"name" db:"name"`
	Description       *string        `json:"description,omitempty" db:"description"`
	Location          *string        `json:"location,omitempty" db:"location"`
	RankingType       RankingType    `json:"ranking_type" db:"ranking_type"`
	Buyin             string         `json:"buyin" db:"buyin"` // free text, e.g. "R$ 150"
	TotalParticipants int            `json:"total_participants" db:"total_participants"`
	IncludedRankings  []string       `json:"included_rankings" db:"included_rankings"`
	ScoringSchemaID   string         `json:"scoring_schema_id,omitempty" db:"scoring_schema_id"`
	Status            EventStatus    `json:"status" db:"status"`
	StartsAt          time.Time      `json:"starts_at" db:"starts_at"`
	Results           []PlayerResult `json:"results,omitempty" db:"results"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// IncludedRankingIDs returns the leaderboards this event feeds into. Events
// created before the field existed feed the three stock rankings.
func (e *Event) IncludedRankingIDs() []string {
	if len(e.IncludedRankings) > 0 {
		return e.IncludedRankings
	}
	return DefaultRankingIDs()
}

// PlayerResult is one player's outcome in one event. Name is the join key
// against leaderboard entries and profiles, matched case-insensitively.
type PlayerResult struct {
	Name       string  `json:"name"`
	Position   int     `json:"position"` // 1 = winner, 0 = not applicable (cash rows)
	Prize      float64 `json:"prize"`
	IsVIP      bool    `json:"is_vip"` // VIP flag at time of the event
	Rake       float64 `json:"rake,omitempty"`
	ProfitLoss float64 `json:"profit_loss,omitempty"`

	// CalculatedPoints is the single-formula result computed with the
	// event's own default schema. PointsPerRanking maps ranking id to the
	// points that leaderboard credits and is authoritative when present.
	CalculatedPoints int            `json:"calculated_points"`
	PointsPerRanking map[string]int `json:"points_per_ranking,omitempty"`
}
