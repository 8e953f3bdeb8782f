package models

import "time"

// Player is a league member's public profile. Event results reference
// players by display name; the uuid exists so profile edits (including
// renames) have a stable anchor, but name remains the join key against
// historical results.
type Player struct {
	ID          string            `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	City        *string           `json:"city,omitempty" db:"city"`
	Bio         *string           `json:"bio,omitempty" db:"bio"`
	SocialLinks map[string]string `json:"social_links,omitempty" db:"social_links"`
	PlayStyles  []string          `json:"play_styles,omitempty" db:"play_styles"`
	Gallery     []string          `json:"gallery,omitempty" db:"gallery"`
	AvatarKey   *string           `json:"-" db:"avatar_key"`
	AvatarURL   *string           `json:"avatar_url,omitempty" db:"-"`

	XP             int        `json:"xp" db:"xp"`
	DailyStreak    int        `json:"daily_streak" db:"daily_streak"`
	LastDailyClaim *time.Time `json:"last_daily_claim,omitempty" db:"last_daily_claim"`
	VIPUntil       *time.Time `json:"vip_until,omitempty" db:"vip_until"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// xpPerLevel is the flat XP cost of each level step.
const xpPerLevel = 1000

// Level derives the player's level from accumulated XP. Levels are 1-based.
func (p *Player) Level() int {
	if p.XP <= 0 {
		return 1
	}
	return p.XP/xpPerLevel + 1
}

// IsVIP reports whether the player's VIP subscription is active at the
// given moment.
func (p *Player) IsVIP(now time.Time) bool {
	return p.VIPUntil != nil && p.VIPUntil.After(now)
}
