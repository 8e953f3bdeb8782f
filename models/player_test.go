package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayerLevel(t *testing.T) {
	tests := []struct {
		name  string
		xp    int
		level int
	}{
		{"fresh profile", 0, 1},
		{"just under a level", 999, 1},
		{"exact boundary", 1000, 2},
		{"mid level", 2500, 3},
		{"negative xp clamps", -50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Player{XP: tt.xp}
			assert.Equal(t, tt.level, p.Level())
		})
	}
}

func TestPlayerIsVIP(t *testing.T) {
	now := time.Now()

	p := Player{}
	assert.False(t, p.IsVIP(now), "no subscription")

	past := now.Add(-time.Hour)
	p.VIPUntil = &past
	assert.False(t, p.IsVIP(now), "expired subscription")

	future := now.Add(time.Hour)
	p.VIPUntil = &future
	assert.True(t, p.IsVIP(now))
}

func TestEventIncludedRankingIDs(t *testing.T) {
	e := Event{}
	assert.Equal(t, DefaultRankingIDs(), e.IncludedRankingIDs(), "empty list falls back to the stock boards")

	e.IncludedRankings = []string{"summer-series"}
	assert.Equal(t, []string{"summer-series"}, e.IncludedRankingIDs())
}
