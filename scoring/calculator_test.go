package scoring

import (
	"testing"

	"github.com/chip-race/league-server/models"
	"github.com/stretchr/testify/assert"
)

func TestCalculatePoints_LegacyFormulas(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int
	}{
		{
			name: "weekly final table winner",
			in:   Input{FormulaType: models.RankingTypeWeekly, Participants: 30, Buyin: 150, Position: 1},
			want: 70, // 30/3 + 150/3 + 10
		},
		{
			name: "weekly single entrant",
			in:   Input{FormulaType: models.RankingTypeWeekly, Participants: 1, Buyin: 150, Position: 1},
			want: 60, // round(1/3 + 50 + 10)
		},
		{
			name: "weekly outside final table with prize",
			in:   Input{FormulaType: models.RankingTypeWeekly, Participants: 30, Buyin: 150, Position: 10, Prize: 200},
			want: 80, // 10 + 50 + 200/10
		},
		{
			name: "monthly mid final table",
			in:   Input{FormulaType: models.RankingTypeMonthly, Participants: 30, Buyin: 120, Position: 5, Prize: 300},
			want: 75, // 10 + 30 + 15 + 20
		},
		{
			name: "special no final table",
			in:   Input{FormulaType: models.RankingTypeSpecial, Participants: 40, Buyin: 60, Position: 10},
			want: 20, // 10 + 10
		},
		{
			name: "special winner",
			in:   Input{FormulaType: models.RankingTypeSpecial, Participants: 40, Buyin: 60, Position: 1, Prize: 500},
			want: 70, // 10 + 10 + 30 + 20
		},
		{
			name: "legacy weekly winner",
			in:   Input{FormulaType: models.RankingTypeLegacyWeekly, Participants: 20, Position: 1},
			want: 100,
		},
		{
			name: "legacy weekly position 12 flat",
			in:   Input{FormulaType: models.RankingTypeLegacyWeekly, Participants: 20, Position: 12},
			want: 5,
		},
		{
			name: "legacy weekly position 16 nothing",
			in:   Input{FormulaType: models.RankingTypeLegacyWeekly, Participants: 20, Position: 16},
			want: 0,
		},
		{
			name: "legacy monthly multiplier",
			in:   Input{FormulaType: models.RankingTypeLegacyMonthly, Participants: 20, Position: 3},
			want: 105, // 70 * 1.5
		},
		{
			name: "legacy special multiplier",
			in:   Input{FormulaType: models.RankingTypeLegacySpecial, Participants: 20, Position: 2},
			want: 240, // 80 * 3
		},
		{
			name: "cash online rake plus capped loss",
			in:   Input{FormulaType: models.RankingTypeCashOnline, Rake: 40, ProfitLoss: -25},
			want: 65,
		},
		{
			name: "cash online loss capped at rake",
			in:   Input{FormulaType: models.RankingTypeCashOnline, Rake: 40, ProfitLoss: -100},
			want: 80,
		},
		{
			name: "cash online with zero participants still scores",
			in:   Input{FormulaType: models.RankingTypeCashOnline, Participants: 0, Rake: 10, ProfitLoss: 4},
			want: 14,
		},
		{
			name: "mtt online",
			in:   Input{FormulaType: models.RankingTypeMTTOnline, Participants: 50, Buyin: 200, Position: 20},
			want: 30, // 10 + 20
		},
		{
			name: "sit n go",
			in:   Input{FormulaType: models.RankingTypeSitNGo, Participants: 10, Buyin: 100, Position: 4},
			want: 25, // 5 + 20
		},
		{
			name: "satellite",
			in:   Input{FormulaType: models.RankingTypeSatellite, Participants: 100, Buyin: 500, Position: 50},
			want: 20, // 10 + 10
		},
		{
			name: "unknown formula type scores nothing",
			in:   Input{FormulaType: "freeroll", Participants: 30, Buyin: 100, Position: 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculatePoints(tt.in, DefaultSelector(), nil))
		})
	}
}

func TestCalculatePoints_VIPBonusAdditivity(t *testing.T) {
	base := Input{FormulaType: models.RankingTypeWeekly, Participants: 30, Buyin: 150, Position: 1}
	vip := base
	vip.IsVIP = true

	assert.Equal(t, CalculatePoints(base, DefaultSelector(), nil)+5, CalculatePoints(vip, DefaultSelector(), nil))

	// The bonus applies on every legacy branch, even when nothing else does.
	unknownVIP := Input{FormulaType: "freeroll", Participants: 30, IsVIP: true}
	assert.Equal(t, 5, CalculatePoints(unknownVIP, DefaultSelector(), nil))
}

func TestCalculatePoints_SuppressedSelectorAlwaysZero(t *testing.T) {
	inputs := []Input{
		{FormulaType: models.RankingTypeWeekly, Participants: 30, Buyin: 150, Position: 1, Prize: 1000, IsVIP: true},
		{FormulaType: models.RankingTypeCashOnline, Rake: 50, ProfitLoss: -30},
		{},
	}
	schemas := NewSchemaSet([]*models.ScoringSchema{
		{ID: "s1", PositionPoints: map[int]float64{1: 100}},
	})
	for _, in := range inputs {
		assert.Zero(t, CalculatePoints(in, SuppressPoints(), schemas))
	}
}

func TestCalculatePoints_ZeroParticipantsGuard(t *testing.T) {
	in := Input{FormulaType: models.RankingTypeWeekly, Participants: 0, Buyin: 150, Position: 1, Prize: 200}
	assert.Zero(t, CalculatePoints(in, DefaultSelector(), nil))

	// An explicit schema bypasses the uninitialized-event guard.
	schemas := NewSchemaSet([]*models.ScoringSchema{
		{ID: "s1", PositionPoints: map[int]float64{1: 100}},
	})
	assert.Equal(t, 100, CalculatePoints(in, SelectSchema("s1"), schemas))
}

func TestCalculatePoints_SchemaPositionBonus(t *testing.T) {
	schemas := NewSchemaSet([]*models.ScoringSchema{
		{ID: "winner-only", Name: "Winner takes all", PositionPoints: map[int]float64{1: 100}},
	})

	first := Input{FormulaType: models.RankingTypeWeekly, Participants: 200, Buyin: 999, Position: 1, Prize: 5000, IsVIP: true}
	second := first
	second.Position = 2

	assert.Equal(t, 100, CalculatePoints(first, SelectSchema("winner-only"), schemas))
	assert.Zero(t, CalculatePoints(second, SelectSchema("winner-only"), schemas))
}

func TestCalculatePoints_SchemaCriteria(t *testing.T) {
	schema := &models.ScoringSchema{
		ID: "mix",
		Criteria: []models.ScoringCriterion{
			{Type: models.CriterionParticipants, DataType: models.CriterionDataInteger, Operation: models.OperationMultiply, Value: 2},
			{Type: models.CriterionBuyin, DataType: models.CriterionDataInteger, Operation: models.OperationDivide, Value: 3},
			{Type: models.CriterionFinalTable, DataType: models.CriterionDataBoolean, Value: 25},
			{Type: models.CriterionVIP, DataType: models.CriterionDataBoolean, Value: 10},
		},
		PositionPoints: map[int]float64{1: 50},
	}
	schemas := NewSchemaSet([]*models.ScoringSchema{schema})

	in := Input{FormulaType: models.RankingTypeWeekly, Participants: 20, Buyin: 90, Position: 1, IsVIP: true}
	// 50 + 20*2 + 90/3 + 25 + 10
	assert.Equal(t, 155, CalculatePoints(in, SelectSchema("mix"), schemas))

	noVIPOutside := Input{FormulaType: models.RankingTypeWeekly, Participants: 20, Buyin: 90, Position: 15}
	// 20*2 + 90/3
	assert.Equal(t, 70, CalculatePoints(noVIPOutside, SelectSchema("mix"), schemas))
}

func TestCalculatePoints_DivideByZeroCriterionContributesNothing(t *testing.T) {
	schema := &models.ScoringSchema{
		ID: "bad-divisor",
		Criteria: []models.ScoringCriterion{
			{Type: models.CriterionBuyin, DataType: models.CriterionDataInteger, Operation: models.OperationDivide, Value: 0},
			{Type: models.CriterionParticipants, DataType: models.CriterionDataInteger, Operation: models.OperationMultiply, Value: 1},
		},
	}
	schemas := NewSchemaSet([]*models.ScoringSchema{schema})

	in := Input{FormulaType: models.RankingTypeWeekly, Participants: 12, Buyin: 500, Position: 3}
	assert.NotPanics(t, func() {
		assert.Equal(t, 12, CalculatePoints(in, SelectSchema("bad-divisor"), schemas))
	})
}

func TestCalculatePoints_SchemaProfitLossCappedByRake(t *testing.T) {
	schema := &models.ScoringSchema{
		ID: "cash",
		Criteria: []models.ScoringCriterion{
			{Type: models.CriterionRake, DataType: models.CriterionDataInteger, Operation: models.OperationMultiply, Value: 1},
			{Type: models.CriterionProfitLoss, DataType: models.CriterionDataInteger, Operation: models.OperationMultiply, Value: 1},
		},
	}
	schemas := NewSchemaSet([]*models.ScoringSchema{schema})

	in := Input{FormulaType: models.RankingTypeCashOnline, Rake: 30, ProfitLoss: -80}
	assert.Equal(t, 60, CalculatePoints(in, SelectSchema("cash"), schemas))
}

func TestCalculatePoints_UnknownSchemaFallsBackToLegacy(t *testing.T) {
	in := Input{FormulaType: models.RankingTypeWeekly, Participants: 30, Buyin: 150, Position: 1}

	assert.Equal(t, 70, CalculatePoints(in, SelectSchema("deleted-schema"), NewSchemaSet(nil)))
	assert.Equal(t, 70, CalculatePoints(in, SelectSchema("deleted-schema"), nil))
}

func TestParseBuyin(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"R$ 150", 150},
		{"150", 150},
		{"R$ 1.500", 1500},
		{"buy-in: 75 + 25", 7525},
		{"free", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBuyin(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseSchemaRef(t *testing.T) {
	assert.True(t, ParseSchemaRef("").IsDefault())
	assert.True(t, ParseSchemaRef(models.SchemaRefSuppressed).IsSuppressed())

	sel := ParseSchemaRef("abc")
	assert.True(t, sel.IsExplicit())
	assert.Equal(t, "abc", sel.SchemaID())

	assert.True(t, SelectSchema("").IsDefault())
}
