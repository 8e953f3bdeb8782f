package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/chip-race/league-server/models"
)

// finalTableSize is the highest finishing position that still counts as a
// final-table finish.
const finalTableSize = 9

// vipBonus is the flat award added on the legacy formula path for results
// flagged VIP at event time. Schema-driven formulas model VIP through an
// is_vip criterion instead.
const vipBonus = 5

// SchemaSet is a lookup of scoring schemas by id, injected into every
// calculation so the engine always sees the current admin-edited formula
// set without touching shared state.
type SchemaSet map[string]*models.ScoringSchema

// NewSchemaSet builds a SchemaSet from a schema list.
func NewSchemaSet(schemas []*models.ScoringSchema) SchemaSet {
	set := make(SchemaSet, len(schemas))
	for _, s := range schemas {
		if s != nil && s.ID != "" {
			set[s.ID] = s
		}
	}
	return set
}

// Input carries everything one point calculation needs: the event-level
// aggregates and a single player's result. All fields are plain data; the
// caller is responsible for sanitizing them (the engine never rejects
// malformed-but-present values, it degrades to zero).
type Input struct {
	FormulaType  models.RankingType
	Participants int
	Buyin        int
	Position     int
	Prize        float64
	IsVIP        bool
	Rake         float64
	ProfitLoss   float64
}

// CalculatePoints converts one result into an integer point award.
//
// Resolution order: a suppressed selector always yields zero; an
// uninitialized event (no participants, not a cash type, no schema
// requested) yields zero; an explicit selector that matches a known schema
// evaluates that schema; everything else falls back to the legacy
// hard-coded formula for the event's ranking type. A selector naming an
// unknown schema is a data-integrity smell the caller may want to log, but
// it never fails the calculation.
func CalculatePoints(in Input, sel SchemaSelector, schemas SchemaSet) int {
	if sel.IsSuppressed() {
		return 0
	}
	if in.Participants <= 0 && !in.FormulaType.IsCashGame() && !sel.IsExplicit() {
		return 0
	}
	if sel.IsExplicit() {
		if schema, ok := schemas[sel.SchemaID()]; ok {
			return evaluateSchema(schema, in)
		}
	}
	return legacyPoints(in)
}

func isFinalTable(position int) bool {
	return position >= 1 && position <= finalTableSize
}

// evaluateSchema runs a data-driven formula: the position bonus (if any)
// plus the sum of all criteria contributions, rounded once at the end.
func evaluateSchema(schema *models.ScoringSchema, in Input) int {
	points := 0.0
	if bonus, ok := schema.PositionPoints[in.Position]; ok {
		points += bonus
	}
	for _, c := range schema.Criteria {
		points += evaluateCriterion(c, in)
	}
	return int(math.Round(points))
}

func evaluateCriterion(c models.ScoringCriterion, in Input) float64 {
	selector := criterionInput(c.Type, in)

	op := c.Operation
	if c.DataType == models.CriterionDataBoolean {
		op = models.OperationSum
	}

	switch op {
	case models.OperationMultiply:
		return selector * c.Value
	case models.OperationDivide:
		// A zero divisor contributes nothing rather than erroring.
		if c.Value == 0 {
			return 0
		}
		return selector / c.Value
	default: // sum: fixed award gated on the selector being "on"
		if selector > 0 {
			return c.Value
		}
		return 0
	}
}

// criterionInput maps a criterion type to the numeric input it reads.
// "spent" reuses the buy-in and "winnings"/ITM reuses the prize; they have
// no independent inputs in the current data model.
func criterionInput(t models.CriterionType, in Input) float64 {
	switch t {
	case models.CriterionParticipants:
		return float64(in.Participants)
	case models.CriterionBuyin, models.CriterionSpent:
		return float64(in.Buyin)
	case models.CriterionWinnings:
		return in.Prize
	case models.CriterionRake:
		return in.Rake
	case models.CriterionProfitLoss:
		return math.Min(math.Abs(in.ProfitLoss), in.Rake)
	case models.CriterionFinalTable:
		if isFinalTable(in.Position) {
			return 1
		}
		return 0
	case models.CriterionVIP:
		if in.IsVIP {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// legacyPositionTable is the fixed award per finishing position used by the
// legacy_* formula families.
var legacyPositionTable = map[int]float64{
	1: 100, 2: 80, 3: 70, 4: 60, 5: 50, 6: 40, 7: 30, 8: 20, 9: 10,
}

func legacyPositionPoints(position int) float64 {
	if pts, ok := legacyPositionTable[position]; ok {
		return pts
	}
	if position >= 10 && position <= 15 {
		return 5
	}
	return 0
}

// legacyPoints implements the pre-schema hard-coded formulas, kept for
// backward compatibility with events that predate admin-defined schemas.
func legacyPoints(in Input) int {
	participants := float64(in.Participants)
	buyin := float64(in.Buyin)

	var points float64
	switch in.FormulaType {
	case models.RankingTypeWeekly:
		points = participants/3 + buyin/3
		if isFinalTable(in.Position) {
			points += 10
		}
		if in.Prize > 0 {
			points += in.Prize / 10
		}
	case models.RankingTypeMonthly:
		points = participants/3 + buyin/4
		if isFinalTable(in.Position) {
			points += 15
		}
		if in.Prize > 0 {
			points += in.Prize / 15
		}
	case models.RankingTypeSpecial:
		points = participants/4 + buyin/6
		if isFinalTable(in.Position) {
			points += 30
		}
		if in.Prize > 0 {
			points += in.Prize / 25
		}
	case models.RankingTypeLegacyWeekly:
		points = legacyPositionPoints(in.Position)
	case models.RankingTypeLegacyMonthly:
		points = legacyPositionPoints(in.Position) * 1.5
	case models.RankingTypeLegacySpecial:
		points = legacyPositionPoints(in.Position) * 3
	case models.RankingTypeCashOnline:
		points = in.Rake + math.Min(math.Abs(in.ProfitLoss), in.Rake)
	case models.RankingTypeMTTOnline:
		points = participants/5 + buyin/10
	case models.RankingTypeSitNGo:
		points = participants/2 + buyin/5
	case models.RankingTypeSatellite:
		points = participants/10 + buyin/50
	}

	if in.IsVIP {
		points += vipBonus
	}
	return int(math.Round(points))
}

// ParseBuyin extracts an integer amount from the free-text buy-in field by
// stripping everything that is not a digit ("R$ 150" -> 150). A string with
// no digits parses as zero.
func ParseBuyin(raw string) int {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	amount, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return amount
}
