package models

import "time"

// SchemaRefSuppressed is the reserved schema reference meaning "award zero
// points for this mapping". It is distinct from an empty reference, which
// means "no override, use the event default". The stores keep the string
// form; the scoring package converts it into a typed selector.
const SchemaRefSuppressed = "null"

// CriterionType selects which event/result input feeds a criterion.
type CriterionType string

const (
	CriterionParticipants CriterionType = "participants"
	CriterionBuyin        CriterionType = "buyin"
	CriterionWinnings     CriterionType = "winnings" // prize money, aka ITM
	CriterionSpent        CriterionType = "spent"    // aliases the buy-in input
	CriterionRake         CriterionType = "rake"
	CriterionProfitLoss   CriterionType = "profit_loss"
	CriterionFinalTable   CriterionType = "is_ft"
	CriterionVIP          CriterionType = "is_vip"
)

func (t CriterionType) Valid() bool {
	switch t {
	case CriterionParticipants, CriterionBuyin, CriterionWinnings, CriterionSpent,
		CriterionRake, CriterionProfitLoss, CriterionFinalTable, CriterionVIP:
		return true
	}
	return false
}

type CriterionDataType string

const (
	CriterionDataInteger CriterionDataType = "integer"
	CriterionDataBoolean CriterionDataType = "boolean"
)

func (t CriterionDataType) Valid() bool {
	return t == CriterionDataInteger || t == CriterionDataBoolean
}

type CriterionOperation string

const (
	OperationMultiply CriterionOperation = "multiply"
	OperationDivide   CriterionOperation = "divide"
	OperationSum      CriterionOperation = "sum"
)

func (op CriterionOperation) Valid() bool {
	return op == OperationMultiply || op == OperationDivide || op == OperationSum
}

// ScoringCriterion is one clause of an admin-defined formula. Integer
// clauses combine Value with the selected numeric input; boolean clauses
// award Value when the condition holds, regardless of Operation.
type ScoringCriterion struct {
	Type      CriterionType      `json:"type"`
	DataType  CriterionDataType  `json:"data_type"`
	Operation CriterionOperation `json:"operation"`
	Value     float64            `json:"value"`
}

// ScoringSchema is a named, reusable point formula. Criteria all sum, so
// their order does not affect the result. PositionPoints adds a fixed bonus
// when the finishing position has an entry.
type ScoringSchema struct {
	ID             string             `json:"id" db:"id"`
	Name           string             `json:"name" db:"name"`
	Criteria       []ScoringCriterion `json:"criteria" db:"criteria"`
	PositionPoints map[int]float64    `json:"position_points" db:"position_points"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}
