package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chip-race/league-server/models"
	"github.com/chip-race/league-server/repositories"
	"github.com/google/uuid"
)

var (
	ErrSchemaNameRequired     = errors.New("scoring schema name is required")
	ErrSchemaCriterionInvalid = errors.New("scoring schema criterion is invalid")
	ErrSchemaPositionInvalid  = errors.New("position points must use positive positions")
	ErrSchemaCreationFailed   = errors.New("failed to create scoring schema")
	ErrSchemaUpdateFailed     = errors.New("failed to update scoring schema")
	ErrSchemaDeleteFailed     = errors.New("failed to delete scoring schema")
)

// LeaderboardRecalculator rebuilds every ranking after schema or event
// changes. Implemented by RankingService; declared here so schema and
// event services do not depend on the concrete type.
type LeaderboardRecalculator interface {
	RecalculateAll(ctx context.Context) error
}

type SchemaService interface {
	CreateSchema(ctx context.Context, input SchemaInput) (*models.ScoringSchema, error)
	GetSchemaByID(ctx context.Context, id string) (*models.ScoringSchema, error)
	GetAllSchemas(ctx context.Context) ([]*models.ScoringSchema, error)
	UpdateSchema(ctx context.Context, id string, input SchemaInput) (*models.ScoringSchema, error)
	DeleteSchema(ctx context.Context, id string) error
}

type SchemaInput struct {
	Name           string                    `json:"name"`
	Criteria       []models.ScoringCriterion `json:"criteria"`
	PositionPoints map[int]float64           `json:"position_points,omitempty"`
}

type schemaService struct {
	schemaRepo   repositories.ScoringSchemaRepository
	recalculator LeaderboardRecalculator
}

func NewSchemaService(schemaRepo repositories.ScoringSchemaRepository, recalculator LeaderboardRecalculator) SchemaService {
	return &schemaService{
		schemaRepo:   schemaRepo,
		recalculator: recalculator,
	}
}

func validateSchemaInput(input *SchemaInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrSchemaNameRequired
	}
	for i, c := range input.Criteria {
		if !c.Type.Valid() {
			return fmt.Errorf("%w: unknown criterion type %q (index %d)", ErrSchemaCriterionInvalid, c.Type, i)
		}
		if !c.DataType.Valid() {
			return fmt.Errorf("%w: unknown data type %q (index %d)", ErrSchemaCriterionInvalid, c.DataType, i)
		}
		if !c.Operation.Valid() {
			return fmt.Errorf("%w: unknown operation %q (index %d)", ErrSchemaCriterionInvalid, c.Operation, i)
		}
	}
	for position := range input.PositionPoints {
		if position < 1 {
			return ErrSchemaPositionInvalid
		}
	}
	return nil
}

func (s *schemaService) CreateSchema(ctx context.Context, input SchemaInput) (*models.ScoringSchema, error) {
	if err := validateSchemaInput(&input); err != nil {
		return nil, err
	}

	schema := &models.ScoringSchema{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Criteria:       input.Criteria,
		PositionPoints: input.PositionPoints,
	}

	if err := s.schemaRepo.Create(ctx, schema); err != nil {
		if errors.Is(err, repositories.ErrScoringSchemaNameConflict) {
			return nil, ErrScoringSchemaNameConflict
		}
		return nil, fmt.Errorf("%w: %w", ErrSchemaCreationFailed, err)
	}
	return schema, nil
}

func (s *schemaService) GetSchemaByID(ctx context.Context, id string) (*models.ScoringSchema, error) {
	schema, err := s.schemaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrScoringSchemaNotFound) {
			return nil, ErrScoringSchemaNotFound
		}
		return nil, fmt.Errorf("failed to get scoring schema %s: %w", id, err)
	}
	return schema, nil
}

func (s *schemaService) GetAllSchemas(ctx context.Context) ([]*models.ScoringSchema, error) {
	schemas, err := s.schemaRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get scoring schemas: %w", err)
	}
	if schemas == nil {
		return []*models.ScoringSchema{}, nil
	}
	return schemas, nil
}

func (s *schemaService) UpdateSchema(ctx context.Context, id string, input SchemaInput) (*models.ScoringSchema, error) {
	if err := validateSchemaInput(&input); err != nil {
		return nil, err
	}

	schema, err := s.schemaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrScoringSchemaNotFound) {
			return nil, ErrScoringSchemaNotFound
		}
		return nil, fmt.Errorf("failed to get scoring schema %s for update: %w", id, err)
	}

	schema.Name = input.Name
	schema.Criteria = input.Criteria
	schema.PositionPoints = input.PositionPoints

	if err := s.schemaRepo.Update(ctx, schema); err != nil {
		switch {
		case errors.Is(err, repositories.ErrScoringSchemaNotFound):
			return nil, ErrScoringSchemaNotFound
		case errors.Is(err, repositories.ErrScoringSchemaNameConflict):
			return nil, ErrScoringSchemaNameConflict
		default:
			return nil, fmt.Errorf("%w (id: %s): %w", ErrSchemaUpdateFailed, id, err)
		}
	}

	// Closed events were scored against the previous version of this
	// schema, so every derived leaderboard has to be rebuilt.
	if s.recalculator != nil {
		if err := s.recalculator.RecalculateAll(ctx); err != nil {
			return nil, fmt.Errorf("schema %s updated, but leaderboard recalculation failed: %w", id, err)
		}
	}
	return schema, nil
}

func (s *schemaService) DeleteSchema(ctx context.Context, id string) error {
	if err := s.schemaRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrScoringSchemaNotFound) {
			return ErrScoringSchemaNotFound
		}
		return fmt.Errorf("%w (id: %s): %w", ErrSchemaDeleteFailed, id, err)
	}

	// Events referencing the deleted schema fall back to the legacy
	// formulas on the next rebuild.
	if s.recalculator != nil {
		if err := s.recalculator.RecalculateAll(ctx); err != nil {
			return fmt.Errorf("schema %s deleted, but leaderboard recalculation failed: %w", id, err)
		}
	}
	return nil
}
