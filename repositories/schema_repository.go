package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chip-race/league-server/models"
	"github.com/lib/pq"
)

var (
	ErrScoringSchemaNotFound     = errors.New("scoring schema not found")
	ErrScoringSchemaNameConflict = errors.New("scoring schema name already exists")
)

type ScoringSchemaRepository interface {
	Create(ctx context.Context, schema *models.ScoringSchema) error
	GetByID(ctx context.Context, id string) (*models.ScoringSchema, error)
	GetAll(ctx context.Context) ([]*models.ScoringSchema, error)
	Update(ctx context.Context, schema *models.ScoringSchema) error
	Delete(ctx context.Context, id string) error
}

type postgresScoringSchemaRepository struct {
	db *sql.DB
}

func NewPostgresScoringSchemaRepository(db *sql.DB) ScoringSchemaRepository {
	return &postgresScoringSchemaRepository{db: db}
}

func (r *postgresScoringSchemaRepository) Create(ctx context.Context, schema *models.ScoringSchema) error {
	criteria, err := marshalJSONB(schema.Criteria)
	if err != nil {
		return err
	}
	positions, err := marshalJSONB(schema.PositionPoints)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scoring_schemas (id, name, criteria, position_points)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query, schema.ID, schema.Name, criteria, positions).
		Scan(&schema.CreatedAt, &schema.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrScoringSchemaNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresScoringSchemaRepository) GetByID(ctx context.Context, id string) (*models.ScoringSchema, error) {
	query := `
		SELECT id, name, criteria, position_points, created_at, updated_at
		FROM scoring_schemas
		WHERE id = $1`
	return r.scanSchema(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresScoringSchemaRepository) GetAll(ctx context.Context) ([]*models.ScoringSchema, error) {
	query := `
		SELECT id, name, criteria, position_points, created_at, updated_at
		FROM scoring_schemas
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schemas := make([]*models.ScoringSchema, 0)
	for rows.Next() {
		s, errScan := r.scanSchema(rows)
		if errScan != nil {
			return nil, errScan
		}
		schemas = append(schemas, s)
	}
	return schemas, rows.Err()
}

func (r *postgresScoringSchemaRepository) Update(ctx context.Context, schema *models.ScoringSchema) error {
	criteria, err := marshalJSONB(schema.Criteria)
	if err != nil {
		return err
	}
	positions, err := marshalJSONB(schema.PositionPoints)
	if err != nil {
		return err
	}

	query := `
		UPDATE scoring_schemas SET
			name = $1, criteria = $2, position_points = $3, updated_at = NOW()
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, schema.Name, criteria, positions, schema.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrScoringSchemaNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrScoringSchemaNotFound)
}

func (r *postgresScoringSchemaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scoring_schemas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScoringSchemaNotFound)
}

func (r *postgresScoringSchemaRepository) scanSchema(rowScanner interface{ Scan(...interface{}) error }) (*models.ScoringSchema, error) {
	s := &models.ScoringSchema{}
	var criteria, positions []byte

	err := rowScanner.Scan(&s.ID, &s.Name, &criteria, &positions, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoringSchemaNotFound
		}
		return nil, err
	}
	if err := unmarshalJSONB(criteria, &s.Criteria); err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.ID, err)
	}
	if err := unmarshalJSONB(positions, &s.PositionPoints); err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.ID, err)
	}
	return s, nil
}
