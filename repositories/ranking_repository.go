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
	ErrRankingNotFound   = errors.New("ranking not found")
	ErrRankingIDConflict = errors.New("ranking id already exists")
)

type RankingRepository interface {
	Create(ctx context.Context, ranking *models.RankingInstance) error
	GetByID(ctx context.Context, id string) (*models.RankingInstance, error)
	GetAll(ctx context.Context) ([]*models.RankingInstance, error)
	Update(ctx context.Context, ranking *models.RankingInstance) error
	// UpdatePlayers replaces only the derived player list, leaving the
	// admin-edited fields (label, rules, schema map) untouched.
	UpdatePlayers(ctx context.Context, exec SQLExecutor, id string, players []models.RankingPlayer) error
	Delete(ctx context.Context, id string) error
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankingRepository) Create(ctx context.Context, ranking *models.RankingInstance) error {
	schemaMap, err := marshalJSONB(ranking.SchemaMap)
	if err != nil {
		return err
	}
	players, err := marshalJSONB(ranking.Players)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rankings (id, label, description, rules, start_date, end_date, scoring_schema_map, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		ranking.ID, ranking.Label, ranking.Description, ranking.Rules,
		ranking.StartDate, ranking.EndDate, schemaMap, players,
	).Scan(&ranking.CreatedAt, &ranking.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrRankingIDConflict
		}
		return err
	}
	return nil
}

func (r *postgresRankingRepository) GetByID(ctx context.Context, id string) (*models.RankingInstance, error) {
	query := selectRankingQuery + ` WHERE id = $1`
	return r.scanRanking(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRankingRepository) GetAll(ctx context.Context) ([]*models.RankingInstance, error) {
	rows, err := r.db.QueryContext(ctx, selectRankingQuery+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rankings := make([]*models.RankingInstance, 0)
	for rows.Next() {
		ranking, errScan := r.scanRanking(rows)
		if errScan != nil {
			return nil, errScan
		}
		rankings = append(rankings, ranking)
	}
	return rankings, rows.Err()
}

func (r *postgresRankingRepository) Update(ctx context.Context, ranking *models.RankingInstance) error {
	schemaMap, err := marshalJSONB(ranking.SchemaMap)
	if err != nil {
		return err
	}

	query := `
		UPDATE rankings SET
			label = $1, description = $2, rules = $3, start_date = $4, end_date = $5,
			scoring_schema_map = $6, updated_at = NOW()
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		ranking.Label, ranking.Description, ranking.Rules,
		ranking.StartDate, ranking.EndDate, schemaMap, ranking.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRankingNotFound)
}

func (r *postgresRankingRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, id string, players []models.RankingPlayer) error {
	executor := r.getExecutor(exec)

	if players == nil {
		players = []models.RankingPlayer{}
	}
	payload, err := marshalJSONB(players)
	if err != nil {
		return err
	}

	query := `UPDATE rankings SET players = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, payload, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRankingNotFound)
}

func (r *postgresRankingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rankings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRankingNotFound)
}

const selectRankingQuery = `
	SELECT id, label, description, rules, start_date, end_date, scoring_schema_map, players, created_at, updated_at
	FROM rankings`

func (r *postgresRankingRepository) scanRanking(rowScanner interface{ Scan(...interface{}) error }) (*models.RankingInstance, error) {
	ranking := &models.RankingInstance{}
	var schemaMap, players []byte

	err := rowScanner.Scan(
		&ranking.ID, &ranking.Label, &ranking.Description, &ranking.Rules,
		&ranking.StartDate, &ranking.EndDate, &schemaMap, &players,
		&ranking.CreatedAt, &ranking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	if err := unmarshalJSONB(schemaMap, &ranking.SchemaMap); err != nil {
		return nil, fmt.Errorf("ranking %s: %w", ranking.ID, err)
	}
	if err := unmarshalJSONB(players, &ranking.Players); err != nil {
		return nil, fmt.Errorf("ranking %s: %w", ranking.ID, err)
	}
	return ranking, nil
}
