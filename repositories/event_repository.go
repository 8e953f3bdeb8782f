package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chip-race/league-server/models"
	"github.com/lib/pq"
)

var ErrEventNotFound = errors.New("event not found")

type ListEventsFilter struct {
	Status      *models.EventStatus
	RankingType *models.RankingType
	Limit       int
	Offset      int
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter ListEventsFilter) ([]*models.Event, error)
	// ListClosed returns every closed event that carries results, the full
	// input of a leaderboard recomputation.
	ListClosed(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.EventStatus) error
	// UpdateResults persists the annotated result rows of a closed event.
	UpdateResults(ctx context.Context, exec SQLExecutor, event *models.Event) error
	Delete(ctx context.Context, id int) error
	GetEventsDueToStart(ctx context.Context, now time.Time) ([]*models.Event, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (
			name, description, location, ranking_type, buyin, total_participants,
			included_rankings, scoring_schema_id, status, starts_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.Name, event.Description, event.Location, event.RankingType,
		event.Buyin, event.TotalParticipants, pq.Array(event.IncludedRankings),
		nullableString(event.ScoringSchemaID), event.Status, event.StartsAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := selectEventQuery + ` WHERE id = $1`
	return r.scanEvent(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresEventRepository) List(ctx context.Context, filter ListEventsFilter) ([]*models.Event, error) {
	query := selectEventQuery + ` WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.RankingType != nil {
		query += fmt.Sprintf(" AND ranking_type = $%d", argID)
		args = append(args, *filter.RankingType)
		argID++
	}

	query += " ORDER BY starts_at DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.queryEvents(ctx, query, args...)
}

func (r *postgresEventRepository) ListClosed(ctx context.Context) ([]*models.Event, error) {
	query := selectEventQuery + `
		WHERE status = $1 AND results IS NOT NULL
		ORDER BY starts_at ASC, id ASC`
	return r.queryEvents(ctx, query, models.EventStatusClosed)
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			name = $1, description = $2, location = $3, ranking_type = $4, buyin = $5,
			total_participants = $6, included_rankings = $7, scoring_schema_id = $8,
			starts_at = $9, updated_at = NOW()
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		event.Name, event.Description, event.Location, event.RankingType, event.Buyin,
		event.TotalParticipants, pq.Array(event.IncludedRankings),
		nullableString(event.ScoringSchemaID), event.StartsAt, event.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.EventStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateResults(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	executor := r.getExecutor(exec)

	results, err := marshalJSONB(event.Results)
	if err != nil {
		return err
	}

	query := `
		UPDATE events SET
			results = $1, total_participants = $2, status = $3, updated_at = NOW()
		WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, results, event.TotalParticipants, event.Status, event.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) GetEventsDueToStart(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := selectEventQuery + `
		WHERE status = $1 AND starts_at <= $2
		ORDER BY starts_at ASC`
	return r.queryEvents(ctx, query, models.EventStatusOpen, now)
}

const selectEventQuery = `
	SELECT id, name, description, location, ranking_type, buyin, total_participants,
	       included_rankings, scoring_schema_id, status, starts_at, results, created_at, updated_at
	FROM events`

func (r *postgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, errScan := r.scanEvent(rows)
		if errScan != nil {
			return nil, errScan
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) scanEvent(rowScanner interface{ Scan(...interface{}) error }) (*models.Event, error) {
	event := &models.Event{}
	var results []byte
	var schemaID sql.NullString

	err := rowScanner.Scan(
		&event.ID, &event.Name, &event.Description, &event.Location,
		&event.RankingType, &event.Buyin, &event.TotalParticipants,
		pq.Array(&event.IncludedRankings), &schemaID, &event.Status,
		&event.StartsAt, &results, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	event.ScoringSchemaID = schemaID.String
	if err := unmarshalJSONB(results, &event.Results); err != nil {
		return nil, fmt.Errorf("event %d: %w", event.ID, err)
	}
	return event, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
