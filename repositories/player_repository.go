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
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name is already taken")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id string) (*models.Player, error)
	GetByName(ctx context.Context, name string) (*models.Player, error)
	GetAll(ctx context.Context) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error
	Delete(ctx context.Context, id string) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	social, err := marshalJSONB(player.SocialLinks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO players (
			id, name, city, bio, social_links, play_styles, gallery, avatar_key,
			xp, daily_streak, last_daily_claim, vip_until
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		player.ID, player.Name, player.City, player.Bio, social,
		pq.Array(player.PlayStyles), pq.Array(player.Gallery), player.AvatarKey,
		player.XP, player.DailyStreak, player.LastDailyClaim, player.VIPUntil,
	).Scan(&player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrPlayerNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := selectPlayerQuery + ` WHERE id = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, id))
}

// GetByName matches case-insensitively: display names are the join key
// across events and leaderboards, and lookups always normalize.
func (r *postgresPlayerRepository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	query := selectPlayerQuery + ` WHERE lower(name) = lower(trim($1))`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, name))
}

func (r *postgresPlayerRepository) GetAll(ctx context.Context) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, selectPlayerQuery+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, errScan := r.scanPlayer(rows)
		if errScan != nil {
			return nil, errScan
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	social, err := marshalJSONB(player.SocialLinks)
	if err != nil {
		return err
	}

	query := `
		UPDATE players SET
			name = $1, city = $2, bio = $3, social_links = $4, play_styles = $5,
			gallery = $6, xp = $7, daily_streak = $8, last_daily_claim = $9,
			vip_until = $10, updated_at = NOW()
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		player.Name, player.City, player.Bio, social, pq.Array(player.PlayStyles),
		pq.Array(player.Gallery), player.XP, player.DailyStreak,
		player.LastDailyClaim, player.VIPUntil, player.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrPlayerNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE players SET avatar_key = $1, updated_at = NOW() WHERE id = $2`, avatarKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

const selectPlayerQuery = `
	SELECT id, name, city, bio, social_links, play_styles, gallery, avatar_key,
	       xp, daily_streak, last_daily_claim, vip_until, created_at, updated_at
	FROM players`

func (r *postgresPlayerRepository) scanPlayer(rowScanner interface{ Scan(...interface{}) error }) (*models.Player, error) {
	p := &models.Player{}
	var social []byte

	err := rowScanner.Scan(
		&p.ID, &p.Name, &p.City, &p.Bio, &social,
		pq.Array(&p.PlayStyles), pq.Array(&p.Gallery), &p.AvatarKey,
		&p.XP, &p.DailyStreak, &p.LastDailyClaim, &p.VIPUntil,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if err := unmarshalJSONB(social, &p.SocialLinks); err != nil {
		return nil, fmt.Errorf("player %s: %w", p.ID, err)
	}
	return p, nil
}
