package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chip-race/league-server/cache"
	"github.com/chip-race/league-server/live"
	"github.com/chip-race/league-server/models"
	"github.com/chip-race/league-server/repositories"
	"github.com/chip-race/league-server/scoring"
	"golang.org/x/sync/errgroup"
)

var (
	ErrRankingIDRequired     = errors.New("ranking id is required")
	ErrRankingLabelRequired  = errors.New("ranking label is required")
	ErrRankingIsStock        = errors.New("stock rankings cannot be deleted")
	ErrSchemaRefInvalid      = errors.New("schema reference does not name an existing scoring schema")
	ErrRankingTypeInvalid    = errors.New("unknown event ranking type")
	ErrRecalculationFailed   = errors.New("leaderboard recalculation failed")
	ErrLeaderboardPlayerGone = errors.New("player is not on this leaderboard")
)

type RankingService interface {
	CreateRanking(ctx context.Context, input RankingInput) (*models.RankingInstance, error)
	GetRankingByID(ctx context.Context, id string) (*models.RankingInstance, error)
	GetAllRankings(ctx context.Context) ([]*models.RankingInstance, error)
	UpdateRanking(ctx context.Context, id string, input RankingInput) (*models.RankingInstance, error)
	DeleteRanking(ctx context.Context, id string) error

	// SetSchemaMapping binds an event ranking type to a scoring schema for
	// one leaderboard. An empty ref removes the override; the reserved
	// suppression ref forces zero points for that type.
	SetSchemaMapping(ctx context.Context, rankingID string, rankingType models.RankingType, schemaRef string) (*models.RankingInstance, error)
	SetManualPrize(ctx context.Context, rankingID string, playerName string, prize *string) error

	// GetLeaderboard serves the derived player list, read through the
	// Redis cache when one is configured.
	GetLeaderboard(ctx context.Context, rankingID string) ([]models.RankingPlayer, error)

	// EnsureDefaultRankings creates the stock annual/quarterly/legacy
	// leaderboards when missing. Called once at startup.
	EnsureDefaultRankings(ctx context.Context) error

	RecalculateAll(ctx context.Context) error
}

type RankingInput struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Rules       string     `json:"rules"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type rankingService struct {
	rankingRepo repositories.RankingRepository
	eventRepo   repositories.EventRepository
	schemaRepo  repositories.ScoringSchemaRepository
	playerRepo  repositories.PlayerRepository
	boardCache  *cache.LeaderboardCache
	hub         *live.Hub
}

// NewRankingService wires the aggregation side. boardCache and hub are
// optional; a nil value disables caching or live updates respectively.
func NewRankingService(
	rankingRepo repositories.RankingRepository,
	eventRepo repositories.EventRepository,
	schemaRepo repositories.ScoringSchemaRepository,
	playerRepo repositories.PlayerRepository,
	boardCache *cache.LeaderboardCache,
	hub *live.Hub,
) RankingService {
	return &rankingService{
		rankingRepo: rankingRepo,
		eventRepo:   eventRepo,
		schemaRepo:  schemaRepo,
		playerRepo:  playerRepo,
		boardCache:  boardCache,
		hub:         hub,
	}
}

func (s *rankingService) CreateRanking(ctx context.Context, input RankingInput) (*models.RankingInstance, error) {
	id := strings.TrimSpace(strings.ToLower(input.ID))
	if id == "" {
		return nil, ErrRankingIDRequired
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, ErrRankingLabelRequired
	}

	ranking := &models.RankingInstance{
		ID:          id,
		Label:       label,
		Description: input.Description,
		Rules:       input.Rules,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		SchemaMap:   map[models.RankingType]string{},
		Players:     []models.RankingPlayer{},
	}

	if err := s.rankingRepo.Create(ctx, ranking); err != nil {
		if errors.Is(err, repositories.ErrRankingIDConflict) {
			return nil, ErrRankingIDConflict
		}
		return nil, fmt.Errorf("failed to create ranking: %w", err)
	}
	return ranking, nil
}

func (s *rankingService) GetRankingByID(ctx context.Context, id string) (*models.RankingInstance, error) {
	ranking, err := s.rankingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRankingNotFound) {
			return nil, ErrRankingNotFound
		}
		return nil, fmt.Errorf("failed to get ranking %s: %w", id, err)
	}
	return ranking, nil
}

func (s *rankingService) GetAllRankings(ctx context.Context) ([]*models.RankingInstance, error) {
	rankings, err := s.rankingRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rankings: %w", err)
	}
	if rankings == nil {
		return []*models.RankingInstance{}, nil
	}
	return rankings, nil
}

func (s *rankingService) UpdateRanking(ctx context.Context, id string, input RankingInput) (*models.RankingInstance, error) {
	ranking, err := s.GetRankingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if label := strings.TrimSpace(input.Label); label != "" {
		ranking.Label = label
	}
	ranking.Description = input.Description
	ranking.Rules = input.Rules
	ranking.StartDate = input.StartDate
	ranking.EndDate = input.EndDate

	if err := s.rankingRepo.Update(ctx, ranking); err != nil {
		if errors.Is(err, repositories.ErrRankingNotFound) {
			return nil, ErrRankingNotFound
		}
		return nil, fmt.Errorf("failed to update ranking %s: %w", id, err)
	}
	return ranking, nil
}

func (s *rankingService) DeleteRanking(ctx context.Context, id string) error {
	for _, stock := range models.DefaultRankingIDs() {
		if id == stock {
			return ErrRankingIsStock
		}
	}
	if err := s.rankingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRankingNotFound) {
			return ErrRankingNotFound
		}
		return fmt.Errorf("failed to delete ranking %s: %w", id, err)
	}
	if s.boardCache != nil {
		if err := s.boardCache.Invalidate(ctx, id); err != nil {
			log.Printf("Failed to invalidate cached leaderboard %s: %v", id, err)
		}
	}
	return nil
}

func (s *rankingService) SetSchemaMapping(ctx context.Context, rankingID string, rankingType models.RankingType, schemaRef string) (*models.RankingInstance, error) {
	if !rankingType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrRankingTypeInvalid, rankingType)
	}

	schemaRef = strings.TrimSpace(schemaRef)
	if schemaRef != "" && schemaRef != models.SchemaRefSuppressed {
		if _, err := s.schemaRepo.GetByID(ctx, schemaRef); err != nil {
			if errors.Is(err, repositories.ErrScoringSchemaNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrSchemaRefInvalid, schemaRef)
			}
			return nil, fmt.Errorf("failed to resolve schema ref %s: %w", schemaRef, err)
		}
	}

	ranking, err := s.GetRankingByID(ctx, rankingID)
	if err != nil {
		return nil, err
	}

	if ranking.SchemaMap == nil {
		ranking.SchemaMap = map[models.RankingType]string{}
	}
	if schemaRef == "" {
		delete(ranking.SchemaMap, rankingType)
	} else {
		ranking.SchemaMap[rankingType] = schemaRef
	}

	if err := s.rankingRepo.Update(ctx, ranking); err != nil {
		return nil, fmt.Errorf("failed to update schema map for ranking %s: %w", rankingID, err)
	}

	// The mapping changes how every closed event scores for this
	// leaderboard, so everything derived must be rebuilt.
	if err := s.RecalculateAll(ctx); err != nil {
		return nil, fmt.Errorf("schema map for %s updated, but recalculation failed: %w", rankingID, err)
	}
	return s.GetRankingByID(ctx, rankingID)
}

func (s *rankingService) SetManualPrize(ctx context.Context, rankingID string, playerName string, prize *string) error {
	ranking, err := s.GetRankingByID(ctx, rankingID)
	if err != nil {
		return err
	}

	key := scoring.NormalizeName(playerName)
	found := false
	for i := range ranking.Players {
		if scoring.NormalizeName(ranking.Players[i].Name) == key {
			ranking.Players[i].ManualPrize = prize
			found = true
			break
		}
	}
	if !found {
		return ErrLeaderboardPlayerGone
	}

	if err := s.rankingRepo.UpdatePlayers(ctx, nil, rankingID, ranking.Players); err != nil {
		return fmt.Errorf("failed to persist manual prize on ranking %s: %w", rankingID, err)
	}
	s.publishLeaderboard(ctx, rankingID, ranking.Players)
	return nil
}

func (s *rankingService) GetLeaderboard(ctx context.Context, rankingID string) ([]models.RankingPlayer, error) {
	if s.boardCache != nil {
		players, err := s.boardCache.GetPlayers(ctx, rankingID)
		if err == nil {
			return players, nil
		}
		if !errors.Is(err, cache.ErrLeaderboardMiss) {
			log.Printf("Leaderboard cache read failed for %s: %v", rankingID, err)
		}
	}

	ranking, err := s.GetRankingByID(ctx, rankingID)
	if err != nil {
		return nil, err
	}
	players := ranking.Players
	if players == nil {
		players = []models.RankingPlayer{}
	}

	if s.boardCache != nil {
		if err := s.boardCache.SetPlayers(ctx, rankingID, players); err != nil {
			log.Printf("Leaderboard cache write failed for %s: %v", rankingID, err)
		}
	}
	return players, nil
}

func (s *rankingService) EnsureDefaultRankings(ctx context.Context) error {
	labels := map[string]string{
		models.RankingAnnual:    "Annual Ranking",
		models.RankingQuarterly: "Quarterly Ranking",
		models.RankingLegacy:    "Legacy Ranking",
	}

	for _, id := range models.DefaultRankingIDs() {
		_, err := s.rankingRepo.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrRankingNotFound) {
			return fmt.Errorf("failed to check stock ranking %s: %w", id, err)
		}

		ranking := &models.RankingInstance{
			ID:        id,
			Label:     labels[id],
			SchemaMap: map[models.RankingType]string{},
			Players:   []models.RankingPlayer{},
		}
		if err := s.rankingRepo.Create(ctx, ranking); err != nil {
			// Another instance may have created it between the check
			// and the insert.
			if errors.Is(err, repositories.ErrRankingIDConflict) {
				continue
			}
			return fmt.Errorf("failed to create stock ranking %s: %w", id, err)
		}
	}
	return nil
}

// RecalculateAll rebuilds every leaderboard from the closed event history.
// Events that went through multi-ranking attribution are re-attributed
// first, so schema and mapping edits retroactively reprice them; imported
// events without an attribution map keep their stored points.
func (s *rankingService) RecalculateAll(ctx context.Context) error {
	events, err := s.eventRepo.ListClosed(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load closed events: %w", ErrRecalculationFailed, err)
	}
	rankings, err := s.rankingRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load rankings: %w", ErrRecalculationFailed, err)
	}
	schemaList, err := s.schemaRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load scoring schemas: %w", ErrRecalculationFailed, err)
	}
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load player profiles: %w", ErrRecalculationFailed, err)
	}

	schemas := scoring.NewSchemaSet(schemaList)
	profiles := scoring.NewProfileDirectory(players)

	for _, event := range events {
		if !eventWasAttributed(event) {
			continue
		}
		scoring.AttributeResults(event, rankings, schemas)
		if err := s.eventRepo.UpdateResults(ctx, nil, event); err != nil {
			return fmt.Errorf("%w: failed to refresh results of event %d: %w", ErrRecalculationFailed, event.ID, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ranking := range rankings {
		ranking := ranking
		g.Go(func() error {
			rebuilt := scoring.RecomputeRanking(ranking, events, profiles)
			if err := s.rankingRepo.UpdatePlayers(gctx, nil, ranking.ID, rebuilt); err != nil {
				return fmt.Errorf("failed to store leaderboard %s: %w", ranking.ID, err)
			}
			s.publishLeaderboard(gctx, ranking.ID, rebuilt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrRecalculationFailed, err)
	}
	return nil
}

func (s *rankingService) publishLeaderboard(ctx context.Context, rankingID string, players []models.RankingPlayer) {
	if s.boardCache != nil {
		if err := s.boardCache.SetPlayers(ctx, rankingID, players); err != nil {
			log.Printf("Leaderboard cache write failed for %s: %v", rankingID, err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastToRoom(live.RankingRoom(rankingID), live.Message{
			Type:    live.MessageLeaderboardUpdated,
			Payload: players,
		})
	}
}

// eventWasAttributed reports whether the event's results carry a
// per-ranking attribution map, the marker that the resolver scored them.
func eventWasAttributed(event *models.Event) bool {
	if event == nil {
		return false
	}
	for i := range event.Results {
		if event.Results[i].PointsPerRanking != nil {
			return true
		}
	}
	return false
}
