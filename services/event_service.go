package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chip-race/league-server/live"
	"github.com/chip-race/league-server/models"
	"github.com/chip-race/league-server/repositories"
	"github.com/chip-race/league-server/scoring"
)

var (
	ErrEventNameRequired        = errors.New("event name is required")
	ErrEventRankingTypeRequired = errors.New("event ranking type is required")
	ErrEventStartRequired       = errors.New("event start time is required")
	ErrEventResultsRequired     = errors.New("at least one result row is required")
	ErrEventResultNameRequired  = errors.New("every result row needs a player name")
	ErrEventAlreadyClosed       = errors.New("event is already closed")
	ErrEventNotClosed           = errors.New("event is not closed")
	ErrEventStatusTransition    = errors.New("invalid event status transition")
)

type EventService interface {
	CreateEvent(ctx context.Context, input EventInput) (*models.Event, error)
	GetEventByID(ctx context.Context, id int) (*models.Event, error)
	ListEvents(ctx context.Context, filter repositories.ListEventsFilter) ([]*models.Event, error)
	UpdateEvent(ctx context.Context, id int, input EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int) error

	// StartEvent moves an open event to running once play begins.
	StartEvent(ctx context.Context, id int) (*models.Event, error)

	// CloseEvent records the final results, scores them for every included
	// leaderboard and triggers a full recalculation.
	CloseEvent(ctx context.Context, id int, input CloseEventInput) (*models.Event, error)

	// UpdateResults replaces the results of an already closed event and
	// reprices everything downstream.
	UpdateResults(ctx context.Context, id int, input CloseEventInput) (*models.Event, error)

	// StartDueEvents transitions every open event whose start time has
	// passed. Called by the scheduler.
	StartDueEvents(ctx context.Context, now time.Time) (int, error)
}

type EventInput struct {
	Name              string             `json:"name"`
	Description       *string            `json:"description,omitempty"`
	Location          *string            `json:"location,omitempty"`
	RankingType       models.RankingType `json:"ranking_type"`
	Buyin             string             `json:"buyin"`
	TotalParticipants int                `json:"total_participants"`
	IncludedRankings  []string           `json:"included_rankings,omitempty"`
	ScoringSchemaID   string             `json:"scoring_schema_id,omitempty"`
	StartsAt          time.Time          `json:"starts_at"`
}

type CloseEventInput struct {
	TotalParticipants int                   `json:"total_participants,omitempty"`
	Results           []models.PlayerResult `json:"results"`
}

type eventService struct {
	eventRepo    repositories.EventRepository
	rankingRepo  repositories.RankingRepository
	schemaRepo   repositories.ScoringSchemaRepository
	playerRepo   repositories.PlayerRepository
	recalculator LeaderboardRecalculator
	hub          *live.Hub
}

func NewEventService(
	eventRepo repositories.EventRepository,
	rankingRepo repositories.RankingRepository,
	schemaRepo repositories.ScoringSchemaRepository,
	playerRepo repositories.PlayerRepository,
	recalculator LeaderboardRecalculator,
	hub *live.Hub,
) EventService {
	return &eventService{
		eventRepo:    eventRepo,
		rankingRepo:  rankingRepo,
		schemaRepo:   schemaRepo,
		playerRepo:   playerRepo,
		recalculator: recalculator,
		hub:          hub,
	}
}

func (s *eventService) validateEventInput(ctx context.Context, input *EventInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrEventNameRequired
	}
	if input.RankingType == "" {
		return ErrEventRankingTypeRequired
	}
	if !input.RankingType.Valid() {
		return fmt.Errorf("%w: %q", ErrRankingTypeInvalid, input.RankingType)
	}
	if input.StartsAt.IsZero() {
		return ErrEventStartRequired
	}

	for _, rankingID := range input.IncludedRankings {
		if _, err := s.rankingRepo.GetByID(ctx, rankingID); err != nil {
			if errors.Is(err, repositories.ErrRankingNotFound) {
				return fmt.Errorf("%w: included ranking %q does not exist", ErrValidationFailed, rankingID)
			}
			return fmt.Errorf("failed to check included ranking %s: %w", rankingID, err)
		}
	}

	if ref := strings.TrimSpace(input.ScoringSchemaID); ref != "" && ref != models.SchemaRefSuppressed {
		if _, err := s.schemaRepo.GetByID(ctx, ref); err != nil {
			if errors.Is(err, repositories.ErrScoringSchemaNotFound) {
				return fmt.Errorf("%w: %s", ErrSchemaRefInvalid, ref)
			}
			return fmt.Errorf("failed to resolve schema ref %s: %w", ref, err)
		}
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, input EventInput) (*models.Event, error) {
	if err := s.validateEventInput(ctx, &input); err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:              input.Name,
		Description:       input.Description,
		Location:          input.Location,
		RankingType:       input.RankingType,
		Buyin:             input.Buyin,
		TotalParticipants: input.TotalParticipants,
		IncludedRankings:  input.IncludedRankings,
		ScoringSchemaID:   strings.TrimSpace(input.ScoringSchemaID),
		Status:            models.EventStatusOpen,
		StartsAt:          input.StartsAt,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEventByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter repositories.ListEventsFilter) ([]*models.Event, error) {
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		return []*models.Event{}, nil
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id int, input EventInput) (*models.Event, error) {
	if err := s.validateEventInput(ctx, &input); err != nil {
		return nil, err
	}

	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Name = input.Name
	event.Description = input.Description
	event.Location = input.Location
	event.RankingType = input.RankingType
	event.Buyin = input.Buyin
	event.TotalParticipants = input.TotalParticipants
	event.IncludedRankings = input.IncludedRankings
	event.ScoringSchemaID = strings.TrimSpace(input.ScoringSchemaID)
	event.StartsAt = input.StartsAt

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event %d: %w", id, err)
	}

	// Metadata edits on a closed event (ranking type, buy-in, schema)
	// change what its results are worth.
	if event.Status == models.EventStatusClosed && s.recalculator != nil {
		if err := s.recalculator.RecalculateAll(ctx); err != nil {
			return nil, fmt.Errorf("event %d updated, but recalculation failed: %w", id, err)
		}
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id int) error {
	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}

	if event.Status == models.EventStatusClosed && s.recalculator != nil {
		if err := s.recalculator.RecalculateAll(ctx); err != nil {
			return fmt.Errorf("event %d deleted, but recalculation failed: %w", id, err)
		}
	}
	return nil
}

func (s *eventService) StartEvent(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusOpen {
		return nil, fmt.Errorf("%w: %s -> %s", ErrEventStatusTransition, event.Status, models.EventStatusRunning)
	}

	if err := s.eventRepo.UpdateStatus(ctx, nil, id, models.EventStatusRunning); err != nil {
		return nil, fmt.Errorf("failed to start event %d: %w", id, err)
	}
	event.Status = models.EventStatusRunning
	return event, nil
}

func (s *eventService) CloseEvent(ctx context.Context, id int, input CloseEventInput) (*models.Event, error) {
	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusClosed {
		return nil, ErrEventAlreadyClosed
	}
	return s.finalizeResults(ctx, event, input)
}

func (s *eventService) UpdateResults(ctx context.Context, id int, input CloseEventInput) (*models.Event, error) {
	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusClosed {
		return nil, ErrEventNotClosed
	}
	return s.finalizeResults(ctx, event, input)
}

// finalizeResults scores and persists a result sheet, then rebuilds every
// leaderboard the event feeds.
func (s *eventService) finalizeResults(ctx context.Context, event *models.Event, input CloseEventInput) (*models.Event, error) {
	if len(input.Results) == 0 {
		return nil, ErrEventResultsRequired
	}
	for i := range input.Results {
		input.Results[i].Name = strings.TrimSpace(input.Results[i].Name)
		if input.Results[i].Name == "" {
			return nil, ErrEventResultNameRequired
		}
	}

	event.Results = input.Results
	if input.TotalParticipants > 0 {
		event.TotalParticipants = input.TotalParticipants
	} else if event.TotalParticipants <= 0 {
		event.TotalParticipants = len(input.Results)
	}

	s.applyVIPFlags(ctx, event)

	rankings, err := s.rankingRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings for event %d: %w", event.ID, err)
	}
	schemaList, err := s.schemaRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring schemas for event %d: %w", event.ID, err)
	}

	scoring.AttributeResults(event, rankings, scoring.NewSchemaSet(schemaList))

	event.Status = models.EventStatusClosed
	if err := s.eventRepo.UpdateResults(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("failed to persist results of event %d: %w", event.ID, err)
	}

	if s.recalculator != nil {
		if err := s.recalculator.RecalculateAll(ctx); err != nil {
			return nil, fmt.Errorf("event %d closed, but recalculation failed: %w", event.ID, err)
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.EventRoom(fmt.Sprint(event.ID)), live.Message{
			Type:    live.MessageEventClosed,
			Payload: event,
		})
	}
	return event, nil
}

// applyVIPFlags turns on the VIP flag for any result row whose player
// profile has an active VIP subscription. A flag already set by the admin
// stays set.
func (s *eventService) applyVIPFlags(ctx context.Context, event *models.Event) {
	if s.playerRepo == nil {
		return
	}
	now := time.Now()
	for i := range event.Results {
		result := &event.Results[i]
		if result.IsVIP {
			continue
		}
		player, err := s.playerRepo.GetByName(ctx, result.Name)
		if err != nil {
			continue
		}
		result.IsVIP = player.IsVIP(now)
	}
}

func (s *eventService) StartDueEvents(ctx context.Context, now time.Time) (int, error) {
	due, err := s.eventRepo.GetEventsDueToStart(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load due events: %w", err)
	}

	started := 0
	for _, event := range due {
		if err := s.eventRepo.UpdateStatus(ctx, nil, event.ID, models.EventStatusRunning); err != nil {
			return started, fmt.Errorf("failed to start event %d: %w", event.ID, err)
		}
		started++
	}
	return started, nil
}
