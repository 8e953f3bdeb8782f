package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chip-race/league-server/models"
	"github.com/chip-race/league-server/repositories"
)

// In-memory repositories backing the service tests.

func normalizeTestName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeSchemaRepo struct {
	mu      sync.Mutex
	schemas map[string]*models.ScoringSchema
}

func newFakeSchemaRepo() *fakeSchemaRepo {
	return &fakeSchemaRepo{schemas: map[string]*models.ScoringSchema{}}
}

func (f *fakeSchemaRepo) Create(ctx context.Context, schema *models.ScoringSchema) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.schemas {
		if s.Name == schema.Name {
			return repositories.ErrScoringSchemaNameConflict
		}
	}
	f.schemas[schema.ID] = schema
	return nil
}

func (f *fakeSchemaRepo) GetByID(ctx context.Context, id string) (*models.ScoringSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schemas[id]
	if !ok {
		return nil, repositories.ErrScoringSchemaNotFound
	}
	return s, nil
}

func (f *fakeSchemaRepo) GetAll(ctx context.Context) ([]*models.ScoringSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ScoringSchema, 0, len(f.schemas))
	for _, s := range f.schemas {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSchemaRepo) Update(ctx context.Context, schema *models.ScoringSchema) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schemas[schema.ID]; !ok {
		return repositories.ErrScoringSchemaNotFound
	}
	f.schemas[schema.ID] = schema
	return nil
}

func (f *fakeSchemaRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schemas[id]; !ok {
		return repositories.ErrScoringSchemaNotFound
	}
	delete(f.schemas, id)
	return nil
}

type fakeRankingRepo struct {
	mu       sync.Mutex
	rankings map[string]*models.RankingInstance
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{rankings: map[string]*models.RankingInstance{}}
}

func (f *fakeRankingRepo) Create(ctx context.Context, ranking *models.RankingInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rankings[ranking.ID]; ok {
		return repositories.ErrRankingIDConflict
	}
	f.rankings[ranking.ID] = ranking
	return nil
}

func (f *fakeRankingRepo) GetByID(ctx context.Context, id string) (*models.RankingInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rankings[id]
	if !ok {
		return nil, repositories.ErrRankingNotFound
	}
	return r, nil
}

func (f *fakeRankingRepo) GetAll(ctx context.Context) ([]*models.RankingInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.RankingInstance, 0, len(f.rankings))
	for _, r := range f.rankings {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRankingRepo) Update(ctx context.Context, ranking *models.RankingInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rankings[ranking.ID]; !ok {
		return repositories.ErrRankingNotFound
	}
	f.rankings[ranking.ID] = ranking
	return nil
}

func (f *fakeRankingRepo) UpdatePlayers(ctx context.Context, exec repositories.SQLExecutor, id string, players []models.RankingPlayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rankings[id]
	if !ok {
		return repositories.ErrRankingNotFound
	}
	r.Players = players
	return nil
}

func (f *fakeRankingRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rankings[id]; !ok {
		return repositories.ErrRankingNotFound
	}
	delete(f.rankings, id)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int]*models.Event{}}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = f.nextID
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter repositories.ListEventsFilter) ([]*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Event, 0, len(f.events))
	for _, e := range f.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.RankingType != nil && e.RankingType != *filter.RankingType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) ListClosed(ctx context.Context) ([]*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Event, 0)
	for _, e := range f.events {
		if e.Status == models.EventStatusClosed && len(e.Results) > 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.Status = status
	return nil
}

func (f *fakeEventRepo) UpdateResults(ctx context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.events[event.ID]
	if !ok {
		return repositories.ErrEventNotFound
	}
	stored.Results = event.Results
	stored.TotalParticipants = event.TotalParticipants
	stored.Status = event.Status
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) GetEventsDueToStart(ctx context.Context, now time.Time) ([]*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Event, 0)
	for _, e := range f.events {
		if e.Status == models.EventStatusOpen && !e.StartsAt.After(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[string]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: map[string]*models.Player{}}
}

func (f *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Name == player.Name {
			return repositories.ErrPlayerNameConflict
		}
	}
	f.players[player.ID] = player
	return nil
}

func (f *fakePlayerRepo) GetByID(ctx context.Context, id string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return p, nil
}

func (f *fakePlayerRepo) GetByName(ctx context.Context, name string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := normalizeTestName(name)
	for _, p := range f.players {
		if normalizeTestName(p.Name) == want {
			return p, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) GetAll(ctx context.Context) ([]*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	f.players[player.ID] = player
	return nil
}

func (f *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.AvatarKey = avatarKey
	return nil
}

func (f *fakePlayerRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(f.players, id)
	return nil
}

// fakeRecalculator counts invocations instead of rebuilding anything.
type fakeRecalculator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRecalculator) RecalculateAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeRecalculator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
