package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"time"

	"github.com/chip-race/league-server/models"
	"github.com/chip-race/league-server/repositories"
	"github.com/chip-race/league-server/scoring"
	"github.com/chip-race/league-server/storage"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var (
	ErrPlayerNameRequired    = errors.New("player name is required")
	ErrDailyAlreadyClaimed   = errors.New("daily reward already claimed today")
	ErrVIPDurationInvalid    = errors.New("vip duration must be positive")
	ErrAvatarUploadsDisabled = errors.New("avatar uploads are not configured")
	ErrAvatarTypeUnsupported = errors.New("unsupported avatar content type")
)

// Daily reward tuning. The streak bonus stops growing after a week so a
// long streak stays valuable without running away.
const (
	dailyBaseXP      = 50
	dailyStreakBonus = 10
	dailyStreakCap   = 7
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, input PlayerInput) (*models.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*models.Player, error)
	GetPlayerByName(ctx context.Context, name string) (*models.Player, error)
	// ListPlayers returns all profiles, fuzzy-filtered by the optional
	// search query.
	ListPlayers(ctx context.Context, search string) ([]*models.Player, error)
	UpdatePlayer(ctx context.Context, id string, input PlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	UploadAvatar(ctx context.Context, id string, contentType string, file io.Reader) (*models.Player, error)

	// ClaimDailyReward grants XP once per calendar day (UTC) and keeps the
	// consecutive-day streak.
	ClaimDailyReward(ctx context.Context, id string) (*models.Player, error)
	ActivateVIP(ctx context.Context, id string, days int) (*models.Player, error)
}

type PlayerInput struct {
	Name        string            `json:"name"`
	City        *string           `json:"city,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	PlayStyles  []string          `json:"play_styles,omitempty"`
	Gallery     []string          `json:"gallery,omitempty"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

// NewPlayerService wires player profiles. uploader is optional; a nil
// value disables avatar uploads.
func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

func (s *playerService) hydrateAvatarURL(player *models.Player) {
	if player == nil || s.uploader == nil || player.AvatarKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*player.AvatarKey)
	if url != "" {
		player.AvatarURL = &url
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input PlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	player := &models.Player{
		ID:          uuid.NewString(),
		Name:        name,
		City:        input.City,
		Bio:         input.Bio,
		SocialLinks: input.SocialLinks,
		PlayStyles:  input.PlayStyles,
		Gallery:     input.Gallery,
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, ErrPlayerNameConflict
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetPlayerByID(ctx context.Context, id string) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	s.hydrateAvatarURL(player)
	return player, nil
}

func (s *playerService) GetPlayerByName(ctx context.Context, name string) (*models.Player, error) {
	player, err := s.playerRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player by name %q: %w", name, err)
	}
	s.hydrateAvatarURL(player)
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, search string) ([]*models.Player, error) {
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for _, p := range players {
		s.hydrateAvatarURL(p)
	}

	search = strings.TrimSpace(search)
	if search == "" {
		if players == nil {
			return []*models.Player{}, nil
		}
		return players, nil
	}

	byName := make(map[string]*models.Player, len(players))
	names := make([]string, 0, len(players))
	for _, p := range players {
		key := scoring.NormalizeName(p.Name)
		byName[key] = p
		names = append(names, key)
	}

	ranks := fuzzy.RankFindNormalizedFold(search, names)
	sort.Sort(ranks)

	matched := make([]*models.Player, 0, len(ranks))
	for _, rank := range ranks {
		matched = append(matched, byName[rank.Target])
	}
	return matched, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, id string, input PlayerInput) (*models.Player, error) {
	player, err := s.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		player.Name = name
	}
	player.City = input.City
	player.Bio = input.Bio
	player.SocialLinks = input.SocialLinks
	player.PlayStyles = input.PlayStyles
	player.Gallery = input.Gallery

	if err := s.playerRepo.Update(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		case errors.Is(err, repositories.ErrPlayerNameConflict):
			return nil, ErrPlayerNameConflict
		default:
			return nil, fmt.Errorf("failed to update player %s: %w", id, err)
		}
	}
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, id string) error {
	player, err := s.GetPlayerByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.playerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to delete player %s: %w", id, err)
	}

	if s.uploader != nil && player.AvatarKey != nil {
		if err := s.uploader.Delete(ctx, *player.AvatarKey); err != nil {
			return fmt.Errorf("player %s deleted, but avatar cleanup failed: %w", id, err)
		}
	}
	return nil
}

func (s *playerService) UploadAvatar(ctx context.Context, id string, contentType string, file io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrAvatarUploadsDisabled
	}

	player, err := s.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext := avatarExtension(contentType)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s", ErrAvatarTypeUnsupported, contentType)
	}

	oldKey := player.AvatarKey
	key := fmt.Sprintf("avatars/%s%s", player.ID, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar for player %s: %w", id, err)
	}

	if err := s.playerRepo.UpdateAvatarKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key for player %s: %w", id, err)
	}

	// Same extension overwrites in place; a format change leaves the old
	// object behind, so remove it.
	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			return nil, fmt.Errorf("avatar stored, but old object cleanup failed for player %s: %w", id, err)
		}
	}

	player.AvatarKey = &result.Key
	s.hydrateAvatarURL(player)
	return player, nil
}

func avatarExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func (s *playerService) ClaimDailyReward(ctx context.Context, id string) (*models.Player, error) {
	player, err := s.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	if player.LastDailyClaim != nil {
		lastDay := player.LastDailyClaim.UTC().Truncate(24 * time.Hour)
		switch {
		case lastDay.Equal(today):
			return nil, ErrDailyAlreadyClaimed
		case lastDay.Equal(today.AddDate(0, 0, -1)):
			player.DailyStreak++
		default:
			player.DailyStreak = 1
		}
	} else {
		player.DailyStreak = 1
	}

	bonusDays := player.DailyStreak - 1
	if bonusDays > dailyStreakCap {
		bonusDays = dailyStreakCap
	}
	player.XP += dailyBaseXP + bonusDays*dailyStreakBonus
	player.LastDailyClaim = &now

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to record daily reward for player %s: %w", id, err)
	}
	return player, nil
}

func (s *playerService) ActivateVIP(ctx context.Context, id string, days int) (*models.Player, error) {
	if days <= 0 {
		return nil, ErrVIPDurationInvalid
	}

	player, err := s.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Extend an active subscription from its current end, not from today.
	now := time.Now()
	base := now
	if player.VIPUntil != nil && player.VIPUntil.After(now) {
		base = *player.VIPUntil
	}
	until := base.AddDate(0, 0, days)
	player.VIPUntil = &until

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to activate vip for player %s: %w", id, err)
	}
	return player, nil
}
