package handlers

import (
	"errors"
	"net/http"

	"github.com/chip-race/league-server/models"
	"github.com/chip-race/league-server/services"
	"github.com/go-chi/chi/v5"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rs services.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingService: rs,
	}
}

func (h *RankingHandler) CreateRanking(w http.ResponseWriter, r *http.Request) {
	var input services.RankingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ranking, err := h.rankingService.CreateRanking(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ranking": ranking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) GetRankingByID(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")

	ranking, err := h.rankingService.GetRankingByID(r.Context(), rankingID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": ranking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) GetAllRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.rankingService.GetAllRankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": rankings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) UpdateRanking(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")

	var input services.RankingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ranking, err := h.rankingService.UpdateRanking(r.Context(), rankingID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": ranking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) DeleteRanking(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")

	if err := h.rankingService.DeleteRanking(r.Context(), rankingID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLeaderboard godoc
// @Summary Get a leaderboard
// @Tags rankings
// @Description Returns the ranked player list for one leaderboard, served from cache when possible.
// @Produce json
// @Param rankingID path string true "Ranking ID"
// @Success 200 {object} map[string]interface{} "Ranked players"
// @Failure 404 {object} map[string]string "Ranking not found"
// @Router /rankings/{rankingID}/leaderboard [get]
func (h *RankingHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")

	players, err := h.rankingService.GetLeaderboard(r.Context(), rankingID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetSchemaMapping godoc
// @Summary Map an event type to a scoring schema
// @Tags rankings
// @Description Binds one event ranking type to a scoring schema for this leaderboard. An empty schema ref removes the override; "null" suppresses points. Admin only.
// @Accept json
// @Produce json
// @Param rankingID path string true "Ranking ID"
// @Success 200 {object} map[string]interface{} "Updated ranking"
// @Security BearerAuth
// @Router /rankings/{rankingID}/schema-map [put]
func (h *RankingHandler) SetSchemaMapping(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")

	var input struct {
		RankingType models.RankingType `json:"ranking_type"`
		SchemaRef   string             `json:"schema_ref"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.RankingType == "" {
		badRequestResponse(w, r, errors.New("ranking_type is required"))
		return
	}

	ranking, err := h.rankingService.SetSchemaMapping(r.Context(), rankingID, input.RankingType, input.SchemaRef)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": ranking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) SetManualPrize(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")

	var input struct {
		PlayerName string  `json:"player_name"`
		Prize      *string `json:"prize"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerName == "" {
		badRequestResponse(w, r, errors.New("player_name is required"))
		return
	}

	if err := h.rankingService.SetManualPrize(r.Context(), rankingID, input.PlayerName, input.Prize); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recalculate triggers a full rebuild of every leaderboard.
func (h *RankingHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if err := h.rankingService.RecalculateAll(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "leaderboards recalculated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
