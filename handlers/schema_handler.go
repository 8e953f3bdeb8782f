package handlers

import (
	"net/http"

	"github.com/chip-race/league-server/services"
	"github.com/go-chi/chi/v5"
)

type SchemaHandler struct {
	schemaService services.SchemaService
}

func NewSchemaHandler(ss services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: ss,
	}
}

// CreateSchema godoc
// @Summary Create a scoring schema
// @Tags schemas
// @Description Creates a named point formula out of criteria and optional position bonuses. Admin only.
// @Accept json
// @Produce json
// @Param body body services.SchemaInput true "Schema definition"
// @Success 201 {object} map[string]interface{} "Schema created"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Name already taken"
// @Security BearerAuth
// @Router /schemas [post]
func (h *SchemaHandler) CreateSchema(w http.ResponseWriter, r *http.Request) {
	var input services.SchemaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	schema, err := h.schemaService.CreateSchema(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"schema": schema}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchemaHandler) GetSchemaByID(w http.ResponseWriter, r *http.Request) {
	schemaID := chi.URLParam(r, "schemaID")

	schema, err := h.schemaService.GetSchemaByID(r.Context(), schemaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"schema": schema}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchemaHandler) GetAllSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.schemaService.GetAllSchemas(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"schemas": schemas}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSchema godoc
// @Summary Update a scoring schema
// @Tags schemas
// @Description Replaces the schema definition and recalculates every leaderboard. Admin only.
// @Accept json
// @Produce json
// @Param schemaID path string true "Schema ID"
// @Param body body services.SchemaInput true "New schema definition"
// @Success 200 {object} map[string]interface{} "Schema updated"
// @Failure 404 {object} map[string]string "Schema not found"
// @Security BearerAuth
// @Router /schemas/{schemaID} [put]
func (h *SchemaHandler) UpdateSchema(w http.ResponseWriter, r *http.Request) {
	schemaID := chi.URLParam(r, "schemaID")

	var input services.SchemaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	schema, err := h.schemaService.UpdateSchema(r.Context(), schemaID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"schema": schema}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchemaHandler) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	schemaID := chi.URLParam(r, "schemaID")

	if err := h.schemaService.DeleteSchema(r.Context(), schemaID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
