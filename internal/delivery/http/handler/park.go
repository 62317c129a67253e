package handler

import (
	"net/http"

	"github.com/Pesokrava/park_reviewer/internal/delivery/http/request"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/usecase/park"
)

// ParkHandler handles HTTP requests for parks
type ParkHandler struct {
	service *park.Service
	logger  *logger.Logger
}

// NewParkHandler creates a new park handler
func NewParkHandler(service *park.Service, log *logger.Logger) *ParkHandler {
	return &ParkHandler{
		service: service,
		logger:  log,
	}
}

// RegisterParkRequest represents the request body for registering a park
type RegisterParkRequest struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

// Register handles POST /api/v1/parks
// @Summary Register a park
// @Description Creates the park with the given place ID, or refreshes its name and address if it exists
// @Tags Parks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param park body RegisterParkRequest true "Park details"
// @Success 201 {object} map[string]interface{} "Park registered"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Router /parks [post]
func (h *ParkHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterParkRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := &domain.Park{
		PlaceID: req.PlaceID,
		Name:    req.Name,
		Address: req.Address,
	}

	if err := h.service.Register(r.Context(), p); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, p)
}

// GetByID handles GET /api/v1/parks/{id}
// @Summary Get a park by ID
// @Tags Parks
// @Produce json
// @Param id path string true "Park ID (UUID)"
// @Success 200 {object} map[string]interface{} "Park details"
// @Failure 400 {object} map[string]string "Invalid park ID"
// @Failure 404 {object} map[string]string "Park not found"
// @Router /parks/{id} [get]
func (h *ParkHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid park ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, p)
}

// List handles GET /api/v1/parks
// @Summary List parks
// @Description Get a paginated list of parks ordered by name
// @Tags Parks
// @Produce json
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of parks"
// @Router /parks [get]
func (h *ParkHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	parks, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, parks, total, limit, offset)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ParkHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Park not found")
}
