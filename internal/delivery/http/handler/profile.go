package handler

import (
	"context"
	"net/http"

	"github.com/Pesokrava/park_reviewer/internal/delivery/http/request"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// ProfileService is the identity use case consumed by ProfileHandler
type ProfileService interface {
	Signup(ctx context.Context, displayName string, avatarURL *string) (*domain.Profile, error)
	Me(ctx context.Context) (*domain.Profile, error)
}

// ProfileHandler handles HTTP requests for the caller's profile
type ProfileHandler struct {
	service ProfileService
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  log,
	}
}

// SignupRequest represents the request body for creating a profile
type SignupRequest struct {
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Signup handles POST /api/v1/profiles
// @Summary Create the caller's profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body SignupRequest true "Profile details"
// @Success 201 {object} map[string]interface{} "Profile created"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 409 {object} map[string]string "Profile already exists"
// @Router /profiles [post]
func (h *ProfileHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.Signup(r.Context(), req.DisplayName, req.AvatarURL)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, profile)
}

// Me handles GET /api/v1/profiles/me
// @Summary Get the caller's profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Profile"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Profile required"
// @Router /profiles/me [get]
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Me(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, profile)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ProfileHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Profile not found")
}
