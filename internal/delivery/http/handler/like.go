package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/delivery/http/request"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// LikeService is the like use case consumed by LikeHandler
type LikeService interface {
	Toggle(ctx context.Context, reviewID, likerID uuid.UUID) (domain.LikeState, error)
	Status(ctx context.Context, reviewID, likerID uuid.UUID) (domain.LikeState, error)
}

// LikeHandler handles HTTP requests for review likes
type LikeHandler struct {
	service  LikeService
	identity IdentityResolver
	logger   *logger.Logger
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(service LikeService, identity IdentityResolver, log *logger.Logger) *LikeHandler {
	return &LikeHandler{
		service:  service,
		identity: identity,
		logger:   log,
	}
}

// LikeResponse is the like state of the caller on a review
type LikeResponse struct {
	Liked bool `json:"liked"`
}

// Toggle handles POST /api/v1/reviews/{id}/like
// @Summary Toggle like on a review
// @Description Likes the review if the caller has not liked it yet, otherwise removes the like
// @Tags Likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} LikeResponse "New like state"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Profile required"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 503 {object} map[string]string "Service unavailable"
// @Router /reviews/{id}/like [post]
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Toggle)
}

// Status handles GET /api/v1/reviews/{id}/like
// @Summary Get the caller's like state on a review
// @Tags Likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} LikeResponse "Current like state"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/like [get]
func (h *LikeHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Status)
}

func (h *LikeHandler) respond(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, uuid.UUID) (domain.LikeState, error)) {
	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	likerID, err := h.identity.Resolve(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	state, err := op(r.Context(), reviewID, likerID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, LikeResponse{Liked: bool(state)})
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *LikeHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Review not found")
}
