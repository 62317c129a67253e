package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/delivery/http/request"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/usecase/review"
)

// IdentityResolver maps the request session to a profile ID
type IdentityResolver interface {
	Resolve(ctx context.Context) (uuid.UUID, error)
}

// ReviewService is the review use case consumed by ReviewHandler
type ReviewService interface {
	Create(ctx context.Context, authorID uuid.UUID, input review.CreateInput) (*domain.ReviewDetails, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewDetails, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Review, error)
	ListByPark(ctx context.Context, parkID uuid.UUID) ([]*domain.ReviewDetails, error)
	Update(ctx context.Context, reviewID, requesterID uuid.UUID, input review.UpdateInput) (*domain.ReviewDetails, error)
	Delete(ctx context.Context, reviewID, requesterID uuid.UUID) error
}

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service  ReviewService
	identity IdentityResolver
	logger   *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService, identity IdentityResolver, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		identity: identity,
		logger:   log,
	}
}

// CreateReviewRequest represents the JSON body for creating a review
type CreateReviewRequest struct {
	ParkID  string                 `json:"park_id"`
	Content string                 `json:"content"`
	Images  []request.ImagePayload `json:"images,omitempty"`
}

// UpdateReviewRequest represents the JSON body for updating a review
type UpdateReviewRequest struct {
	Content        *string                `json:"content,omitempty"`
	ImagesToAdd    []request.ImagePayload `json:"images_to_add,omitempty"`
	ImagesToRemove []string               `json:"images_to_remove,omitempty"`
}

// Create handles POST /api/v1/reviews
// @Summary Create a new review
// @Description Create a review of a park, optionally with up to 5 images. Accepts multipart/form-data (park_id, content, images files) or JSON with base64 images.
// @Tags Reviews
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Profile required"
// @Failure 404 {object} map[string]string "Park not found"
// @Failure 413 {object} map[string]string "Image too large"
// @Failure 415 {object} map[string]string "Unsupported image type"
// @Failure 502 {object} map[string]string "Image storage failed"
// @Failure 503 {object} map[string]string "Service unavailable"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	authorID, err := h.identity.Resolve(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	input, err := h.createInput(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), authorID, input)
	if err != nil {
		writeError(w, h.logger, err, "Park not found")
		return
	}

	response.Created(w, created)
}

func (h *ReviewHandler) createInput(r *http.Request) (review.CreateInput, error) {
	var input review.CreateInput
	var parkID string

	if request.IsMultipart(r) {
		form, err := request.ParseMultipart(r)
		if err != nil {
			return input, domain.NewValidationError("body", "invalid multipart form")
		}
		parkID, _ = request.FormValue(form, "park_id")
		input.Content, _ = request.FormValue(form, "content")
		if input.Images, err = request.FormImages(form, "images"); err != nil {
			return input, err
		}
	} else {
		var req CreateReviewRequest
		if err := request.DecodeJSONLimit(r, &req, request.MaxReviewBodySize); err != nil {
			return input, domain.NewValidationError("body", "invalid request body")
		}
		parkID = req.ParkID
		input.Content = req.Content

		images, err := request.DecodeImages(req.Images)
		if err != nil {
			return input, err
		}
		input.Images = images
	}

	if parkID != "" {
		id, err := uuid.Parse(parkID)
		if err != nil {
			return input, domain.NewValidationError("park_id", "must be a valid UUID")
		}
		input.ParkID = id
	}

	return input, nil
}

// GetByID handles GET /api/v1/reviews/{id}
// @Summary Get a review by ID
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review with images"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	got, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, got)
}

// ListByPark handles GET /api/v1/reviews/by-park/{park_id}
// @Summary List reviews of a park
// @Description Newest first, each with its images and author display fields
// @Tags Reviews
// @Produce json
// @Param park_id path string true "Park ID (UUID)"
// @Success 200 {object} map[string]interface{} "List of reviews"
// @Failure 400 {object} map[string]string "Invalid park ID"
// @Router /reviews/by-park/{park_id} [get]
func (h *ReviewHandler) ListByPark(w http.ResponseWriter, r *http.Request) {
	parkID, err := request.GetUUIDParam(r, "park_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid park ID")
		return
	}

	reviews, err := h.service.ListByPark(r.Context(), parkID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, reviews)
}

// ListByAuthor handles GET /api/v1/reviews/by-author/{author_id}
// @Summary List reviews written by a profile
// @Tags Reviews
// @Produce json
// @Param author_id path string true "Author profile ID (UUID)"
// @Success 200 {object} map[string]interface{} "List of reviews"
// @Failure 400 {object} map[string]string "Invalid author ID"
// @Router /reviews/by-author/{author_id} [get]
func (h *ReviewHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := request.GetUUIDParam(r, "author_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid author ID")
		return
	}

	reviews, err := h.service.ListByAuthor(r.Context(), authorID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, reviews)
}

// Update handles PUT /api/v1/reviews/{id}
// @Summary Update a review
// @Description Change content and/or images. Removals are applied before additions.
// @Tags Reviews
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param review body UpdateReviewRequest true "Changes"
// @Success 200 {object} map[string]interface{} "Review updated successfully"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	requesterID, err := h.identity.Resolve(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	input, err := h.updateInput(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, requesterID, input)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, updated)
}

func (h *ReviewHandler) updateInput(r *http.Request) (review.UpdateInput, error) {
	var input review.UpdateInput

	if request.IsMultipart(r) {
		form, err := request.ParseMultipart(r)
		if err != nil {
			return input, domain.NewValidationError("body", "invalid multipart form")
		}
		if content, ok := request.FormValue(form, "content"); ok {
			input.Content = &content
		}
		input.ImagesToRemove = form.Value["images_to_remove"]
		if input.ImagesToAdd, err = request.FormImages(form, "images_to_add"); err != nil {
			return input, err
		}
		return input, nil
	}

	var req UpdateReviewRequest
	if err := request.DecodeJSONLimit(r, &req, request.MaxReviewBodySize); err != nil {
		return input, domain.NewValidationError("body", "invalid request body")
	}

	images, err := request.DecodeImages(req.ImagesToAdd)
	if err != nil {
		return input, err
	}

	input.Content = req.Content
	input.ImagesToAdd = images
	input.ImagesToRemove = req.ImagesToRemove
	return input, nil
}

// Delete handles DELETE /api/v1/reviews/{id}
// @Summary Delete a review
// @Description Deletes the review together with its images and likes
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 204 "Review deleted successfully"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	requesterID, err := h.identity.Resolve(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, requesterID); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Review not found")
}
