package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pawpop-backend/internal/middleware"
	"pawpop-backend/internal/models"
)

const maxReviewImageSize = 32 << 20

type ReviewHandler struct {
	reviews ReviewService
	storage ImageStorage
	logger  *slog.Logger
}

func NewReviewHandler(reviews ReviewService, storage ImageStorage, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		reviews: reviews,
		storage: storage,
		logger:  logger,
	}
}

// List godoc
// @Summary     List pending reviews
// @Description Returns reviews waiting for a decision, oldest first
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       type query string false "artwork_proof or highres_file"
// @Success     200 {object} models.ReviewListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /admin/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	var reviewType models.ReviewType
	if raw := c.Query("type"); raw != "" {
		t, ok := models.ParseReviewType(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid review type", Message: "use artwork_proof or highres_file"})
			return
		}
		reviewType = t
	}

	reviews, err := h.reviews.ListPending(c.Request.Context(), reviewType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list reviews", Message: err.Error()})
		return
	}

	resp := models.ReviewListResponse{Reviews: make([]models.ReviewResponse, 0, len(reviews))}
	for i := range reviews {
		resp.Reviews = append(resp.Reviews, reviewResponse(&reviews[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary     Get a review
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       review_id path string true "Review ID (UUID)"
// @Success     200 {object} models.ReviewResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/reviews/{review_id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	reviewID, ok := parseUUIDParam(c, "review_id")
	if !ok {
		return
	}

	review, err := h.reviews.Get(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, "failed to get review", err)
		return
	}
	c.JSON(http.StatusOK, reviewResponse(review))
}

// Process godoc
// @Summary     Approve or reject a review
// @Description Approving resumes fulfillment of the order with the reviewed image. Rejecting leaves the order waiting for a replacement image.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       review_id path string true "Review ID (UUID)"
// @Param       request body models.ProcessReviewRequest true "Decision"
// @Success     200 {object} models.ReviewResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/reviews/{review_id}/process [post]
func (h *ReviewHandler) Process(c *gin.Context) {
	reviewID, ok := parseUUIDParam(c, "review_id")
	if !ok {
		return
	}

	var req models.ProcessReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	reviewer := c.GetString(middleware.UserIDKey)
	var err error
	switch strings.ToLower(req.Action) {
	case "approved", "approve":
		err = h.reviews.Approve(c.Request.Context(), reviewID, reviewer, req.Notes)
	case "rejected", "reject":
		err = h.reviews.Reject(c.Request.Context(), reviewID, reviewer, req.Notes)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid action", Message: "action must be approved or rejected"})
		return
	}
	if err != nil {
		h.logger.Error("failed to process review", "review_id", reviewID, "action", req.Action, "error", err)
		respondError(c, "failed to process review", err)
		return
	}

	h.respondWithReview(c, reviewID)
}

// ManualUpload godoc
// @Summary     Replace a review image
// @Description Stores an uploaded replacement image, approves the review with it and resumes fulfillment
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       review_id path string true "Review ID (UUID)"
// @Param       image formData file true "Replacement image"
// @Param       notes formData string false "Reviewer notes"
// @Param       reviewedBy formData string false "Reviewer name, defaults to the token subject"
// @Success     200 {object} models.ReviewResponse
// @Success     202 {object} models.ReviewResponse "Approved, fulfillment left to the retry sweep"
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/reviews/{review_id}/manual-upload [post]
func (h *ReviewHandler) ManualUpload(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "storage not available"})
		return
	}

	reviewID, ok := parseUUIDParam(c, "review_id")
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(maxReviewImageSize); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to parse multipart form", Message: err.Error()})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "image file is required", Message: err.Error()})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "file must be an image", Message: "got " + contentType})
		return
	}

	reviewer := strings.TrimSpace(c.PostForm("reviewedBy"))
	if reviewer == "" {
		reviewer = c.GetString(middleware.UserIDKey)
	}
	notes := c.PostForm("notes")

	review, err := h.reviews.Get(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, "failed to get review", err)
		return
	}
	if review.Status != models.ReviewPending {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "review already decided", Message: "review is " + string(review.Status)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open file", Message: err.Error()})
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	folder := reviewID.String()
	if review.ArtworkID.Valid {
		folder = review.ArtworkID.UUID.String()
	}

	storagePath, publicURL, err := h.storage.UploadReviewImage(c.Request.Context(), folder, fileHeader.Filename, contentType, data)
	if err != nil {
		h.logger.Error("failed to store replacement image", "review_id", reviewID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to upload image", Message: err.Error()})
		return
	}

	if err := h.reviews.ManualReplace(c.Request.Context(), reviewID, publicURL, reviewer, notes); err != nil {
		h.logger.Error("manual replace failed", "review_id", reviewID, "error", err)

		// Once the review is approved the upload is the order's print image,
		// and the retry sweep resubmits it.
		current, gerr := h.reviews.Get(c.Request.Context(), reviewID)
		if gerr == nil && current.Status == models.ReviewApproved && current.ImageURL == publicURL {
			resp := reviewResponse(current)
			resp.Warning = "image approved but fulfillment did not resume: " + err.Error()
			c.JSON(http.StatusAccepted, resp)
			return
		}
		if gerr == nil && current.Status == models.ReviewPending {
			if derr := h.storage.DeleteFile(c.Request.Context(), storagePath); derr != nil {
				h.logger.Warn("failed to delete orphaned upload", "path", storagePath, "error", derr)
			}
		} else {
			h.logger.Warn("keeping upload, review state unknown", "path", storagePath, "error", gerr)
		}
		respondError(c, "failed to replace image", err)
		return
	}

	h.logger.Info("review image replaced", "review_id", reviewID, "reviewer", reviewer, "image_url", publicURL)
	h.respondWithReview(c, reviewID)
}

func (h *ReviewHandler) respondWithReview(c *gin.Context, reviewID uuid.UUID) {
	review, err := h.reviews.Get(c.Request.Context(), reviewID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"review_id": reviewID.String()})
		return
	}
	c.JSON(http.StatusOK, reviewResponse(review))
}

func reviewResponse(r *models.AdminReview) models.ReviewResponse {
	resp := models.ReviewResponse{
		ID:               r.ID.String(),
		OrderSessionID:   r.OrderSessionID.String,
		ReviewType:       string(r.ReviewType),
		Status:           string(r.Status),
		ImageURL:         r.ImageURL,
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		PetName:          r.PetName.String,
		ReviewedBy:       r.ReviewedBy.String,
		ReviewNotes:      r.ReviewNotes.String,
		ManuallyReplaced: r.ManuallyReplaced,
		CreatedAt:        r.CreatedAt,
	}
	if r.ArtworkID.Valid {
		resp.ArtworkID = r.ArtworkID.UUID.String()
	}
	if r.ReviewedAt.Valid {
		t := r.ReviewedAt.Time
		resp.ReviewedAt = &t
	}
	return resp
}
