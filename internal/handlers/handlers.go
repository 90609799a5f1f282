package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pawpop-backend/internal/catalog"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/printify"
	"pawpop-backend/internal/services"
)

type OrderReader interface {
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type OrderOperations interface {
	RetryFailedOrder(ctx context.Context, orderID uuid.UUID) error
	CancelStalePending(ctx context.Context, createdBefore time.Time, dryRun bool) ([]uuid.UUID, error)
	ApplyProviderStatus(ctx context.Context, printifyOrderID, providerStatus string) error
}

type HistoryReader interface {
	History(ctx context.Context, orderID uuid.UUID) ([]models.StatusHistory, error)
}

type ReviewService interface {
	Get(ctx context.Context, reviewID uuid.UUID) (*models.AdminReview, error)
	ListPending(ctx context.Context, reviewType models.ReviewType) ([]models.AdminReview, error)
	Approve(ctx context.Context, reviewID uuid.UUID, reviewerID, notes string) error
	Reject(ctx context.Context, reviewID uuid.UUID, reviewerID, notes string) error
	ManualReplace(ctx context.Context, reviewID uuid.UUID, newImageURL, reviewerID, notes string) error
}

type ImageStorage interface {
	UploadReviewImage(ctx context.Context, folder, filename, contentType string, data []byte) (string, string, error)
	DeleteFile(ctx context.Context, storagePath string) error
}

type ShippingQuoter interface {
	GetShippingMethods(ctx context.Context, productType models.ProductType, region catalog.Region) ([]printify.ShippingMethod, error)
}

// respondError maps workflow errors onto HTTP statuses.
func respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case services.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrArtworkNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrReviewAlreadyDecided),
		errors.Is(err, services.ErrMissingMetadata),
		errors.Is(err, services.ErrOrderNotRetryable),
		errors.Is(err, services.ErrOrderCancelled),
		errors.Is(err, services.ErrWorkflowBusy):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrRegionUnavailable):
		status = http.StatusBadRequest
	}
	c.JSON(status, models.ErrorResponse{Error: msg, Message: err.Error()})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
