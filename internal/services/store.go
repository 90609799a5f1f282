package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"pawpop-backend/internal/models"
)

// Lookups return (nil, nil) when the row does not exist.

type OrderStore interface {
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrderByPrintifyID(ctx context.Context, printifyOrderID string) (*models.Order, error)

	// TransitionOrderStatus moves the order to status only if its current
	// status is one of from. It reports whether the row changed.
	TransitionOrderStatus(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, status models.OrderStatus) (bool, error)

	// UpdateOrderAfterPayment stores the payment reference and shipping
	// address and moves a pending order to paid. It reports whether the
	// status changed.
	UpdateOrderAfterPayment(ctx context.Context, sessionID, paymentRef string, address *models.ShippingAddress) (bool, error)
	SaveOrderMetadata(ctx context.Context, orderID uuid.UUID, meta *models.OrderMetadata) error
	SetFulfillmentImage(ctx context.Context, orderID uuid.UUID, imageURL string) error

	// ClaimFulfillment marks the order as having a provider submission in
	// flight. Claims older than staleBefore can be taken over.
	ClaimFulfillment(ctx context.Context, orderID uuid.UUID, staleBefore time.Time) (bool, error)
	ReleaseFulfillmentClaim(ctx context.Context, orderID uuid.UUID) error

	// UpdateOrderWithFulfillment stores the provider order and sets the order
	// to processing, only while no provider order id is stored yet.
	UpdateOrderWithFulfillment(ctx context.Context, sessionID, externalOrderID, externalStatus string) (bool, error)
	UpdatePrintifyStatus(ctx context.Context, orderID uuid.UUID, providerStatus string) error

	ListRetryCandidates(ctx context.Context, stalledBefore, now time.Time, maxRetries, limit int) ([]models.Order, error)
	ScheduleRetry(ctx context.Context, orderID uuid.UUID, retryCount int, next time.Time) error
	MarkOrderNotRetryable(ctx context.Context, orderID uuid.UUID) error
	ListStalePendingOrders(ctx context.Context, createdBefore time.Time) ([]models.Order, error)
}

type ArtworkStore interface {
	GetArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error)

	// StartUpscale sets the upscale status to processing unless a run is
	// already completed or started after staleBefore.
	StartUpscale(ctx context.Context, artworkID uuid.UUID, staleBefore time.Time) (bool, error)
	UpdateArtworkUpscaleStatus(ctx context.Context, artworkID uuid.UUID, status models.UpscaleStatus, imageURL, errMsg string) error
}

type ReviewStore interface {
	CreateAdminReview(ctx context.Context, artworkID uuid.NullUUID, reviewType models.ReviewType, imageURL string, customer models.CustomerInfo, sessionID string) (*models.AdminReview, error)
	GetAdminReview(ctx context.Context, reviewID uuid.UUID) (*models.AdminReview, error)
	GetPendingReviewForSession(ctx context.Context, sessionID string, reviewType models.ReviewType) (*models.AdminReview, error)
	GetLatestReviewForSession(ctx context.Context, sessionID string, reviewType models.ReviewType) (*models.AdminReview, error)
	ListAdminReviews(ctx context.Context, status models.ReviewStatus, reviewType models.ReviewType) ([]models.AdminReview, error)

	// ProcessAdminReview decides a pending review. It reports false when the
	// review was no longer pending.
	ProcessAdminReview(ctx context.Context, reviewID uuid.UUID, status models.ReviewStatus, reviewedBy, notes string) (bool, error)
	ReplaceAndApproveReview(ctx context.Context, reviewID uuid.UUID, imageURL, reviewedBy, notes string) (bool, error)

	ListReviewsNeedingEscalation(ctx context.Context, pendingBefore time.Time) ([]models.AdminReview, error)
	MarkReviewEscalated(ctx context.Context, reviewID uuid.UUID) (bool, error)
}

type LedgerStore interface {
	AppendStatusHistory(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, notes string) error
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusHistory, error)
}

// Store is everything the workflow persists.
type Store interface {
	OrderStore
	ArtworkStore
	ReviewStore
	LedgerStore
}

type SessionSource interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
}

// SessionLocker serialises workflow runs for one payment session across
// processes.
type SessionLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]interface{}) error
}
