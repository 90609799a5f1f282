package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"pawpop-backend/internal/metrics"
	"pawpop-backend/internal/models"
)

type resumer interface {
	ResumeAfterApproval(ctx context.Context, sessionID, approvedImageURL string) error
}

// ReviewGate holds physical orders until a human approves the print file.
// Whether it is enabled is decided on every call.
type ReviewGate struct {
	reviews  ReviewStore
	orders   OrderStore
	ledger   *Ledger
	notifier Notifier
	enabled  func() bool
	resumer  resumer
	metrics  *metrics.Registry
	logger   *slog.Logger
}

func NewReviewGate(reviews ReviewStore, orders OrderStore, ledger *Ledger, notifier Notifier, enabled func() bool, m *metrics.Registry, logger *slog.Logger) *ReviewGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewGate{
		reviews:  reviews,
		orders:   orders,
		ledger:   ledger,
		notifier: notifier,
		enabled:  enabled,
		metrics:  m,
		logger:   logger,
	}
}

func (g *ReviewGate) Enabled() bool {
	return g.enabled != nil && g.enabled()
}

// Open creates the high-res file review for an order, or returns the one
// already waiting.
func (g *ReviewGate) Open(ctx context.Context, order *models.Order, artworkID uuid.UUID, imageURL string) (*models.AdminReview, error) {
	existing, err := g.reviews.GetPendingReviewForSession(ctx, order.StripeSessionID, models.ReviewTypeHighresFile)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	artwork := uuid.NullUUID{UUID: artworkID, Valid: artworkID != uuid.Nil}
	review, err := g.reviews.CreateAdminReview(ctx, artwork, models.ReviewTypeHighresFile, imageURL, models.CustomerInfo{
		Name:    order.CustomerName,
		Email:   order.CustomerEmail,
		PetName: order.PetName.String,
	}, order.StripeSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin review: %w", err)
	}

	g.notify(ctx, EventAdminReviewCreated, map[string]interface{}{
		"review_id":      review.ID.String(),
		"review_type":    string(review.ReviewType),
		"image_url":      review.ImageURL,
		"customer_name":  review.CustomerName,
		"customer_email": review.CustomerEmail,
		"pet_name":       review.PetName.String,
		"session_id":     order.StripeSessionID,
	})
	return review, nil
}

func (g *ReviewGate) Get(ctx context.Context, reviewID uuid.UUID) (*models.AdminReview, error) {
	review, err := g.reviews.GetAdminReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("%w: %s", ErrReviewNotFound, reviewID)
	}
	return review, nil
}

func (g *ReviewGate) ListPending(ctx context.Context, reviewType models.ReviewType) ([]models.AdminReview, error) {
	reviews, err := g.reviews.ListAdminReviews(ctx, models.ReviewPending, reviewType)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin reviews: %w", err)
	}
	return reviews, nil
}

// Approve approves a pending review and resumes its order. Approving an
// already approved review resumes the order again, which is a no-op once
// the order has moved on.
func (g *ReviewGate) Approve(ctx context.Context, reviewID uuid.UUID, reviewerID, notes string) error {
	review, err := g.Get(ctx, reviewID)
	if err != nil {
		return err
	}

	switch review.Status {
	case models.ReviewApproved:
		return g.resume(ctx, review, review.ImageURL)
	case models.ReviewRejected:
		return fmt.Errorf("%w: review %s was rejected", ErrReviewAlreadyDecided, reviewID)
	}

	won, err := g.reviews.ProcessAdminReview(ctx, reviewID, models.ReviewApproved, reviewerID, notes)
	if err != nil {
		return fmt.Errorf("failed to approve review: %w", err)
	}
	if !won {
		return g.lostDecision(ctx, reviewID, models.ReviewApproved)
	}

	g.metrics.ReviewDecided(string(models.ReviewApproved))
	g.logger.Info("admin review approved", "review_id", reviewID, "reviewer", reviewerID)
	return g.resume(ctx, review, review.ImageURL)
}

// Reject closes the review. The order stays in pending_review until someone
// supplies a new image.
func (g *ReviewGate) Reject(ctx context.Context, reviewID uuid.UUID, reviewerID, notes string) error {
	review, err := g.Get(ctx, reviewID)
	if err != nil {
		return err
	}

	switch review.Status {
	case models.ReviewRejected:
		return nil
	case models.ReviewApproved:
		return fmt.Errorf("%w: review %s was approved", ErrReviewAlreadyDecided, reviewID)
	}

	won, err := g.reviews.ProcessAdminReview(ctx, reviewID, models.ReviewRejected, reviewerID, notes)
	if err != nil {
		return fmt.Errorf("failed to reject review: %w", err)
	}
	if !won {
		return g.lostDecision(ctx, reviewID, models.ReviewRejected)
	}

	g.metrics.ReviewDecided(string(models.ReviewRejected))
	g.logger.Info("admin review rejected", "review_id", reviewID, "reviewer", reviewerID)

	if review.OrderSessionID.Valid {
		g.noteOrder(ctx, review.OrderSessionID.String, fmt.Sprintf("Admin review %s rejected by %s: %s", reviewID, reviewerID, notes))
	}

	g.notify(ctx, EventAdminReviewRejected, map[string]interface{}{
		"review_id":      reviewID.String(),
		"session_id":     review.OrderSessionID.String,
		"customer_name":  review.CustomerName,
		"customer_email": review.CustomerEmail,
		"notes":          notes,
	})
	return nil
}

// ManualReplace swaps the image under review, approves it, and resumes the
// order with the new image.
func (g *ReviewGate) ManualReplace(ctx context.Context, reviewID uuid.UUID, newImageURL, reviewerID, notes string) error {
	if err := validateImageURL(newImageURL); err != nil {
		return err
	}

	review, err := g.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.Status != models.ReviewPending {
		return fmt.Errorf("%w: review %s is %s", ErrReviewAlreadyDecided, reviewID, review.Status)
	}

	won, err := g.reviews.ReplaceAndApproveReview(ctx, reviewID, newImageURL, reviewerID, notes)
	if err != nil {
		return fmt.Errorf("failed to replace review image: %w", err)
	}
	if !won {
		return g.lostDecision(ctx, reviewID, models.ReviewApproved)
	}

	g.metrics.ReviewDecided("manually_replaced")
	g.logger.Info("admin review image replaced", "review_id", reviewID, "reviewer", reviewerID)

	g.notify(ctx, EventImageReplaced, map[string]interface{}{
		"review_id":      reviewID.String(),
		"image_url":      newImageURL,
		"customer_name":  review.CustomerName,
		"customer_email": review.CustomerEmail,
		"pet_name":       review.PetName.String,
	})
	return g.resume(ctx, review, newImageURL)
}

// Resubmit opens a fresh review with a new image for an order whose review
// was rejected.
func (g *ReviewGate) Resubmit(ctx context.Context, rejectedReviewID uuid.UUID, newImageURL string) (*models.AdminReview, error) {
	if err := validateImageURL(newImageURL); err != nil {
		return nil, err
	}

	rejected, err := g.Get(ctx, rejectedReviewID)
	if err != nil {
		return nil, err
	}
	if rejected.Status != models.ReviewRejected {
		return nil, fmt.Errorf("%w: review %s is %s, not rejected", ErrReviewAlreadyDecided, rejectedReviewID, rejected.Status)
	}

	review, err := g.reviews.CreateAdminReview(ctx, rejected.ArtworkID, rejected.ReviewType, newImageURL, models.CustomerInfo{
		Name:    rejected.CustomerName,
		Email:   rejected.CustomerEmail,
		PetName: rejected.PetName.String,
	}, rejected.OrderSessionID.String)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin review: %w", err)
	}

	if rejected.OrderSessionID.Valid {
		g.noteOrder(ctx, rejected.OrderSessionID.String, fmt.Sprintf("Replacement image submitted for review %s", review.ID))
	}
	g.notify(ctx, EventAdminReviewCreated, map[string]interface{}{
		"review_id":      review.ID.String(),
		"review_type":    string(review.ReviewType),
		"image_url":      review.ImageURL,
		"customer_name":  review.CustomerName,
		"customer_email": review.CustomerEmail,
		"replaces":       rejectedReviewID.String(),
	})
	return review, nil
}

// EscalateStalled notifies support once about reviews pending since before
// pendingBefore and rejections nobody has followed up on. Orders are not
// touched.
func (g *ReviewGate) EscalateStalled(ctx context.Context, pendingBefore time.Time) (int, error) {
	reviews, err := g.reviews.ListReviewsNeedingEscalation(ctx, pendingBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to list reviews for escalation: %w", err)
	}

	escalated := 0
	for _, review := range reviews {
		ok, err := g.reviews.MarkReviewEscalated(ctx, review.ID)
		if err != nil {
			g.logger.Error("failed to mark review escalated", "review_id", review.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		escalated++

		if review.OrderSessionID.Valid {
			g.noteOrder(ctx, review.OrderSessionID.String, fmt.Sprintf("Review %s (%s) escalated to support", review.ID, review.Status))
		}
		g.notify(ctx, EventAdminReviewEscalated, map[string]interface{}{
			"review_id":      review.ID.String(),
			"review_status":  string(review.Status),
			"session_id":     review.OrderSessionID.String,
			"customer_name":  review.CustomerName,
			"customer_email": review.CustomerEmail,
			"created_at":     review.CreatedAt,
		})
	}
	return escalated, nil
}

func (g *ReviewGate) resume(ctx context.Context, review *models.AdminReview, imageURL string) error {
	if review.ReviewType != models.ReviewTypeHighresFile || !review.OrderSessionID.Valid {
		return nil
	}
	if g.resumer == nil {
		return fmt.Errorf("review gate has no workflow to resume")
	}
	return g.resumer.ResumeAfterApproval(ctx, review.OrderSessionID.String, imageURL)
}

// lostDecision handles a conditional update that matched no pending row:
// another caller decided the review first.
func (g *ReviewGate) lostDecision(ctx context.Context, reviewID uuid.UUID, wanted models.ReviewStatus) error {
	current, err := g.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if current.Status == wanted {
		return nil
	}
	return fmt.Errorf("%w: review %s is %s", ErrReviewAlreadyDecided, reviewID, current.Status)
}

func (g *ReviewGate) noteOrder(ctx context.Context, sessionID, note string) {
	order, err := g.orders.GetOrderBySessionID(ctx, sessionID)
	if err != nil || order == nil {
		g.logger.Warn("no order for review note", "session_id", sessionID, "error", err)
		return
	}
	if err := g.ledger.Append(ctx, order.ID, order.Status, note); err != nil {
		g.logger.Error("failed to append review note", "order_id", order.ID, "error", err)
	}
}

func (g *ReviewGate) notify(ctx context.Context, event string, payload map[string]interface{}) {
	if g.notifier == nil {
		return
	}
	if err := g.notifier.Notify(ctx, event, payload); err != nil {
		g.logger.Warn("notification failed", "event", event, "error", err)
	}
}
