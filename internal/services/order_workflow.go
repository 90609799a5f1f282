package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"pawpop-backend/internal/metrics"
	"pawpop-backend/internal/models"
)

const (
	entryProcessPaid = "process_paid_order"
	entryResume      = "resume_after_approval"
	entryRetry       = "retry_failed_order"
)

type WorkflowDeps struct {
	Store    Store
	Sessions SessionSource
	Upscale  *UpscaleStep
	Review   *ReviewGate
	Builder  *FulfillmentBuilder
	Ledger   *Ledger
	Locker   SessionLocker
	Notifier Notifier
	Metrics  *metrics.Registry
	Logger   *slog.Logger

	// LockTTL bounds how long one run may hold a session.
	LockTTL time.Duration
	// ClaimTTL is how long a provider submission claim blocks other runs.
	ClaimTTL time.Duration
}

// OrderWorkflow turns paid checkout sessions into digital deliveries or
// print orders. All state lives in the store so a run can stop at the
// review gate and be resumed by another process.
type OrderWorkflow struct {
	store    Store
	sessions SessionSource
	upscale  *UpscaleStep
	review   *ReviewGate
	builder  *FulfillmentBuilder
	ledger   *Ledger
	locker   SessionLocker
	notifier Notifier
	metrics  *metrics.Registry
	logger   *slog.Logger
	lockTTL  time.Duration
	claimTTL time.Duration
}

func NewOrderWorkflow(deps WorkflowDeps) *OrderWorkflow {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ledger := deps.Ledger
	if ledger == nil {
		ledger = NewLedger(deps.Store)
	}
	lockTTL := deps.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	claimTTL := deps.ClaimTTL
	if claimTTL <= 0 {
		claimTTL = 5 * time.Minute
	}

	w := &OrderWorkflow{
		store:    deps.Store,
		sessions: deps.Sessions,
		upscale:  deps.Upscale,
		review:   deps.Review,
		builder:  deps.Builder,
		ledger:   ledger,
		locker:   deps.Locker,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger,
		lockTTL:  lockTTL,
		claimTTL: claimTTL,
	}
	if w.review != nil {
		w.review.resumer = w
	}
	return w
}

func (w *OrderWorkflow) Ledger() *Ledger {
	return w.ledger
}

// ProcessPaidOrder runs the workflow for a confirmed payment. Calling it
// again for the same session repeats no side effects.
func (w *OrderWorkflow) ProcessPaidOrder(ctx context.Context, session *models.CheckoutSession) (err error) {
	started := time.Now()
	defer func() { w.metrics.WorkflowFinished(entryProcessPaid, outcome(err), started) }()

	if session == nil || session.ID == "" {
		return fmt.Errorf("%w: session id is empty", ErrMissingMetadata)
	}

	unlock, err := w.lock(ctx, session.ID)
	if err != nil {
		return err
	}
	defer unlock()

	order, err := w.orderBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	log := w.logger.With("session_id", session.ID, "order_id", order.ID)

	switch order.Status {
	case models.OrderStatusPending, models.OrderStatusPaid:
	case models.OrderStatusCancelled:
		w.record(ctx, order, order.Status, "Payment confirmed for a cancelled order; needs manual refund or reinstatement")
		w.notify(ctx, EventCancelledOrderPaid, map[string]interface{}{
			"order_id":   order.ID.String(),
			"session_id": session.ID,
		})
		return fmt.Errorf("%w: %s", ErrOrderCancelled, order.ID)
	default:
		log.Info("order already past payment, skipping", "status", order.Status)
		w.metrics.IdempotentSkip("payment")
		return nil
	}

	transitioned, err := w.store.UpdateOrderAfterPayment(ctx, session.ID, session.PaymentIntentID, session.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	if transitioned {
		order.Status = models.OrderStatusPaid
		w.record(ctx, order, models.OrderStatusPaid, "Payment confirmed")
	}
	if session.ShippingAddress != nil && order.ShippingAddress == nil {
		order.ShippingAddress = session.ShippingAddress
	}
	if order.Status == models.OrderStatusPending {
		order.Status = models.OrderStatusPaid
	}

	meta, err := models.ParseOrderMetadata(session.Metadata)
	if err != nil {
		stored, ok := order.Metadata()
		if !ok {
			return w.fail(ctx, order, fmt.Errorf("%w: %v", ErrMissingMetadata, err))
		}
		meta = stored
	} else if err := w.store.SaveOrderMetadata(ctx, order.ID, meta); err != nil {
		return fmt.Errorf("failed to save order metadata: %w", err)
	}

	if !meta.ProductType.IsPhysical() {
		return w.completeDigital(ctx, order, meta)
	}
	return w.processPhysical(ctx, order, meta)
}

// ResumeAfterApproval continues a reviewed order from the fulfillment step
// with the image the reviewer approved.
func (w *OrderWorkflow) ResumeAfterApproval(ctx context.Context, sessionID, approvedImageURL string) (err error) {
	started := time.Now()
	defer func() { w.metrics.WorkflowFinished(entryResume, outcome(err), started) }()

	unlock, err := w.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	order, err := w.orderBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	switch order.Status {
	case models.OrderStatusPendingReview, models.OrderStatusPaid, models.OrderStatusFailed:
	case models.OrderStatusCancelled:
		return fmt.Errorf("%w: %s", ErrOrderCancelled, order.ID)
	case models.OrderStatusPending:
		return fmt.Errorf("order %s has not been paid", order.ID)
	default:
		w.metrics.IdempotentSkip("resume")
		return nil
	}

	meta, err := w.metadataFor(ctx, order)
	if err != nil {
		return w.fail(ctx, order, err)
	}
	return w.fulfill(ctx, order, meta, approvedImageURL)
}

// RetryFailedOrder reruns a failed or stalled order from where it stopped.
// An order left in pending_review after its review was approved resumes
// with the approved image.
func (w *OrderWorkflow) RetryFailedOrder(ctx context.Context, orderID uuid.UUID) (err error) {
	started := time.Now()
	defer func() { w.metrics.WorkflowFinished(entryRetry, outcome(err), started) }()

	order, err := w.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	unlock, err := w.lock(ctx, order.StripeSessionID)
	if err != nil {
		return err
	}
	defer unlock()

	// Reload under the lock.
	order, err = w.orderBySession(ctx, order.StripeSessionID)
	if err != nil {
		return err
	}

	var approvedImage string
	switch order.Status {
	case models.OrderStatusFailed, models.OrderStatusPaid:
	case models.OrderStatusPendingReview:
		if approvedImage, err = w.approvedImage(ctx, order); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s is %s", ErrOrderNotRetryable, order.ID, order.Status)
	}
	if order.HasFulfillment() {
		w.metrics.IdempotentSkip("retry")
		return nil
	}

	meta, err := w.metadataFor(ctx, order)
	if err != nil {
		return w.fail(ctx, order, err)
	}

	w.record(ctx, order, order.Status, fmt.Sprintf("Retry attempt %d", order.RetryCount+1))

	if !meta.ProductType.IsPhysical() {
		return w.completeDigital(ctx, order, meta)
	}
	// Orders that already chose their print image skip upscale and review.
	switch {
	case approvedImage != "":
		return w.fulfill(ctx, order, meta, approvedImage)
	case order.FulfillmentImageURL.Valid:
		return w.fulfill(ctx, order, meta, order.FulfillmentImageURL.String)
	}
	return w.processPhysical(ctx, order, meta)
}

// approvedImage returns the image of the approved high-res review an order
// in pending_review never resumed with.
func (w *OrderWorkflow) approvedImage(ctx context.Context, order *models.Order) (string, error) {
	review, err := w.store.GetLatestReviewForSession(ctx, order.StripeSessionID, models.ReviewTypeHighresFile)
	if err != nil {
		return "", fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil || review.Status != models.ReviewApproved {
		return "", fmt.Errorf("%w: %s is awaiting review", ErrOrderNotRetryable, order.ID)
	}
	return review.ImageURL, nil
}

// ApplyProviderStatus moves a processing order forward when the print
// provider reports progress. Backward or unknown moves are ignored.
func (w *OrderWorkflow) ApplyProviderStatus(ctx context.Context, printifyOrderID, providerStatus string) error {
	order, err := w.store.GetOrderByPrintifyID(ctx, printifyOrderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: printify order %s", ErrOrderNotFound, printifyOrderID)
	}

	if err := w.store.UpdatePrintifyStatus(ctx, order.ID, providerStatus); err != nil {
		return fmt.Errorf("failed to update printify status: %w", err)
	}

	target := models.ProviderStatusToOrderStatus(providerStatus)
	if target == order.Status {
		return nil
	}
	if !order.Status.CanTransition(target) {
		w.logger.Info("ignoring provider status", "order_id", order.ID, "status", order.Status, "provider_status", providerStatus)
		return nil
	}

	moved, err := w.transition(ctx, order, target, fmt.Sprintf("Printify status: %s", providerStatus))
	if err != nil || !moved {
		return err
	}

	switch target {
	case models.OrderStatusShipped:
		w.notify(ctx, EventOrderShipped, customerPayload(order))
	case models.OrderStatusDelivered:
		w.notify(ctx, EventOrderDelivered, customerPayload(order))
	}
	return nil
}

// CancelStalePending cancels orders that never got paid. With dryRun it
// only reports what it would cancel.
func (w *OrderWorkflow) CancelStalePending(ctx context.Context, createdBefore time.Time, dryRun bool) ([]uuid.UUID, error) {
	orders, err := w.store.ListStalePendingOrders(ctx, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale orders: %w", err)
	}

	var cancelled []uuid.UUID
	for i := range orders {
		order := &orders[i]
		if dryRun {
			cancelled = append(cancelled, order.ID)
			continue
		}
		moved, err := w.transition(ctx, order, models.OrderStatusCancelled, fmt.Sprintf("Abandoned checkout, pending since %s", order.CreatedAt.Format(time.RFC3339)))
		if err != nil {
			w.logger.Error("failed to cancel stale order", "order_id", order.ID, "error", err)
			continue
		}
		if moved {
			cancelled = append(cancelled, order.ID)
		}
	}

	if !dryRun {
		w.metrics.StaleOrdersCancelled(len(cancelled))
	}
	return cancelled, nil
}

func (w *OrderWorkflow) completeDigital(ctx context.Context, order *models.Order, meta *models.OrderMetadata) error {
	if artworkID := artworkFor(order, meta); artworkID != uuid.Nil && w.upscale != nil {
		if err := w.upscale.MarkNotRequired(ctx, artworkID); err != nil {
			w.logger.Warn("failed to mark upscale not required", "order_id", order.ID, "artwork_id", artworkID, "error", err)
		}
	}

	moved, err := w.transition(ctx, order, models.OrderStatusProcessing, "Digital order complete, download delivered")
	if err != nil {
		return err
	}
	if moved {
		w.notify(ctx, EventDigitalOrderReady, customerPayload(order))
	}
	return nil
}

func (w *OrderWorkflow) processPhysical(ctx context.Context, order *models.Order, meta *models.OrderMetadata) error {
	log := w.logger.With("session_id", order.StripeSessionID, "order_id", order.ID)
	imageURL := meta.ImageURL
	artworkID := artworkFor(order, meta)

	if artworkID == uuid.Nil {
		w.record(ctx, order, order.Status, "No artwork linked, using original image")
	} else {
		upscaled, err := w.upscale.Upscale(ctx, artworkID)
		switch {
		case errors.Is(err, ErrUpscaleInProgress):
			log.Info("upscale running in another worker, leaving order to it", "artwork_id", artworkID)
			w.metrics.IdempotentSkip("upscale")
			return nil
		case err != nil:
			log.Warn("upscale failed, falling back to original image", "artwork_id", artworkID, "error", err)
			w.metrics.UpscaleFallback()
			w.record(ctx, order, order.Status, fmt.Sprintf("Upscaling failed, using original image: %v", err))
		default:
			imageURL = upscaled
			w.record(ctx, order, order.Status, "Artwork upscaled: "+upscaled)
		}
	}

	if w.review != nil && w.review.Enabled() {
		review, err := w.review.Open(ctx, order, artworkID, imageURL)
		if err != nil {
			w.record(ctx, order, order.Status, fmt.Sprintf("Could not open admin review: %v", err))
			return err
		}
		_, err = w.transition(ctx, order, models.OrderStatusPendingReview, fmt.Sprintf("Awaiting admin review %s", review.ID))
		return err
	}

	return w.fulfill(ctx, order, meta, imageURL)
}

// fulfill submits the order to the print provider at most once.
func (w *OrderWorkflow) fulfill(ctx context.Context, order *models.Order, meta *models.OrderMetadata, imageURL string) error {
	log := w.logger.With("session_id", order.StripeSessionID, "order_id", order.ID)

	if order.HasFulfillment() {
		w.metrics.IdempotentSkip("fulfillment")
		return nil
	}
	if !order.Status.CanTransition(models.OrderStatusProcessing) {
		return fmt.Errorf("order %s cannot move from %s to processing", order.ID, order.Status)
	}

	if err := w.store.SetFulfillmentImage(ctx, order.ID, imageURL); err != nil {
		return fmt.Errorf("failed to save fulfillment image: %w", err)
	}

	claimed, err := w.store.ClaimFulfillment(ctx, order.ID, time.Now().Add(-w.claimTTL))
	if err != nil {
		return fmt.Errorf("failed to claim fulfillment: %w", err)
	}
	if !claimed {
		log.Info("fulfillment already in flight, skipping")
		w.metrics.IdempotentSkip("fulfillment")
		return nil
	}

	productType := meta.ProductType.WithFrameUpgrade(meta.FrameUpgrade)
	result, err := w.builder.BuildAndSubmit(ctx, FulfillmentRequest{
		ExternalID:       order.StripeSessionID,
		ProductType:      productType,
		Size:             meta.Size,
		ImageURL:         imageURL,
		ShippingAddress:  order.ShippingAddress,
		CustomerName:     firstNonEmpty(meta.CustomerName, order.CustomerName),
		PetName:          meta.PetName,
		Quantity:         meta.Quantity,
		ShippingMethodID: meta.ShippingMethodID,
	})
	if err != nil {
		if rerr := w.store.ReleaseFulfillmentClaim(ctx, order.ID); rerr != nil {
			log.Error("failed to release fulfillment claim", "error", rerr)
		}
		w.metrics.FulfillmentSubmitted(string(productType), "error")
		return w.fail(ctx, order, fmt.Errorf("failed to create fulfillment order: %w", err))
	}
	w.metrics.FulfillmentSubmitted(string(productType), "ok")

	stored, err := w.store.UpdateOrderWithFulfillment(ctx, order.StripeSessionID, result.ExternalOrderID, result.Status)
	if err != nil {
		log.Error("provider order created but not stored", "printify_order_id", result.ExternalOrderID, "error", err)
		return fmt.Errorf("failed to store fulfillment order %s: %w", result.ExternalOrderID, err)
	}
	if !stored {
		log.Warn("order already had a provider order", "printify_order_id", result.ExternalOrderID)
		return nil
	}

	order.PrintifyOrderID.String, order.PrintifyOrderID.Valid = result.ExternalOrderID, true
	order.Status = models.OrderStatusProcessing
	w.record(ctx, order, models.OrderStatusProcessing, "Printify order created: "+result.ExternalOrderID)
	log.Info("fulfillment order created", "printify_order_id", result.ExternalOrderID, "product_type", productType)
	return nil
}

// fail marks the order failed, records why, and returns cause.
func (w *OrderWorkflow) fail(ctx context.Context, order *models.Order, cause error) error {
	w.logger.Error("order workflow failed", "session_id", order.StripeSessionID, "order_id", order.ID, "error", cause)

	if order.Status.CanTransition(models.OrderStatusFailed) {
		if _, err := w.store.TransitionOrderStatus(ctx, order.ID, []models.OrderStatus{order.Status}, models.OrderStatusFailed); err != nil {
			w.logger.Error("failed to mark order failed", "order_id", order.ID, "error", err)
		} else {
			order.Status = models.OrderStatusFailed
		}
	}
	w.record(ctx, order, models.OrderStatusFailed, cause.Error())

	if IsValidationError(cause) {
		if err := w.store.MarkOrderNotRetryable(ctx, order.ID); err != nil {
			w.logger.Error("failed to mark order not retryable", "order_id", order.ID, "error", err)
		}
	}

	payload := customerPayload(order)
	payload["error"] = cause.Error()
	w.notify(ctx, EventFulfillmentFailed, payload)
	return cause
}

// transition applies a forward status change with a conditional update and
// records it. It reports false when another run changed the order first.
func (w *OrderWorkflow) transition(ctx context.Context, order *models.Order, to models.OrderStatus, note string) (bool, error) {
	if order.Status == to {
		return false, nil
	}
	if !order.Status.CanTransition(to) {
		return false, fmt.Errorf("order %s cannot move from %s to %s", order.ID, order.Status, to)
	}
	moved, err := w.store.TransitionOrderStatus(ctx, order.ID, []models.OrderStatus{order.Status}, to)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	if !moved {
		w.metrics.IdempotentSkip(string(to))
		return false, nil
	}
	order.Status = to
	w.record(ctx, order, to, note)
	return true, nil
}

// record appends to the ledger. A ledger write failure is logged and does
// not undo the transition it describes.
func (w *OrderWorkflow) record(ctx context.Context, order *models.Order, status models.OrderStatus, note string) {
	if err := w.ledger.Append(ctx, order.ID, status, note); err != nil {
		w.logger.Error("failed to append status history", "order_id", order.ID, "status", status, "error", err)
	}
}

func (w *OrderWorkflow) metadataFor(ctx context.Context, order *models.Order) (*models.OrderMetadata, error) {
	if meta, ok := order.Metadata(); ok {
		return meta, nil
	}
	if w.sessions == nil {
		return nil, fmt.Errorf("%w: order %s has no stored metadata", ErrMissingMetadata, order.ID)
	}
	session, err := w.sessions.GetCheckoutSession(ctx, order.StripeSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	meta, err := models.ParseOrderMetadata(session.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingMetadata, err)
	}
	if order.ShippingAddress == nil && session.ShippingAddress != nil {
		order.ShippingAddress = session.ShippingAddress
	}
	if err := w.store.SaveOrderMetadata(ctx, order.ID, meta); err != nil {
		w.logger.Warn("failed to save recovered metadata", "order_id", order.ID, "error", err)
	}
	return meta, nil
}

func (w *OrderWorkflow) orderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	order, err := w.store.GetOrderBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		w.logger.Error("no order for checkout session", "session_id", sessionID)
		return nil, fmt.Errorf("%w: session %s", ErrOrderNotFound, sessionID)
	}
	return order, nil
}

func (w *OrderWorkflow) lock(ctx context.Context, sessionID string) (func(), error) {
	if w.locker == nil {
		return func() {}, nil
	}
	key := "order:" + sessionID
	token, ok, err := w.locker.Acquire(ctx, key, w.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowBusy, sessionID)
	}
	return func() {
		// Release even if the run's context was cancelled.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := w.locker.Release(releaseCtx, key, token); err != nil {
			w.logger.Warn("failed to release session lock", "session_id", sessionID, "error", err)
		}
	}, nil
}

func (w *OrderWorkflow) notify(ctx context.Context, event string, payload map[string]interface{}) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, event, payload); err != nil {
		w.logger.Warn("notification failed", "event", event, "error", err)
	}
}

func artworkFor(order *models.Order, meta *models.OrderMetadata) uuid.UUID {
	if meta != nil && meta.ArtworkID != uuid.Nil {
		return meta.ArtworkID
	}
	if order.ArtworkID.Valid {
		return order.ArtworkID.UUID
	}
	return uuid.Nil
}

func customerPayload(order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"order_id":       order.ID.String(),
		"order_number":   order.OrderNumber(),
		"session_id":     order.StripeSessionID,
		"customer_name":  order.CustomerName,
		"customer_email": order.CustomerEmail,
		"product_type":   string(order.ProductType),
		"status":         string(order.Status),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
