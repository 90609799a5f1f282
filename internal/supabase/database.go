package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"pawpop-backend/internal/models"
)

const orderColumns = `id, stripe_session_id, stripe_payment_intent_id, artwork_id, printify_order_id, printify_status,
	order_status, product_type, product_size, price_cents, quantity, customer_email, customer_name, pet_name,
	frame_upgrade, shipping_method_id, shipping_address, source_image_url, fulfillment_image_url,
	retry_count, next_retry_at, created_at, updated_at`

const artworkColumns = `id, customer_name, customer_email, pet_name, generation_step, processing_status,
	generated_images, upscale_status, upscaled_image_url, upscale_error, created_at, updated_at`

const reviewColumns = `id, artwork_id, order_session_id, review_type, status, image_url, customer_name,
	customer_email, pet_name, reviewed_by, review_notes, reviewed_at, manually_replaced, escalated_at, created_at`

// uniqueViolation is the Postgres error code for a unique index conflict.
const uniqueViolation = "23505"

// DatabaseClient is the order record store on the Supabase Postgres
// database. Lookups return (nil, nil) when no row matches.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an existing connection pool.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var address []byte
	err := row.Scan(
		&order.ID, &order.StripeSessionID, &order.StripePaymentIntentID, &order.ArtworkID,
		&order.PrintifyOrderID, &order.PrintifyStatus, &order.Status, &order.ProductType,
		&order.ProductSize, &order.PriceCents, &order.Quantity, &order.CustomerEmail,
		&order.CustomerName, &order.PetName, &order.FrameUpgrade, &order.ShippingMethodID,
		&address, &order.SourceImageURL, &order.FulfillmentImageURL,
		&order.RetryCount, &order.NextRetryAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 && string(address) != "null" {
		order.ShippingAddress = &models.ShippingAddress{}
		if err := json.Unmarshal(address, order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to decode shipping address: %w", err)
		}
	}
	return &order, nil
}

func (d *DatabaseClient) queryOrder(ctx context.Context, where string, args ...interface{}) (*models.Order, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, args...)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (d *DatabaseClient) queryOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (d *DatabaseClient) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return d.queryOrder(ctx, `stripe_session_id = $1`, sessionID)
}

func (d *DatabaseClient) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return d.queryOrder(ctx, `id = $1`, orderID)
}

func (d *DatabaseClient) GetOrderByPrintifyID(ctx context.Context, printifyOrderID string) (*models.Order, error) {
	return d.queryOrder(ctx, `printify_order_id = $1`, printifyOrderID)
}

func (d *DatabaseClient) TransitionOrderStatus(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, status models.OrderStatus) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET order_status = $1
		WHERE id = $2 AND order_status = ANY($3)
	`, status, orderID, pq.Array(statusStrings(from)))
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return affected(res)
}

func (d *DatabaseClient) UpdateOrderAfterPayment(ctx context.Context, sessionID, paymentRef string, address *models.ShippingAddress) (bool, error) {
	addressJSON, err := jsonArg(address)
	if err != nil {
		return false, err
	}

	var previous models.OrderStatus
	err = d.db.QueryRowContext(ctx, `
		WITH prev AS (
			SELECT id, order_status FROM orders WHERE stripe_session_id = $1 FOR UPDATE
		)
		UPDATE orders o
		SET stripe_payment_intent_id = COALESCE(NULLIF($2, ''), o.stripe_payment_intent_id),
			shipping_address = COALESCE($3::jsonb, o.shipping_address),
			order_status = CASE WHEN prev.order_status = 'pending' THEN 'paid' ELSE prev.order_status END
		FROM prev
		WHERE o.id = prev.id
		RETURNING prev.order_status
	`, sessionID, paymentRef, addressJSON).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("no order for session %s", sessionID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update order after payment: %w", err)
	}
	return previous == models.OrderStatusPending, nil
}

func (d *DatabaseClient) SaveOrderMetadata(ctx context.Context, orderID uuid.UUID, meta *models.OrderMetadata) error {
	var methodID sql.NullInt64
	if meta.ShippingMethodID > 0 {
		methodID = sql.NullInt64{Int64: int64(meta.ShippingMethodID), Valid: true}
	}
	artworkID := uuid.NullUUID{UUID: meta.ArtworkID, Valid: meta.ArtworkID != uuid.Nil}

	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET product_type = $2,
			product_size = $3,
			frame_upgrade = $4,
			quantity = $5,
			source_image_url = COALESCE(NULLIF($6, ''), source_image_url),
			pet_name = COALESCE(NULLIF($7, ''), pet_name),
			shipping_method_id = COALESCE($8, shipping_method_id),
			artwork_id = COALESCE($9, artwork_id)
		WHERE id = $1
	`, orderID, meta.ProductType, meta.Size, meta.FrameUpgrade, meta.Quantity,
		meta.ImageURL, meta.PetName, methodID, artworkID)
	if err != nil {
		return fmt.Errorf("failed to save order metadata: %w", err)
	}
	return nil
}

func (d *DatabaseClient) SetFulfillmentImage(ctx context.Context, orderID uuid.UUID, imageURL string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_image_url = $2
		WHERE id = $1 AND printify_order_id IS NULL
	`, orderID, imageURL)
	if err != nil {
		return fmt.Errorf("failed to set fulfillment image: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ClaimFulfillment(ctx context.Context, orderID uuid.UUID, staleBefore time.Time) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_claimed_at = NOW()
		WHERE id = $1
			AND printify_order_id IS NULL
			AND (fulfillment_claimed_at IS NULL OR fulfillment_claimed_at < $2)
	`, orderID, staleBefore)
	if err != nil {
		return false, fmt.Errorf("failed to claim fulfillment: %w", err)
	}
	return affected(res)
}

func (d *DatabaseClient) ReleaseFulfillmentClaim(ctx context.Context, orderID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_claimed_at = NULL
		WHERE id = $1 AND printify_order_id IS NULL
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to release fulfillment claim: %w", err)
	}
	return nil
}

func (d *DatabaseClient) UpdateOrderWithFulfillment(ctx context.Context, sessionID, externalOrderID, externalStatus string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET printify_order_id = $2,
			printify_status = $3,
			order_status = 'processing',
			fulfillment_claimed_at = NULL
		WHERE stripe_session_id = $1 AND printify_order_id IS NULL
	`, sessionID, externalOrderID, externalStatus)
	if err != nil {
		return false, fmt.Errorf("failed to store fulfillment order: %w", err)
	}
	return affected(res)
}

func (d *DatabaseClient) UpdatePrintifyStatus(ctx context.Context, orderID uuid.UUID, providerStatus string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET printify_status = $2
		WHERE id = $1
	`, orderID, providerStatus)
	if err != nil {
		return fmt.Errorf("failed to update printify status: %w", err)
	}
	return nil
}

// ListRetryCandidates returns retryable physical orders without a provider
// order that are due. That covers failed orders, orders that sat in paid
// since before stalledBefore, and orders still in pending_review since then
// although their high-res review was approved.
func (d *DatabaseClient) ListRetryCandidates(ctx context.Context, stalledBefore, now time.Time, maxRetries, limit int) ([]models.Order, error) {
	physical := []string{
		string(models.ProductArtPrint),
		string(models.ProductCanvasStretched),
		string(models.ProductCanvasFramed),
	}
	return d.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.printify_order_id IS NULL
			AND o.retryable
			AND o.product_type = ANY($1)
			AND o.retry_count < $2
			AND (o.next_retry_at IS NULL OR o.next_retry_at <= $3)
			AND (
				o.order_status = 'failed'
				OR (o.order_status = 'paid' AND o.updated_at < $4)
				OR (
					o.order_status = 'pending_review'
					AND o.updated_at < $4
					AND EXISTS (
						SELECT 1 FROM admin_reviews r
						WHERE r.order_session_id = o.stripe_session_id
							AND r.review_type = 'highres_file'
							AND r.status = 'approved'
					)
					AND NOT EXISTS (
						SELECT 1 FROM admin_reviews p
						WHERE p.order_session_id = o.stripe_session_id AND p.status = 'pending'
					)
				)
			)
		ORDER BY o.updated_at ASC
		LIMIT $5
	`, pq.Array(physical), maxRetries, now, stalledBefore, limit)
}

// MarkOrderNotRetryable takes the order out of the retry sweep.
func (d *DatabaseClient) MarkOrderNotRetryable(ctx context.Context, orderID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET retryable = FALSE, next_retry_at = NULL
		WHERE id = $1
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark order not retryable: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ScheduleRetry(ctx context.Context, orderID uuid.UUID, retryCount int, next time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET retry_count = $2, next_retry_at = $3
		WHERE id = $1
	`, orderID, retryCount, next)
	if err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListStalePendingOrders(ctx context.Context, createdBefore time.Time) ([]models.Order, error) {
	return d.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE order_status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
	`, createdBefore)
}

func (d *DatabaseClient) GetArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	var processing, images []byte
	err := d.db.QueryRowContext(ctx, `SELECT `+artworkColumns+` FROM artworks WHERE id = $1`, artworkID).Scan(
		&artwork.ID, &artwork.CustomerName, &artwork.CustomerEmail, &artwork.PetName,
		&artwork.GenerationStep, &processing, &images, &artwork.UpscaleStatus,
		&artwork.UpscaledImageURL, &artwork.UpscaleError, &artwork.CreatedAt, &artwork.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork: %w", err)
	}

	if len(processing) > 0 {
		if err := json.Unmarshal(processing, &artwork.ProcessingStatus); err != nil {
			return nil, fmt.Errorf("failed to decode processing status: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &artwork.GeneratedImages); err != nil {
			return nil, fmt.Errorf("failed to decode generated images: %w", err)
		}
	}
	return &artwork, nil
}

func (d *DatabaseClient) StartUpscale(ctx context.Context, artworkID uuid.UUID, staleBefore time.Time) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE artworks
		SET upscale_status = 'processing', upscale_started_at = NOW(), upscale_error = NULL
		WHERE id = $1
			AND upscale_status <> 'completed'
			AND (upscale_status <> 'processing' OR upscale_started_at IS NULL OR upscale_started_at < $2)
	`, artworkID, staleBefore)
	if err != nil {
		return false, fmt.Errorf("failed to start upscale: %w", err)
	}
	return affected(res)
}

func (d *DatabaseClient) UpdateArtworkUpscaleStatus(ctx context.Context, artworkID uuid.UUID, status models.UpscaleStatus, imageURL, errMsg string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE artworks
		SET upscale_status = $2,
			upscaled_image_url = COALESCE(NULLIF($3, ''), upscaled_image_url),
			upscale_error = NULLIF($4, '')
		WHERE id = $1
	`, artworkID, status, imageURL, errMsg)
	if err != nil {
		return fmt.Errorf("failed to update upscale status: %w", err)
	}
	return nil
}

func scanReview(row rowScanner) (*models.AdminReview, error) {
	var review models.AdminReview
	err := row.Scan(
		&review.ID, &review.ArtworkID, &review.OrderSessionID, &review.ReviewType, &review.Status,
		&review.ImageURL, &review.CustomerName, &review.CustomerEmail, &review.PetName,
		&review.ReviewedBy, &review.ReviewNotes, &review.ReviewedAt, &review.ManuallyReplaced,
		&review.EscalatedAt, &review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (d *DatabaseClient) queryReviews(ctx context.Context, query string, args ...interface{}) ([]models.AdminReview, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.AdminReview
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin review: %w", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list admin reviews: %w", err)
	}
	return reviews, nil
}

// CreateAdminReview inserts a pending review. If another caller already
// opened a pending review of the same type for the session, that one is
// returned instead.
func (d *DatabaseClient) CreateAdminReview(ctx context.Context, artworkID uuid.NullUUID, reviewType models.ReviewType, imageURL string, customer models.CustomerInfo, sessionID string) (*models.AdminReview, error) {
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO admin_reviews (artwork_id, order_session_id, review_type, image_url, customer_name, customer_email, pet_name)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING `+reviewColumns,
		artworkID, sessionID, reviewType, imageURL, customer.Name, customer.Email, customer.PetName)
	review, err := scanReview(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && sessionID != "" {
			return d.GetPendingReviewForSession(ctx, sessionID, reviewType)
		}
		return nil, fmt.Errorf("failed to create admin review: %w", err)
	}
	return review, nil
}

func (d *DatabaseClient) GetAdminReview(ctx context.Context, reviewID uuid.UUID) (*models.AdminReview, error) {
	review, err := scanReview(d.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM admin_reviews WHERE id = $1`, reviewID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin review: %w", err)
	}
	return review, nil
}

func (d *DatabaseClient) GetPendingReviewForSession(ctx context.Context, sessionID string, reviewType models.ReviewType) (*models.AdminReview, error) {
	review, err := scanReview(d.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM admin_reviews
		WHERE order_session_id = $1 AND review_type = $2 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionID, reviewType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending review: %w", err)
	}
	return review, nil
}

// GetLatestReviewForSession returns the newest review of reviewType for the
// session, whatever its status.
func (d *DatabaseClient) GetLatestReviewForSession(ctx context.Context, sessionID string, reviewType models.ReviewType) (*models.AdminReview, error) {
	review, err := scanReview(d.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM admin_reviews
		WHERE order_session_id = $1 AND review_type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionID, reviewType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest review: %w", err)
	}
	return review, nil
}

func (d *DatabaseClient) ListAdminReviews(ctx context.Context, status models.ReviewStatus, reviewType models.ReviewType) ([]models.AdminReview, error) {
	return d.queryReviews(ctx, `
		SELECT `+reviewColumns+`
		FROM admin_reviews
		WHERE status = $1 AND ($2::text = '' OR review_type = $2::text)
		ORDER BY created_at ASC
	`, status, string(reviewType))
}

func (d *DatabaseClient) ProcessAdminReview(ctx context.Context, reviewID uuid.UUID, status models.ReviewStatus, reviewedBy, notes string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE admin_reviews
		SET status = $2, reviewed_by = $3, review_notes = NULLIF($4, ''), reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, reviewID, status, reviewedBy, notes)
	if err != nil {
		return false, fmt.Errorf("failed to process admin review: %w", err)
	}
	return affected(res)
}

func (d *DatabaseClient) ReplaceAndApproveReview(ctx context.Context, reviewID uuid.UUID, imageURL, reviewedBy, notes string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE admin_reviews
		SET status = 'approved',
			image_url = $2,
			manually_replaced = TRUE,
			reviewed_by = $3,
			review_notes = NULLIF($4, ''),
			reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, reviewID, imageURL, reviewedBy, notes)
	if err != nil {
		return false, fmt.Errorf("failed to replace review image: %w", err)
	}
	return affected(res)
}

// ListReviewsNeedingEscalation returns reviews pending since before
// pendingBefore, and rejected reviews decided before then whose order is
// still waiting with no replacement review open.
func (d *DatabaseClient) ListReviewsNeedingEscalation(ctx context.Context, pendingBefore time.Time) ([]models.AdminReview, error) {
	return d.queryReviews(ctx, `
		SELECT `+reviewColumns+`
		FROM admin_reviews r
		WHERE r.escalated_at IS NULL
			AND (
				(r.status = 'pending' AND r.created_at < $1)
				OR (
					r.status = 'rejected'
					AND r.reviewed_at < $1
					AND EXISTS (
						SELECT 1 FROM orders o
						WHERE o.stripe_session_id = r.order_session_id AND o.order_status = 'pending_review'
					)
					AND NOT EXISTS (
						SELECT 1 FROM admin_reviews p
						WHERE p.order_session_id = r.order_session_id AND p.status = 'pending'
					)
				)
			)
		ORDER BY r.created_at ASC
	`, pendingBefore)
}

func (d *DatabaseClient) MarkReviewEscalated(ctx context.Context, reviewID uuid.UUID) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE admin_reviews
		SET escalated_at = NOW()
		WHERE id = $1 AND escalated_at IS NULL
	`, reviewID)
	if err != nil {
		return false, fmt.Errorf("failed to mark review escalated: %w", err)
	}
	return affected(res)
}

// AppendStatusHistory inserts a ledger entry. The order row is locked so
// entries for one order get strictly increasing timestamps.
func (d *DatabaseClient) AppendStatusHistory(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, notes string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	if err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&locked); err != nil {
		return fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, created_at)
		SELECT $1::uuid, $2::text, $3::text,
			GREATEST(clock_timestamp(), MAX(created_at) + INTERVAL '1 microsecond')
		FROM order_status_history
		WHERE order_id = $1::uuid
	`, orderID, status, notes)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	return tx.Commit()
}

func (d *DatabaseClient) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusHistory, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, order_id, status, notes, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	var entries []models.StatusHistory
	for rows.Next() {
		var entry models.StatusHistory
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Notes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func statusStrings(statuses []models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// jsonArg encodes v for a jsonb parameter. A nil pointer becomes NULL.
func jsonArg(v *models.ShippingAddress) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping address: %w", err)
	}
	return string(b), nil
}
