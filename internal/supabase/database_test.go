package supabase_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pawpop-backend/internal/database"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/supabase"
)

// These tests need a disposable Postgres database in TEST_DATABASE_URL.
func newTestDB(t *testing.T) (*supabase.DatabaseClient, *sql.DB) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrator, err := database.NewMigrator(dsn)
	require.NoError(t, err)
	require.NoError(t, migrator.Run())
	require.NoError(t, migrator.Close())

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return supabase.NewDatabaseClientFromDB(db), db
}

func insertOrder(t *testing.T, db *sql.DB, productType models.ProductType) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	session := "cs_test_" + id.String()[:8]
	_, err := db.Exec(`
		INSERT INTO orders (id, stripe_session_id, product_type, product_size, customer_email, customer_name)
		VALUES ($1, $2, $3, '12x18', 'jane@example.com', 'Jane Doe')
	`, id, session, productType)
	require.NoError(t, err)
	return id, session
}

func TestDatabaseClient_PaymentAndFulfillmentAreConditional(t *testing.T) {
	store, db := newTestDB(t)
	ctx := context.Background()
	orderID, session := insertOrder(t, db, models.ProductArtPrint)

	address := &models.ShippingAddress{Country: "US", Address1: "1 Main St", City: "Austin", Zip: "78701"}
	moved, err := store.UpdateOrderAfterPayment(ctx, session, "pi_1", address)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = store.UpdateOrderAfterPayment(ctx, session, "pi_1", address)
	require.NoError(t, err)
	assert.False(t, moved)

	order, err := store.GetOrderBySessionID(ctx, session)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "Austin", order.ShippingAddress.City)

	claimed, err := store.ClaimFulfillment(ctx, orderID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = store.ClaimFulfillment(ctx, orderID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed)

	stored, err := store.UpdateOrderWithFulfillment(ctx, session, "po-1", "pending")
	require.NoError(t, err)
	assert.True(t, stored)
	stored, err = store.UpdateOrderWithFulfillment(ctx, session, "po-2", "pending")
	require.NoError(t, err)
	assert.False(t, stored)

	order, err = store.GetOrderByPrintifyID(ctx, "po-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
}

func TestDatabaseClient_MissingRowsReturnNil(t *testing.T) {
	store, _ := newTestDB(t)
	ctx := context.Background()

	order, err := store.GetOrderBySessionID(ctx, "cs_missing")
	assert.NoError(t, err)
	assert.Nil(t, order)

	review, err := store.GetAdminReview(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, review)

	artwork, err := store.GetArtwork(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, artwork)
}

func TestDatabaseClient_LedgerIsMonotonic(t *testing.T) {
	store, db := newTestDB(t)
	ctx := context.Background()
	orderID, _ := insertOrder(t, db, models.ProductDigital)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AppendStatusHistory(ctx, orderID, models.OrderStatusPaid, "note"))
		}()
	}
	wg.Wait()

	history, err := store.GetStatusHistory(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, history, 10)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].CreatedAt.After(history[i].CreatedAt))
	}
}

func TestDatabaseClient_ReviewDecisionIsSingle(t *testing.T) {
	store, db := newTestDB(t)
	ctx := context.Background()
	_, session := insertOrder(t, db, models.ProductArtPrint)

	customer := models.CustomerInfo{Name: "Jane Doe", Email: "jane@example.com"}
	review, err := store.CreateAdminReview(ctx, uuid.NullUUID{}, models.ReviewTypeHighresFile, "https://cdn.example.com/a.png", customer, session)
	require.NoError(t, err)

	again, err := store.CreateAdminReview(ctx, uuid.NullUUID{}, models.ReviewTypeHighresFile, "https://cdn.example.com/b.png", customer, session)
	require.NoError(t, err)
	assert.Equal(t, review.ID, again.ID, "one pending review per session and type")

	won, err := store.ProcessAdminReview(ctx, review.ID, models.ReviewApproved, "admin", "")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.ProcessAdminReview(ctx, review.ID, models.ReviewRejected, "admin", "")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestDatabaseClient_RetryCandidates(t *testing.T) {
	store, db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()
	customer := models.CustomerInfo{Name: "Jane Doe", Email: "jane@example.com"}

	failedID, _ := insertOrder(t, db, models.ProductArtPrint)
	invalidID, _ := insertOrder(t, db, models.ProductArtPrint)
	approvedID, approvedSession := insertOrder(t, db, models.ProductCanvasFramed)
	waitingID, waitingSession := insertOrder(t, db, models.ProductCanvasFramed)

	_, err := db.Exec(`UPDATE orders SET order_status = 'failed' WHERE id = ANY($1::uuid[])`, pq.Array([]string{failedID.String(), invalidID.String()}))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE orders SET order_status = 'pending_review' WHERE id = ANY($1::uuid[])`, pq.Array([]string{approvedID.String(), waitingID.String()}))
	require.NoError(t, err)
	require.NoError(t, store.MarkOrderNotRetryable(ctx, invalidID))

	approved, err := store.CreateAdminReview(ctx, uuid.NullUUID{}, models.ReviewTypeHighresFile, "https://cdn.example.com/a.png", customer, approvedSession)
	require.NoError(t, err)
	_, err = store.ProcessAdminReview(ctx, approved.ID, models.ReviewApproved, "admin", "")
	require.NoError(t, err)
	_, err = store.CreateAdminReview(ctx, uuid.NullUUID{}, models.ReviewTypeHighresFile, "https://cdn.example.com/b.png", customer, waitingSession)
	require.NoError(t, err)

	latest, err := store.GetLatestReviewForSession(ctx, approvedSession, models.ReviewTypeHighresFile)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.ReviewApproved, latest.Status)

	candidates, err := store.ListRetryCandidates(ctx, now.Add(time.Minute), now.Add(time.Minute), 5, 100)
	require.NoError(t, err)

	ids := map[uuid.UUID]bool{}
	for _, o := range candidates {
		ids[o.ID] = true
	}
	assert.True(t, ids[failedID])
	assert.True(t, ids[approvedID], "approved review with the order still waiting")
	assert.False(t, ids[invalidID], "validation failures are not retried")
	assert.False(t, ids[waitingID], "review still pending")
}
