package services_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"pawpop-backend/internal/catalog"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/printify"
)

type memStore struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	claims   map[uuid.UUID]time.Time
	artworks map[uuid.UUID]*models.Artwork
	started  map[uuid.UUID]time.Time
	reviews  map[uuid.UUID]*models.AdminReview
	history  []models.StatusHistory
	clock    time.Time

	notRetryable map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[uuid.UUID]*models.Order{},
		claims:   map[uuid.UUID]time.Time{},
		artworks: map[uuid.UUID]*models.Artwork{},
		started:  map[uuid.UUID]time.Time{},
		reviews:  map[uuid.UUID]*models.AdminReview{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),

		notRetryable: map[uuid.UUID]bool{},
	}
}

func (s *memStore) addOrder(o models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.Quantity == 0 {
		o.Quantity = 1
	}
	s.orders[o.ID] = &o
	return &o
}

func (s *memStore) addArtwork(a models.Artwork) *models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UpscaleStatus == "" {
		a.UpscaleStatus = models.UpscaleNotStarted
	}
	s.artworks[a.ID] = &a
	return &a
}

func (s *memStore) order(id uuid.UUID) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *memStore) artwork(id uuid.UUID) models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.artworks[id]
}

func (s *memStore) reviewList() []models.AdminReview {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdminReview
	for _, r := range s.reviews {
		out = append(out, *r)
	}
	return out
}

func (s *memStore) historyFor(orderID uuid.UUID) []models.StatusHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StatusHistory
	for _, h := range s.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out
}

func (s *memStore) countHistory(orderID uuid.UUID, status models.OrderStatus) int {
	n := 0
	for _, h := range s.historyFor(orderID) {
		if h.Status == status {
			n++
		}
	}
	return n
}

func (s *memStore) bySession(sessionID string) *models.Order {
	for _, o := range s.orders {
		if o.StripeSessionID == sessionID {
			return o
		}
	}
	return nil
}

func copyOrder(o *models.Order) *models.Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		c.ShippingAddress = &addr
	}
	return &c
}

func (s *memStore) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrder(s.bySession(sessionID)), nil
}

func (s *memStore) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrder(s.orders[id]), nil
}

func (s *memStore) GetOrderByPrintifyID(ctx context.Context, printifyOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PrintifyOrderID.String == printifyOrderID {
			return copyOrder(o), nil
		}
	}
	return nil, nil
}

func (s *memStore) TransitionOrderStatus(ctx context.Context, id uuid.UUID, from []models.OrderStatus, status models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateOrderAfterPayment(ctx context.Context, sessionID, paymentRef string, address *models.ShippingAddress) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.bySession(sessionID)
	if o == nil {
		return false, errors.New("no order")
	}
	if paymentRef != "" {
		o.StripePaymentIntentID = sql.NullString{String: paymentRef, Valid: true}
	}
	if address != nil {
		addr := *address
		o.ShippingAddress = &addr
	}
	if o.Status == models.OrderStatusPending {
		o.Status = models.OrderStatusPaid
		return true, nil
	}
	return false, nil
}

func (s *memStore) SaveOrderMetadata(ctx context.Context, id uuid.UUID, meta *models.OrderMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	o.ProductType = meta.ProductType
	o.ProductSize = meta.Size
	o.FrameUpgrade = meta.FrameUpgrade
	o.Quantity = meta.Quantity
	if meta.ImageURL != "" {
		o.SourceImageURL = sql.NullString{String: meta.ImageURL, Valid: true}
	}
	if meta.PetName != "" {
		o.PetName = sql.NullString{String: meta.PetName, Valid: true}
	}
	if meta.ShippingMethodID > 0 {
		o.ShippingMethodID = sql.NullInt64{Int64: int64(meta.ShippingMethodID), Valid: true}
	}
	if meta.ArtworkID != uuid.Nil {
		o.ArtworkID = uuid.NullUUID{UUID: meta.ArtworkID, Valid: true}
	}
	return nil
}

func (s *memStore) SetFulfillmentImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id].FulfillmentImageURL = sql.NullString{String: imageURL, Valid: true}
	return nil
}

func (s *memStore) ClaimFulfillment(ctx context.Context, id uuid.UUID, staleBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders[id].HasFulfillment() {
		return false, nil
	}
	if at, ok := s.claims[id]; ok && at.After(staleBefore) {
		return false, nil
	}
	s.claims[id] = time.Now()
	return true, nil
}

func (s *memStore) ReleaseFulfillmentClaim(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, id)
	return nil
}

func (s *memStore) UpdateOrderWithFulfillment(ctx context.Context, sessionID, externalOrderID, externalStatus string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.bySession(sessionID)
	if o == nil || o.HasFulfillment() {
		return false, nil
	}
	o.PrintifyOrderID = sql.NullString{String: externalOrderID, Valid: true}
	o.PrintifyStatus = sql.NullString{String: externalStatus, Valid: true}
	o.Status = models.OrderStatusProcessing
	delete(s.claims, o.ID)
	return true, nil
}

func (s *memStore) UpdatePrintifyStatus(ctx context.Context, id uuid.UUID, providerStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id].PrintifyStatus = sql.NullString{String: providerStatus, Valid: true}
	return nil
}

func (s *memStore) ListRetryCandidates(ctx context.Context, stalledBefore, now time.Time, maxRetries, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.HasFulfillment() || s.notRetryable[o.ID] || o.RetryCount >= maxRetries || !o.ProductType.IsPhysical() {
			continue
		}
		if o.NextRetryAt.Valid && o.NextRetryAt.Time.After(now) {
			continue
		}
		stalled := o.UpdatedAt.Before(stalledBefore)
		switch {
		case o.Status == models.OrderStatusFailed,
			o.Status == models.OrderStatusPaid && stalled,
			o.Status == models.OrderStatusPendingReview && stalled && s.approvedAndNothingPending(o.StripeSessionID):
			out = append(out, *o)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id].RetryCount = retryCount
	s.orders[id].NextRetryAt = sql.NullTime{Time: next, Valid: true}
	return nil
}

func (s *memStore) approvedAndNothingPending(sessionID string) bool {
	approved := false
	for _, r := range s.reviews {
		if r.OrderSessionID.String != sessionID {
			continue
		}
		if r.Status == models.ReviewPending {
			return false
		}
		if r.Status == models.ReviewApproved && r.ReviewType == models.ReviewTypeHighresFile {
			approved = true
		}
	}
	return approved
}

func (s *memStore) MarkOrderNotRetryable(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notRetryable[id] = true
	s.orders[id].NextRetryAt = sql.NullTime{}
	return nil
}

func (s *memStore) ListStalePendingOrders(ctx context.Context, createdBefore time.Time) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusPending && o.CreatedAt.Before(createdBefore) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) GetArtwork(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artworks[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (s *memStore) StartUpscale(ctx context.Context, id uuid.UUID, staleBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.artworks[id]
	switch a.UpscaleStatus {
	case models.UpscaleCompleted:
		return false, nil
	case models.UpscaleProcessing:
		if s.started[id].After(staleBefore) {
			return false, nil
		}
	}
	a.UpscaleStatus = models.UpscaleProcessing
	s.started[id] = time.Now()
	return true, nil
}

func (s *memStore) UpdateArtworkUpscaleStatus(ctx context.Context, id uuid.UUID, status models.UpscaleStatus, imageURL, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.artworks[id]
	a.UpscaleStatus = status
	if imageURL != "" {
		a.UpscaledImageURL = sql.NullString{String: imageURL, Valid: true}
	}
	if errMsg != "" {
		a.UpscaleError = sql.NullString{String: errMsg, Valid: true}
	}
	return nil
}

func (s *memStore) CreateAdminReview(ctx context.Context, artworkID uuid.NullUUID, reviewType models.ReviewType, imageURL string, customer models.CustomerInfo, sessionID string) (*models.AdminReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	r := &models.AdminReview{
		ID:             uuid.New(),
		ArtworkID:      artworkID,
		OrderSessionID: sql.NullString{String: sessionID, Valid: sessionID != ""},
		ReviewType:     reviewType,
		Status:         models.ReviewPending,
		ImageURL:       imageURL,
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		PetName:        sql.NullString{String: customer.PetName, Valid: customer.PetName != ""},
		CreatedAt:      s.clock,
	}
	s.reviews[r.ID] = r
	c := *r
	return &c, nil
}

func (s *memStore) GetAdminReview(ctx context.Context, id uuid.UUID) (*models.AdminReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (s *memStore) GetPendingReviewForSession(ctx context.Context, sessionID string, reviewType models.ReviewType) (*models.AdminReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.OrderSessionID.String == sessionID && r.ReviewType == reviewType && r.Status == models.ReviewPending {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetLatestReviewForSession(ctx context.Context, sessionID string, reviewType models.ReviewType) (*models.AdminReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.AdminReview
	for _, r := range s.reviews {
		if r.OrderSessionID.String != sessionID || r.ReviewType != reviewType {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (s *memStore) ListAdminReviews(ctx context.Context, status models.ReviewStatus, reviewType models.ReviewType) ([]models.AdminReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdminReview
	for _, r := range s.reviews {
		if r.Status == status && (reviewType == "" || r.ReviewType == reviewType) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ProcessAdminReview(ctx context.Context, id uuid.UUID, status models.ReviewStatus, reviewedBy, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || r.Status != models.ReviewPending {
		return false, nil
	}
	r.Status = status
	r.ReviewedBy = sql.NullString{String: reviewedBy, Valid: true}
	r.ReviewNotes = sql.NullString{String: notes, Valid: notes != ""}
	r.ReviewedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return true, nil
}

func (s *memStore) ReplaceAndApproveReview(ctx context.Context, id uuid.UUID, imageURL, reviewedBy, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || r.Status != models.ReviewPending {
		return false, nil
	}
	r.Status = models.ReviewApproved
	r.ImageURL = imageURL
	r.ManuallyReplaced = true
	r.ReviewedBy = sql.NullString{String: reviewedBy, Valid: true}
	r.ReviewedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return true, nil
}

func (s *memStore) ListReviewsNeedingEscalation(ctx context.Context, pendingBefore time.Time) ([]models.AdminReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdminReview
	for _, r := range s.reviews {
		if r.EscalatedAt.Valid {
			continue
		}
		stalled := r.Status == models.ReviewPending && r.CreatedAt.Before(pendingBefore)
		abandoned := false
		if r.Status == models.ReviewRejected && r.ReviewedAt.Time.Before(pendingBefore) {
			o := s.bySession(r.OrderSessionID.String)
			abandoned = o != nil && o.Status == models.OrderStatusPendingReview
			for _, other := range s.reviews {
				if other.OrderSessionID == r.OrderSessionID && other.Status == models.ReviewPending {
					abandoned = false
				}
			}
		}
		if stalled || abandoned {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) MarkReviewEscalated(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reviews[id]
	if r.EscalatedAt.Valid {
		return false, nil
	}
	r.EscalatedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return true, nil
}

func (s *memStore) AppendStatusHistory(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Microsecond)
	s.history = append(s.history, models.StatusHistory{
		ID:        int64(len(s.history) + 1),
		OrderID:   orderID,
		Status:    status,
		Notes:     notes,
		CreatedAt: s.clock,
	})
	return nil
}

func (s *memStore) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusHistory, error) {
	entries := s.historyFor(orderID)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

type fakeProvider struct {
	mu          sync.Mutex
	catalogs    int
	catalogReqs []printify.CatalogEntryRequest
	submissions []printify.OrderRequest
	methods     []printify.ShippingMethod
	submitErr   error
	delay       time.Duration
}

func (p *fakeProvider) CreateCatalogEntry(ctx context.Context, req printify.CatalogEntryRequest) (*printify.CatalogEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalogs++
	p.catalogReqs = append(p.catalogReqs, req)
	return &printify.CatalogEntry{ProductID: fmt.Sprintf("prod-%d", p.catalogs), VariantID: 7}, nil
}

func (p *fakeProvider) SubmitOrder(ctx context.Context, req printify.OrderRequest) (*printify.SubmittedOrder, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	p.submissions = append(p.submissions, req)
	return &printify.SubmittedOrder{ID: fmt.Sprintf("po-%d", len(p.submissions)), Status: "pending"}, nil
}

func (p *fakeProvider) GetShippingMethods(ctx context.Context, productType models.ProductType, region catalog.Region) ([]printify.ShippingMethod, error) {
	return p.methods, nil
}

func (p *fakeProvider) submitted() []printify.OrderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]printify.OrderRequest(nil), p.submissions...)
}

type fakeUpscaler struct {
	mu    sync.Mutex
	calls int
	url   string
	err   error
}

func (u *fakeUpscaler) Upscale(ctx context.Context, imageURL string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

func (u *fakeUpscaler) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(ctx context.Context, event string, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == event {
			c++
		}
	}
	return c
}

type memLocker struct {
	mu    sync.Mutex
	held  map[string]string
	count int
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.count++
	token := fmt.Sprintf("t%d", l.count)
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*printify.CatalogEntry
}

func (c *mapCache) Get(ctx context.Context, key string) (*printify.CatalogEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, entry *printify.CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]*printify.CatalogEntry{}
	}
	c.entries[key] = entry
	return nil
}
