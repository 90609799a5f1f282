package supabase_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pawpop-backend/internal/services"
	"pawpop-backend/internal/supabase"
)

func TestManualUploadPath(t *testing.T) {
	at := time.UnixMilli(1717000000123)

	assert.Equal(t, "art-1/manual_upload_1717000000123.png", supabase.ManualUploadPath("art-1", "Fixed.PNG", at))
	assert.Equal(t, "art-1/manual_upload_1717000000123.jpg", supabase.ManualUploadPath("art-1", "noext", at))
}

func TestStorageClient_UploadReviewImage(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody = string(body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Key":"artwork-images/uploaded"}`))
	}))
	defer server.Close()

	client, err := supabase.NewStorageClient(server.URL+"/", "service-key", "artwork-images")
	require.NoError(t, err)

	storagePath, publicURL, err := client.UploadReviewImage(context.Background(), "art-1", "fixed.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(storagePath, "art-1/manual_upload_"))
	assert.True(t, strings.HasSuffix(storagePath, ".png"))
	assert.Equal(t, server.URL+"/storage/v1/object/public/artwork-images/"+storagePath, publicURL)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/storage/v1/object/artwork-images/"+storagePath, gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png-bytes", gotBody)
}

func TestNewStorageClient_RequiresURL(t *testing.T) {
	_, err := supabase.NewStorageClient("", "key", "bucket")
	assert.Error(t, err)
}

func TestRecipient(t *testing.T) {
	payload := map[string]interface{}{"customer_email": "jane@example.com"}

	assert.Equal(t, "jane@example.com", supabase.Recipient(services.EventOrderShipped, payload, "support@pawpop.art"))
	assert.Equal(t, "jane@example.com", supabase.Recipient(services.EventDigitalOrderReady, payload, "support@pawpop.art"))
	assert.Equal(t, "support@pawpop.art", supabase.Recipient(services.EventAdminReviewCreated, payload, "support@pawpop.art"))
	assert.Equal(t, "support@pawpop.art", supabase.Recipient(services.EventOrderShipped, map[string]interface{}{}, "support@pawpop.art"))
}
