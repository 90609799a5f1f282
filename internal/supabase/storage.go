package supabase

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
	now     func() time.Time
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	if supabaseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		now:     time.Now,
	}, nil
}

// ManualUploadPath is where an admin's replacement image for an artwork is
// stored.
func ManualUploadPath(folder, filename string, at time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s/manual_upload_%d%s", folder, at.UnixMilli(), ext)
}

// UploadReviewImage stores a replacement print file and returns its storage
// path and public URL.
func (s *StorageClient) UploadReviewImage(ctx context.Context, folder, filename, contentType string, data []byte) (string, string, error) {
	storagePath := ManualUploadPath(folder, filename, s.now())

	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DeleteFile(ctx context.Context, storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
