package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"pawpop-backend/internal/models"
)

// Upscaler turns an image URL into a higher resolution image URL.
type Upscaler interface {
	Upscale(ctx context.Context, imageURL string) (string, error)
}

type UpscaleStep struct {
	artworks ArtworkStore
	upscaler Upscaler
	timeout  time.Duration
	logger   *slog.Logger
}

func NewUpscaleStep(artworks ArtworkStore, upscaler Upscaler, timeout time.Duration, logger *slog.Logger) *UpscaleStep {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UpscaleStep{
		artworks: artworks,
		upscaler: upscaler,
		timeout:  timeout,
		logger:   logger,
	}
}

// Upscale upscales the artwork's best image and returns the new URL.
// A completed upscale is reused without calling the provider again.
func (s *UpscaleStep) Upscale(ctx context.Context, artworkID uuid.UUID) (string, error) {
	artwork, err := s.artworks.GetArtwork(ctx, artworkID)
	if err != nil {
		return "", fmt.Errorf("failed to get artwork: %w", err)
	}
	if artwork == nil {
		return "", fmt.Errorf("%w: %s", ErrArtworkNotFound, artworkID)
	}

	if artwork.UpscaleStatus == models.UpscaleCompleted && artwork.UpscaledImageURL.Valid {
		return artwork.UpscaledImageURL.String, nil
	}

	source := artwork.UpscaleSource()
	if source == "" {
		return "", fmt.Errorf("artwork %s has no image to upscale", artworkID)
	}

	// A run older than twice the timeout is dead and can be restarted.
	started, err := s.artworks.StartUpscale(ctx, artworkID, time.Now().Add(-2*s.timeout))
	if err != nil {
		return "", fmt.Errorf("failed to start upscale: %w", err)
	}
	if !started {
		return "", ErrUpscaleInProgress
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	imageURL, err := s.upscaler.Upscale(callCtx, source)
	if err == nil && imageURL == "" {
		err = errors.New("upscaler returned no image")
	}
	if err != nil {
		if uerr := s.artworks.UpdateArtworkUpscaleStatus(ctx, artworkID, models.UpscaleFailed, "", err.Error()); uerr != nil {
			s.logger.Error("failed to record upscale failure", "artwork_id", artworkID, "error", uerr)
		}
		return "", fmt.Errorf("failed to upscale artwork %s: %w", artworkID, err)
	}

	if err := s.artworks.UpdateArtworkUpscaleStatus(ctx, artworkID, models.UpscaleCompleted, imageURL, ""); err != nil {
		return "", fmt.Errorf("failed to record upscale result: %w", err)
	}

	s.logger.Info("artwork upscaled", "artwork_id", artworkID, "image_url", imageURL)
	return imageURL, nil
}

// MarkNotRequired records that the artwork backs a digital order only.
func (s *UpscaleStep) MarkNotRequired(ctx context.Context, artworkID uuid.UUID) error {
	artwork, err := s.artworks.GetArtwork(ctx, artworkID)
	if err != nil {
		return fmt.Errorf("failed to get artwork: %w", err)
	}
	if artwork == nil {
		return fmt.Errorf("%w: %s", ErrArtworkNotFound, artworkID)
	}
	switch artwork.UpscaleStatus {
	case models.UpscaleCompleted, models.UpscaleProcessing, models.UpscaleNotRequired:
		return nil
	}
	return s.artworks.UpdateArtworkUpscaleStatus(ctx, artworkID, models.UpscaleNotRequired, "", "")
}
