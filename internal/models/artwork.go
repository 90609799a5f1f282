package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type GeneratedImages struct {
	MonalisaBase   string `json:"monalisa_base,omitempty"`
	ArtworkPreview string `json:"artwork_preview,omitempty"`
	ArtworkFullRes string `json:"artwork_full_res,omitempty"`
}

type Artwork struct {
	ID               uuid.UUID
	CustomerName     string
	CustomerEmail    string
	PetName          sql.NullString
	GenerationStep   GenerationStep
	ProcessingStatus map[string]string
	GeneratedImages  GeneratedImages
	UpscaleStatus    UpscaleStatus
	UpscaledImageURL sql.NullString
	UpscaleError     sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UpscaleSource is the best image to feed into the upscaler.
func (a *Artwork) UpscaleSource() string {
	if a.GeneratedImages.ArtworkFullRes != "" {
		return a.GeneratedImages.ArtworkFullRes
	}
	return a.GeneratedImages.ArtworkPreview
}

type AdminReview struct {
	ID               uuid.UUID
	ArtworkID        uuid.NullUUID
	OrderSessionID   sql.NullString
	ReviewType       ReviewType
	Status           ReviewStatus
	ImageURL         string
	CustomerName     string
	CustomerEmail    string
	PetName          sql.NullString
	ReviewedBy       sql.NullString
	ReviewNotes      sql.NullString
	ReviewedAt       sql.NullTime
	ManuallyReplaced bool
	EscalatedAt      sql.NullTime
	CreatedAt        time.Time
}

// CustomerInfo is copied onto a review so reviewers see who it is for.
type CustomerInfo struct {
	Name    string
	Email   string
	PetName string
}
