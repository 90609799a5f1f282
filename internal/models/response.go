package models

import "time"

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type OrderStatusResponse struct {
	OrderNumber       string           `json:"order_number"`
	SessionID         string           `json:"session_id"`
	Status            string           `json:"status"`
	StatusMessage     string           `json:"status_message"`
	ProductType       string           `json:"product_type"`
	ProductName       string           `json:"product_name"`
	ProductSize       string           `json:"product_size"`
	Quantity          int              `json:"quantity"`
	PriceCents        int64            `json:"price_cents"`
	CustomerName      string           `json:"customer_name"`
	CustomerEmail     string           `json:"customer_email"`
	PetName           string           `json:"pet_name,omitempty"`
	ShippingAddress   *ShippingAddress `json:"shipping_address,omitempty"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusHistoryResponse struct {
	OrderID string               `json:"order_id"`
	History []StatusHistoryEntry `json:"history"`
}

type ReviewResponse struct {
	ID               string     `json:"id"`
	ArtworkID        string     `json:"artwork_id"`
	OrderSessionID   string     `json:"order_session_id,omitempty"`
	ReviewType       string     `json:"review_type"`
	Status           string     `json:"status"`
	ImageURL         string     `json:"image_url"`
	CustomerName     string     `json:"customer_name"`
	CustomerEmail    string     `json:"customer_email"`
	PetName          string     `json:"pet_name,omitempty"`
	ReviewedBy       string     `json:"reviewed_by,omitempty"`
	ReviewNotes      string     `json:"review_notes,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ManuallyReplaced bool       `json:"manually_replaced"`
	CreatedAt        time.Time  `json:"created_at"`
	Warning          string     `json:"warning,omitempty"`
}

type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

type CleanupResponse struct {
	DryRun   bool     `json:"dry_run"`
	HoursOld int      `json:"hours_old"`
	Count    int      `json:"count"`
	OrderIDs []string `json:"order_ids"`
}

type ShippingMethodResponse struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	CostCents     int    `json:"cost_cents"`
	EstimatedDays string `json:"estimated_days,omitempty"`
}

type ShippingMethodsResponse struct {
	ProductType string                   `json:"product_type"`
	Country     string                   `json:"country"`
	Region      string                   `json:"region"`
	Methods     []ShippingMethodResponse `json:"methods"`
}
