package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ProcessReviewRequest struct {
	// Action is "approved" or "rejected".
	Action string `json:"action" binding:"required" example:"approved"`
	Notes  string `json:"notes,omitempty"`
}

type CleanupRequest struct {
	HoursOld int  `json:"hours_old,omitempty" example:"24"`
	DryRun   bool `json:"dry_run,omitempty"`
}
