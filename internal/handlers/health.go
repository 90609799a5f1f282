package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"pawpop-backend/internal/models"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// @Summary     Health check
// @Description Returns the health status of the API and its database
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Database: "ok"})
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}
