package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"pawpop-backend/internal/middleware"
	"pawpop-backend/internal/models"
)

const defaultCleanupHours = 24

type AdminOrderHandler struct {
	orders   OrderReader
	workflow OrderOperations
	history  HistoryReader
	logger   *slog.Logger
}

func NewAdminOrderHandler(orders OrderReader, workflow OrderOperations, history HistoryReader, logger *slog.Logger) *AdminOrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminOrderHandler{
		orders:   orders,
		workflow: workflow,
		history:  history,
		logger:   logger,
	}
}

// History godoc
// @Summary     Order status history
// @Description Returns every status change and note recorded for an order, newest first
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.StatusHistoryResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/history [get]
func (h *AdminOrderHandler) History(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "order_id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get order", Message: err.Error()})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		return
	}

	entries, err := h.history.History(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get status history", Message: err.Error()})
		return
	}

	resp := models.StatusHistoryResponse{
		OrderID: orderID.String(),
		History: make([]models.StatusHistoryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.History = append(resp.History, models.StatusHistoryEntry{
			Status:    string(e.Status),
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Retry godoc
// @Summary     Retry a failed order
// @Description Reruns fulfillment for a failed or stalled order from the step where it stopped
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/retry [post]
func (h *AdminOrderHandler) Retry(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "order_id")
	if !ok {
		return
	}

	if err := h.workflow.RetryFailedOrder(c.Request.Context(), orderID); err != nil {
		h.logger.Error("manual retry failed", "order_id", orderID, "admin_id", c.GetString(middleware.UserIDKey), "error", err)
		respondError(c, "retry failed", err)
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil || order == nil {
		c.JSON(http.StatusOK, gin.H{"order_id": orderID.String(), "status": "retried"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID.String(), "status": string(order.Status)})
}

// Cleanup godoc
// @Summary     Cancel abandoned checkouts
// @Description Cancels orders still pending payment after hours_old hours. With dry_run the orders are only listed.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CleanupRequest false "Cleanup options"
// @Success     200 {object} models.CleanupResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders/cleanup [post]
func (h *AdminOrderHandler) Cleanup(c *gin.Context) {
	var req models.CleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
			return
		}
	}
	if req.HoursOld < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "hours_old must be positive"})
		return
	}
	if req.HoursOld == 0 {
		req.HoursOld = defaultCleanupHours
	}

	before := time.Now().Add(-time.Duration(req.HoursOld) * time.Hour)
	ids, err := h.workflow.CancelStalePending(c.Request.Context(), before, req.DryRun)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "cleanup failed", Message: err.Error()})
		return
	}

	resp := models.CleanupResponse{
		DryRun:   req.DryRun,
		HoursOld: req.HoursOld,
		Count:    len(ids),
		OrderIDs: make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		resp.OrderIDs = append(resp.OrderIDs, id.String())
	}
	c.JSON(http.StatusOK, resp)
}
