package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"pawpop-backend/internal/catalog"
	"pawpop-backend/internal/models"
)

type OrderHandler struct {
	orders   OrderReader
	shipping ShippingQuoter
}

func NewOrderHandler(orders OrderReader, shipping ShippingQuoter) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		shipping: shipping,
	}
}

// GetBySession godoc
// @Summary     Order status for a checkout session
// @Description Returns the customer-facing status of the order created by a Stripe checkout session
// @Tags        orders
// @Produce     json
// @Param       session_id path string true "Stripe checkout session ID"
// @Success     200 {object} models.OrderStatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders/session/{session_id} [get]
func (h *OrderHandler) GetBySession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "session id is required"})
		return
	}

	order, err := h.orders.GetOrderBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get order", Message: err.Error()})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		return
	}

	c.JSON(http.StatusOK, models.OrderStatusResponse{
		OrderNumber:       order.OrderNumber(),
		SessionID:         order.StripeSessionID,
		Status:            string(order.Status),
		StatusMessage:     order.Status.CustomerMessage(),
		ProductType:       string(order.ProductType),
		ProductName:       order.ProductType.DisplayName(),
		ProductSize:       order.ProductSize,
		Quantity:          order.Quantity,
		PriceCents:        order.PriceCents,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		PetName:           order.PetName.String,
		ShippingAddress:   order.ShippingAddress,
		EstimatedDelivery: order.EstimatedDelivery(),
		CreatedAt:         order.CreatedAt,
	})
}

// ShippingMethods godoc
// @Summary     Shipping options for a product
// @Description Lists the shipping methods Printify offers for a physical product shipped to a country
// @Tags        orders
// @Produce     json
// @Param       product_type query string true "art_print, canvas_stretched or canvas_framed"
// @Param       size query string false "Product size, e.g. 16x24"
// @Param       country query string false "ISO country code" default(US)
// @Success     200 {object} models.ShippingMethodsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /shipping-methods [get]
func (h *OrderHandler) ShippingMethods(c *gin.Context) {
	productType, err := models.ParseProductType(c.Query("product_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product_type", Message: err.Error()})
		return
	}
	if !productType.IsPhysical() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "digital products do not ship"})
		return
	}

	country := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("country", "US")))

	product, err := catalog.Lookup(productType, country)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "product not available", Message: err.Error()})
		return
	}
	if size := c.Query("size"); size != "" {
		if _, ok := product.Variant(size); !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid size",
				Message: "available sizes: " + strings.Join(product.Sizes(), ", "),
			})
			return
		}
	}

	methods, err := h.shipping.GetShippingMethods(c.Request.Context(), productType, product.Region)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrRegionUnavailable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, models.ErrorResponse{Error: "failed to get shipping methods", Message: err.Error()})
		return
	}

	resp := models.ShippingMethodsResponse{
		ProductType: string(productType),
		Country:     country,
		Region:      string(product.Region),
		Methods:     make([]models.ShippingMethodResponse, 0, len(methods)),
	}
	for _, m := range methods {
		resp.Methods = append(resp.Methods, models.ShippingMethodResponse{
			ID:            m.ID,
			Name:          m.Name,
			CostCents:     m.CostCents,
			EstimatedDays: m.EstimatedDays,
		})
	}
	c.JSON(http.StatusOK, resp)
}
