package handlers

import (
	"net/http"

	"tow-dispatch-api/geo"
	"tow-dispatch-api/middleware"
	"tow-dispatch-api/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// PlaceOrder creates a tow request for the caller. Any price in the body is
// ignored; the server prices the order from distanceKm.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req services.OrderPayload
	if !bindBody(c, &req) {
		return
	}
	order, err := h.Orders.Create(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders lists the caller's orders, newest first
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListMine(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type quoteRequest struct {
	Pickup  geo.Location `json:"pickup"`
	Dropoff geo.Location `json:"dropoff"`
}

// Quote previews distance and price between two stops
func (h *OrderHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !bindBody(c, &req) {
		return
	}
	est, err := h.Orders.Quote(c.Request.Context(), req.Pickup, req.Dropoff)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}
