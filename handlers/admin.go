package handlers

import (
	"net/http"
	"strconv"

	"tow-dispatch-api/middleware"

	"github.com/gin-gonic/gin"
)

// AdminGetAllOrders returns every order with its owner's email, newest first
func (h *OrderHandler) AdminGetAllOrders(c *gin.Context) {
	orders, err := h.Orders.ListAll(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type statusRequest struct {
	Status string `json:"status"`
}

// AdminSetOrderStatus overwrites an order's status
func (h *OrderHandler) AdminSetOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindBody(c, &req) {
		return
	}
	order, err := h.Orders.SetStatus(c.Request.Context(), middleware.GetIdentity(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminGetOrderHistory lists the status changes made to an order
func (h *OrderHandler) AdminGetOrderHistory(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	rows, err := h.Orders.History(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// orderID parses :id; an unparsable id can never match an order.
func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return uint(id), true
}
