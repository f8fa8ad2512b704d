package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetString("user_id")
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("X-Idempotency-Key")
	}

	result, err := h.orderService.Checkout(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Checkout completed", result))
}

func (h *OrderHandler) GetParentOrder(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Order ID is required", ""))
		return
	}

	order, err := h.orderService.GetParentOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Order retrieved", order))
}

func (h *OrderHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Booking ID is required", ""))
		return
	}

	booking, err := h.orderService.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking retrieved", booking))
}

type updateBookingRequest struct {
	Status string   `json:"status" binding:"required"`
	Price  *float64 `json:"price"`
}

func (h *OrderHandler) UpdateBookingStatus(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	booking, err := h.orderService.UpdateBookingStatus(c.Request.Context(), c.Param("id"), req.Status, req.Price, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking updated", booking))
}

type rescheduleRequest struct {
	NewDate time.Time `json:"new_date" binding:"required"`
}

func (h *OrderHandler) RescheduleAppointment(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	role := c.GetString("user_role")
	booking, err := h.orderService.RescheduleAppointment(c.Request.Context(), c.Param("id"), req.NewDate, role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Appointment rescheduled", booking))
}

func (h *OrderHandler) ConfirmAppointment(c *gin.Context) {
	booking, err := h.orderService.ConfirmAppointment(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Appointment confirmed", booking))
}

// SyncParent lets operators force a parent-status reconciliation.
func (h *OrderHandler) SyncParent(c *gin.Context) {
	h.orderService.SyncParentStatus(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, utils.SuccessResponse("Sync triggered", nil))
}
