package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/presence"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/utils"
)

type CourierHandler struct {
	orderService *services.OrderService
	tracker      *presence.Tracker
}

func NewCourierHandler(orderService *services.OrderService, tracker *presence.Tracker) *CourierHandler {
	return &CourierHandler{
		orderService: orderService,
		tracker:      tracker,
	}
}

func (h *CourierHandler) Register(c *gin.Context) {
	var courier models.Courier
	if err := c.ShouldBindJSON(&courier); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if courier.ID == "" || courier.Name == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Courier id and name are required", ""))
		return
	}

	if err := h.orderService.RegisterCourier(c.Request.Context(), &courier); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Courier registered", courier))
}

type availabilityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

func (h *CourierHandler) SetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	id := c.Param("id")
	if err := h.orderService.SetCourierAvailability(c.Request.Context(), id, *req.Online); err != nil {
		respondError(c, err)
		return
	}
	if !*req.Online {
		h.tracker.Forget(id)
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Availability updated", nil))
}

func (h *CourierHandler) Workload(c *gin.Context) {
	id := c.Param("id")
	count, err := h.orderService.CourierWorkload(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	_, fresh := h.tracker.Get(id)
	c.JSON(http.StatusOK, utils.SuccessResponse("Workload retrieved", gin.H{
		"courier_id":    id,
		"active_orders": count,
		"live_location": fresh,
	}))
}
