package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/presence"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/utils"
)

type DeliveryHandler struct {
	orderService *services.OrderService
	tracker      *presence.Tracker
}

func NewDeliveryHandler(orderService *services.OrderService, tracker *presence.Tracker) *DeliveryHandler {
	return &DeliveryHandler{
		orderService: orderService,
		tracker:      tracker,
	}
}

func (h *DeliveryHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetDeliveryOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order retrieved", order))
}

type updateDeliveryRequest struct {
	Status string           `json:"status" binding:"required"`
	Note   string           `json:"note"`
	Geo    *models.GeoPoint `json:"geo"`
}

func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	var req updateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	who := actor(c)
	if req.Geo != nil {
		h.tracker.Update(who, *req.Geo)
	}

	if err := h.orderService.UpdateDeliveryStatus(c.Request.Context(), c.Param("id"), req.Status, who, req.Note, req.Geo); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Delivery status updated", nil))
}

type assignRequest struct {
	TargetStatus string `json:"target_status"`
}

func (h *DeliveryHandler) AutoAssign(c *gin.Context) {
	var req assignRequest
	// Body is optional, the default target is "assigned".
	_ = c.ShouldBindJSON(&req)

	courier, err := h.orderService.AutoAssign(c.Request.Context(), c.Param("id"), actor(c), req.TargetStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	if courier == nil {
		c.JSON(http.StatusOK, utils.SuccessResponse("No courier available", nil))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Courier assigned", courier))
}

func (h *DeliveryHandler) CreateManual(c *gin.Context) {
	var req models.ManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.SupervisorID == "" {
		req.SupervisorID = actor(c)
	}

	order, err := h.orderService.CreateManualOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Manual order created", order))
}

func (h *DeliveryHandler) Remove(c *gin.Context) {
	if err := h.orderService.RemoveDeliveryOrder(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order removed", nil))
}

func (h *DeliveryHandler) Restore(c *gin.Context) {
	if err := h.orderService.RestoreDeliveryOrder(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order restored", nil))
}

type editRequest struct {
	Modifications string `json:"modifications" binding:"required"`
}

func (h *DeliveryHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	if err := h.orderService.EditDeliveryOrder(c.Request.Context(), c.Param("id"), req.Modifications, actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order edited", nil))
}

func (h *DeliveryHandler) History(c *gin.Context) {
	entries, err := h.orderService.OrderHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("History retrieved", entries))
}

type heartbeatRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Heartbeat records a courier's position for staff dashboards.
func (h *DeliveryHandler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	h.tracker.Update(actor(c), models.GeoPoint{Lat: req.Lat, Lng: req.Lng})
	c.JSON(http.StatusOK, utils.SuccessResponse("Heartbeat recorded", nil))
}
