package handler

import (
	"net/http"
	"time"

	"leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/internal/orders/service"
	"leadmarket_backend/internal/orders/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the authenticated order routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/fulfillment", h.GetFulfillment)
}

// RegisterAdminRoutes mounts the admin-only order routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/by-payment/:paymentId", h.GetByPaymentID)
	rg.POST("/:id/priority", h.SetPriority)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/close-check", h.CloseCheck)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, toOrderResponse(order))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := repository.ListParams{
		CampaignID: req.CampaignID,
		AgentID:    req.AgentID,
		Limit:      req.PageSize,
		Offset:     (req.Page - 1) * req.PageSize,
	}
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if req.Status != "" {
		status := repository.OrderStatus(req.Status)
		params.Status = &status
	}

	// Agents only see their own orders.
	identity := httpkit.GetIdentity(c)
	if !identity.IsAdmin() {
		if identity.AgentID() == nil {
			httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		params.AgentID = identity.AgentID()
	}

	orders, total, err := h.svc.ListOrders(c.Request.Context(), params)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	items := make([]transport.OrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, toOrderResponse(order))
	}
	httpkit.OK(c, transport.OrderListResponse{Items: items, Total: total})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if !h.canAccess(c, order) {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	httpkit.OK(c, toOrderResponse(order))
}

func (h *Handler) GetByPaymentID(c *gin.Context) {
	paymentID := c.Param("paymentId")
	if paymentID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	order, err := h.svc.GetOrderByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toOrderResponse(order))
}

func (h *Handler) GetFulfillment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	order, counts, err := h.svc.GetFulfillment(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if !h.canAccess(c, order) {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	httpkit.OK(c, transport.FulfillmentResponse{
		OrderID:               order.ID,
		Status:                string(order.Status),
		FreshTarget:           order.FreshTarget,
		FreshCompleted:        counts.Fresh,
		SecondChanceTarget:    order.SecondChanceTarget,
		SecondChanceCompleted: counts.SecondChance,
	})
}

func (h *Handler) SetPriority(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.GetIdentity(c)
	actorID := identity.UserID()

	order, err := h.svc.SetPriority(c.Request.Context(), id, req.DurationDays, req.ExternalTaskRef, &actorID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toOrderResponse(order))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional on cancellations.
	_ = c.ShouldBindJSON(&req)

	order, err := h.svc.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toOrderResponse(order))
}

// CloseCheck recomputes fulfillment and closes the order when both legs are
// met. Safe to call repeatedly; a closed order stays closed.
func (h *Handler) CloseCheck(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	order, err := h.svc.CheckAndClose(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toOrderResponse(order))
}

// canAccess allows admins everywhere and agents on their own orders only.
func (h *Handler) canAccess(c *gin.Context, order repository.Order) bool {
	identity := httpkit.GetIdentity(c)
	if identity.IsAdmin() {
		return true
	}
	return identity.AgentID() != nil && *identity.AgentID() == order.AgentID
}

func toOrderResponse(order repository.Order) transport.OrderResponse {
	resp := transport.OrderResponse{
		ID:                 order.ID,
		CampaignID:         order.CampaignID,
		AgentID:            order.AgentID,
		TotalCents:         order.TotalCents,
		OrderType:          string(order.Type),
		Status:             string(order.Status),
		FreshTarget:        order.FreshTarget,
		SecondChanceTarget: order.SecondChanceTarget,
		PaymentID:          order.PaymentID,
		Rules:              order.Rules,
		CreatedAt:          order.CreatedAt.Format(time.RFC3339),
	}
	if order.CompletedAt != nil {
		completed := order.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	if order.Priority != nil {
		window := toPriorityResponse(*order.Priority)
		resp.Priority = &window
	}
	for _, window := range order.PriorityHistory {
		resp.PriorityHistory = append(resp.PriorityHistory, toPriorityResponse(window))
	}
	return resp
}

func toPriorityResponse(window repository.PriorityWindow) transport.PriorityWindowResponse {
	return transport.PriorityWindowResponse{
		DurationDays:    window.DurationDays,
		StartTime:       window.StartTime,
		EndTime:         window.EndTime,
		Active:          window.Active,
		PrioritizedBy:   window.PrioritizedBy,
		ExternalTaskRef: window.ExternalTaskRef,
	}
}
