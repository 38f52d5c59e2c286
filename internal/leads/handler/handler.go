package handler

import (
	"context"
	"io"
	"net/http"

	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/leads/service"
	"leadmarket_backend/internal/leads/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// maxImportSize caps uploaded CSV files at 10 MiB.
const maxImportSize = 10 << 20

type Handler struct {
	svc      *service.Service
	importer *service.Importer
	val      *validator.Validator
}

func New(svc *service.Service, importer *service.Importer, val *validator.Validator) *Handler {
	return &Handler{svc: svc, importer: importer, val: val}
}

// RegisterRoutes mounts the authenticated lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
}

// RegisterAdminRoutes mounts the admin-only lead routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/import", h.Import)
	rg.POST("/:id/sell-fresh", h.SellFresh)
	rg.POST("/:id/sell-second-chance", h.SellSecondChance)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	params := repository.ListParams{
		CampaignID: req.CampaignID,
		Unsold:     req.Unsold,
		Limit:      req.PageSize,
		Offset:     (req.Page - 1) * req.PageSize,
	}
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	// Agents only see leads sold to them.
	identity := httpkit.GetIdentity(c)
	if !identity.IsAdmin() {
		if identity.AgentID() == nil {
			httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		params.BuyerID = identity.AgentID()
		params.Unsold = false
	}

	leads, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	httpkit.OK(c, transport.LeadListResponse{Items: items, Total: total})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	identity := httpkit.GetIdentity(c)
	if !identity.IsAdmin() {
		agentID := identity.AgentID()
		owned := agentID != nil &&
			((lead.BuyerID != nil && *lead.BuyerID == *agentID) ||
				(lead.SecondChanceBuyerID != nil && *lead.SecondChanceBuyerID == *agentID))
		if !owned {
			httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
			return
		}
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), repository.CreateParams{
		CampaignID:   req.CampaignID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		State:        req.State,
		Origin:       req.Origin,
		CustomFields: req.Custom,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, toLeadResponse(lead))
}

// Import accepts a multipart CSV upload with campaignId and origin form
// fields.
func (h *Handler) Import(c *gin.Context) {
	campaignID, err := uuid.Parse(c.PostForm("campaignId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "campaignId is required", nil)
		return
	}
	origin := c.PostForm("origin")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxImportSize {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.importer.ImportCSV(c.Request.Context(), campaignID, origin, fileHeader.Filename, data)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) SellFresh(c *gin.Context) {
	h.sell(c, h.svc.SellFresh)
}

func (h *Handler) SellSecondChance(c *gin.Context) {
	h.sell(c, h.svc.SellSecondChance)
}

func (h *Handler) sell(c *gin.Context, sellFn func(ctx context.Context, leadID, agentID, campaignID uuid.UUID) (repository.Lead, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.SellLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := sellFn(c.Request.Context(), id, req.AgentID, req.CampaignID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                  lead.ID,
		CampaignID:          lead.CampaignID,
		FirstName:           lead.FirstName,
		LastName:            lead.LastName,
		Email:               lead.Email,
		Phone:               lead.Phone,
		State:               lead.State,
		Origin:              lead.Origin,
		Custom:              lead.CustomFields,
		BuyerID:             lead.BuyerID,
		SecondChanceBuyerID: lead.SecondChanceBuyerID,
		FreshOrderID:        lead.FreshOrderID,
		SecondChanceOrderID: lead.SecondChanceOrderID,
		SoldAt:              lead.SoldAt,
		SecondChanceSoldAt:  lead.SecondChanceSoldAt,
		CreatedAt:           lead.CreatedAt,
	}
}
