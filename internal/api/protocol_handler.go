package api

import (
	"alcyxob/trainerscribe/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// nowFunc is the clock used to derive the active flag of responses.
var nowFunc = time.Now

// ProtocolHandler holds the protocol service dependency.
type ProtocolHandler struct {
	protocolService service.ProtocolService
}

// NewProtocolHandler creates a new ProtocolHandler.
func NewProtocolHandler(protocolService service.ProtocolService) *ProtocolHandler {
	return &ProtocolHandler{protocolService: protocolService}
}

// --- DTOs ---

type ProtocolStatus string

const (
	ProtocolStatusDraft ProtocolStatus = "draft"
	ProtocolStatusSent  ProtocolStatus = "sent"
)

type ProtocolResponse struct {
	service.ProtocolView
	Status ProtocolStatus `json:"status"`
	Active bool           `json:"active"`
}

type DashboardResponse struct {
	ActiveCount  int                `json:"active_count"`
	ExpiredCount int                `json:"expired_count"`
	Recent       []ProtocolResponse `json:"recent"`
}

// MapProtocolToResponse converts a joined protocol to ProtocolResponse DTO.
func MapProtocolToResponse(p *service.ProtocolView, now time.Time) ProtocolResponse {
	if p == nil {
		return ProtocolResponse{}
	}
	status := ProtocolStatusDraft
	if p.IsSent() {
		status = ProtocolStatusSent
	}
	return ProtocolResponse{ProtocolView: *p, Status: status, Active: p.IsActiveAt(now)}
}

func MapProtocolsToResponse(protocols []service.ProtocolView, now time.Time) []ProtocolResponse {
	responses := make([]ProtocolResponse, len(protocols))
	for i := range protocols {
		responses[i] = MapProtocolToResponse(&protocols[i], now)
	}
	return responses
}

// --- Handler Methods ---

// ListProtocols godoc
// @Summary List protocols
// @Description Lists protocols, optionally filtered by customer name.
// @Tags Protocols
// @Produce json
// @Security BearerAuth
// @Param q query string false "Customer name filter"
// @Success 200 {array} ProtocolResponse
// @Router /protocols [get]
func (h *ProtocolHandler) ListProtocols(c *gin.Context) {
	protocols := h.protocolService.List(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, MapProtocolsToResponse(protocols, nowFunc()))
}

// CreateProtocol godoc
// @Summary Create a protocol
// @Tags Protocols
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param protocol body service.ProtocolInput true "Protocol details"
// @Success 201 {object} ProtocolResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Router /protocols [post]
func (h *ProtocolHandler) CreateProtocol(c *gin.Context) {
	var req service.ProtocolInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	p, err := h.protocolService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, MapProtocolToResponse(p, nowFunc()))
}

func (h *ProtocolHandler) GetProtocol(c *gin.Context) {
	p, err := h.protocolService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, MapProtocolToResponse(p, nowFunc()))
}

func (h *ProtocolHandler) UpdateProtocol(c *gin.Context) {
	var req service.ProtocolUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	p, err := h.protocolService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, MapProtocolToResponse(p, nowFunc()))
}

func (h *ProtocolHandler) DeleteProtocol(c *gin.Context) {
	if err := h.protocolService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportProtocol godoc
// @Summary Export a protocol
// @Description Renders the protocol to PDF, archives it and marks the protocol sent.
// @Tags Protocols
// @Produce json
// @Security BearerAuth
// @Param id path string true "Protocol ID"
// @Success 200 {object} service.ExportResult
// @Failure 404 {object} gin.H "Protocol not found"
// @Failure 422 {object} gin.H "Protocol cannot be exported (e.g. customer deleted)"
// @Router /protocols/{id}/export [post]
func (h *ProtocolHandler) ExportProtocol(c *gin.Context) {
	res, err := h.protocolService.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, http.StatusUnprocessableEntity)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewProtocol streams the rendered PDF without marking the protocol sent.
func (h *ProtocolHandler) PreviewProtocol(c *gin.Context) {
	out, err := h.protocolService.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, http.StatusUnprocessableEntity)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	c.Data(http.StatusOK, "application/pdf", out.Data)
}

// GetDashboard returns the active/expired counts and the latest protocols.
func (h *ProtocolHandler) GetDashboard(c *gin.Context) {
	d := h.protocolService.Dashboard(c.Request.Context())
	c.JSON(http.StatusOK, DashboardResponse{
		ActiveCount:  d.ActiveCount,
		ExpiredCount: d.ExpiredCount,
		Recent:       MapProtocolsToResponse(d.Recent, nowFunc()),
	})
}
