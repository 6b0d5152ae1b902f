package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/service"
)

type DemandsHandler struct{ svc service.DemandService }

func NewDemandsHandler(svc service.DemandService) *DemandsHandler {
	return &DemandsHandler{svc: svc}
}

// List godoc
// @Summary List demands
// @Tags demands
// @Produce json
// @Param completed query bool false "Completed instead of open"
// @Param q query string false "Free-text filter"
// @Param dq query string false "YYYY-MM month filter"
// @Param assigned_to query string false "Filter by assignee (managers only)"
// @Param page query int false "Page number"
// @Success 200 {object} dto.DemandListResponse
// @Router /v1/demands [get]
func (h *DemandsHandler) List(c *gin.Context) {
	filter := dto.DemandFilter{
		Completed: c.Query("completed") == "true",
		Query:     c.Query("q"),
		Month:     c.Query("dq"),
		Page:      queryPage(c),
	}
	if raw := c.Query("assigned_to"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.AssignedTo = &id
		}
	}

	resp, err := h.svc.List(c.Request.Context(), viewerFrom(c), filter)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DemandsHandler) Create(c *gin.Context) {
	var req dto.CreateDemandRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), viewerFrom(c), req)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DemandsHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateDemandRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DemandsHandler) Complete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Complete(c.Request.Context(), id)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DemandsHandler) Reopen(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Reopen(c.Request.Context(), id)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists the append-only snapshots of one demand, newest first.
func (h *DemandsHandler) History(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.History(c.Request.Context(), id, queryPage(c))
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Workload shows per-user open demand counts by week, for assignment
// balancing.
func (h *DemandsHandler) Workload(c *gin.Context) {
	resp, err := h.svc.Workload(c.Request.Context())
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
