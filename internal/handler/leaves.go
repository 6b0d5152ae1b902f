package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/service"
)

type LeavesHandler struct{ svc service.LeaveService }

func NewLeavesHandler(svc service.LeaveService) *LeavesHandler { return &LeavesHandler{svc: svc} }

// Board godoc
// @Summary Availability board
// @Tags leaves
// @Produce json
// @Param q query string false "Free-text filter"
// @Param page query int false "Page number"
// @Success 200 {object} dto.LeaveBoardResponse
// @Router /v1/leaves [get]
func (h *LeavesHandler) Board(c *gin.Context) {
	resp, err := h.svc.Board(c.Request.Context(), viewerFrom(c), c.Query("q"), queryPage(c))
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LeavesHandler) Create(c *gin.Context) {
	var req dto.CreateLeaveRequest
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

func (h *LeavesHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLeaveRequest
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

func (h *LeavesHandler) Interrupt(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Interrupt(c.Request.Context(), id)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LeavesHandler) Resume(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Resume(c.Request.Context(), id)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists a user's leave records; ?interrupted=true switches to the
// interrupted set.
func (h *LeavesHandler) History(c *gin.Context) {
	userID, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	interrupted := c.Query("interrupted") == "true"
	resp, err := h.svc.History(c.Request.Context(), userID, interrupted, queryPage(c))
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
