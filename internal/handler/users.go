package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/service"
)

type UsersHandler struct{ svc service.UserService }

func NewUsersHandler(svc service.UserService) *UsersHandler { return &UsersHandler{svc: svc} }

// Register godoc
// @Summary Create an account with the default password
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.RegisterUserRequest true "New account"
// @Success 201 {object} dto.UserResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/users [post]
func (h *UsersHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List returns active accounts, or deactivated ones with ?active=false.
func (h *UsersHandler) List(c *gin.Context) {
	active := c.DefaultQuery("active", "true") != "false"
	resp, err := h.svc.List(c.Request.Context(), active, queryPage(c))
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), viewerFrom(c), id, req)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UsersHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *UsersHandler) setActive(c *gin.Context, active bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var err error
	if active {
		err = h.svc.Activate(c.Request.Context(), id)
	} else {
		err = h.svc.Deactivate(c.Request.Context(), id)
	}
	if err != nil {
		failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DisableMFA clears a user's second factor so they can re-enroll.
func (h *UsersHandler) DisableMFA(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DisableMFA(c.Request.Context(), id); err != nil {
		failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetPassword puts an account back on the default password.
func (h *UsersHandler) ResetPassword(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.ResetUserPassword(c.Request.Context(), id); err != nil {
		failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Profile returns the authenticated user's own account with the TOTP
// provisioning QR.
func (h *UsersHandler) Profile(c *gin.Context) {
	viewer := viewerFrom(c)
	resp, err := h.svc.Profile(c.Request.Context(), viewer.ID)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProfile edits the authenticated user's own fields. The service
// rejects any attempt to change one's own role.
func (h *UsersHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	viewer := viewerFrom(c)
	resp, err := h.svc.Update(c.Request.Context(), viewer, viewer.ID, req)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
