package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lbc354/sgp/internal/apierror"
	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/service"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Authenticate with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyMFA godoc
// @Summary Complete login with a TOTP code
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.MFARequest true "Challenge and code"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/mfa [post]
func (h *AuthHandler) VerifyMFA(c *gin.Context) {
	var req dto.MFARequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.VerifyMFA(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	viewer := viewerFrom(c)
	if err := h.svc.ChangePassword(c.Request.Context(), viewer.ID, req); err != nil {
		failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPasswordReset always answers 202: the response never reveals
// whether the address belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	warnings, err := h.svc.RequestPasswordReset(c.Request.Context(), req)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"detail":   "if the address belongs to an account, a reset link has been sent",
		"warnings": warnings,
	})
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req dto.PasswordResetConfirm
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.svc.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
