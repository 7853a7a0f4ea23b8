package v1

import (
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-gonic/gin"
)

type apiHandler struct {
	auth *service.AuthService
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *apiHandler) token(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.auth.IssueTokens(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *apiHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *apiHandler) me(c *gin.Context) {
	respondOK(c, currentIdentity(c))
}
