package http

import (
	"github.com/gin-gonic/gin"

	"quiz-delivery-service/internal/app"
)

type promoteRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Email  string `json:"email"`
}

// SetupHandler serves the operator endpoints under /setup.
type SetupHandler struct {
	setup *app.SetupService
}

func NewSetupHandler(setup *app.SetupService) *SetupHandler {
	return &SetupHandler{setup: setup}
}

func (h *SetupHandler) InitSchema(c *gin.Context) {
	if err := h.setup.InitSchema(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	ok(c, h.setup.Diagnose(c.Request.Context()))
}

func (h *SetupHandler) PromoteAdmin(c *gin.Context) {
	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	account, err := h.setup.PromoteAdmin(c.Request.Context(), req.UserID, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, account)
}

func (h *SetupHandler) Diagnostics(c *gin.Context) {
	ok(c, h.setup.Diagnose(c.Request.Context()))
}
