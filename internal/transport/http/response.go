package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the response envelope shared by every endpoint.
type Body struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         string      `json:"error,omitempty"`
	SetupRequired bool        `json:"setup_required,omitempty"`
	Details       interface{} `json:"details,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Body{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, msg)
}

func setupRequired(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, Body{Error: msg, SetupRequired: true})
}
