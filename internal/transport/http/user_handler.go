package http

import (
	"github.com/gin-gonic/gin"

	"quiz-delivery-service/internal/app"
)

type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

// UserHandler serves the quiz taker's /me endpoints.
type UserHandler struct {
	users *app.UserService
}

func NewUserHandler(users *app.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.users.Dashboard(c.Request.Context(), authFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, dashboard)
}

func (h *UserHandler) Quiz(c *gin.Context) {
	detail, err := h.users.QuizForUser(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, detail)
}

func (h *UserHandler) Pay(c *gin.Context) {
	payment, err := h.users.Pay(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, payment)
}

func (h *UserHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.users.Submit(c.Request.Context(), authFrom(c), c.Param("id"), req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, result)
}

func (h *UserHandler) Results(c *gin.Context) {
	results, err := h.users.MyResults(c.Request.Context(), authFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, results)
}
