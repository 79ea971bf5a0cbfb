package http

import (
	"github.com/gin-gonic/gin"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
)

type quizRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type questionRequest struct {
	Prompt        string              `json:"prompt"`
	Type          domain.QuestionType `json:"type"`
	Options       []string            `json:"options"`
	CorrectAnswer string              `json:"correct_answer"`
}

type assignUsersRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

type assignQuizzesRequest struct {
	QuizIDs []string `json:"quiz_ids" binding:"required"`
}

type assignedResponse struct {
	Inserted int `json:"inserted"`
}

// AdminHandler serves the /admin endpoints.
type AdminHandler struct {
	admin *app.AdminService
}

func NewAdminHandler(admin *app.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.admin.ListQuizzes(c.Request.Context(), authFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, quizzes)
}

func (h *AdminHandler) CreateQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	quiz, err := h.admin.CreateQuiz(c.Request.Context(), authFrom(c), req.Title, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, quiz)
}

func (h *AdminHandler) UpdateQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	quiz, err := h.admin.UpdateQuiz(c.Request.Context(), authFrom(c), c.Param("id"), req.Title, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, quiz)
}

func (h *AdminHandler) DeleteQuiz(c *gin.Context) {
	if err := h.admin.DeleteQuiz(c.Request.Context(), authFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	noContent(c)
}

func (h *AdminHandler) ListQuestions(c *gin.Context) {
	questions, err := h.admin.ListQuestions(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, questions)
}

func (h *AdminHandler) AddQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	question, err := h.admin.AddQuestion(c.Request.Context(), authFrom(c), c.Param("id"), domain.Question{
		Prompt:        req.Prompt,
		Type:          req.Type,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, question)
}

func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	if err := h.admin.DeleteQuestion(c.Request.Context(), authFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	noContent(c)
}

// Assignees handles GET /admin/quizzes/:id/assignments.
func (h *AdminHandler) Assignees(c *gin.Context) {
	assignees, err := h.admin.QuizAssignees(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, assignees)
}

// Assign handles POST /admin/quizzes/:id/assignments.
func (h *AdminHandler) Assign(c *gin.Context) {
	var req assignUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.admin.Assign(c.Request.Context(), authFrom(c), c.Param("id"), req.UserIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, assignedResponse{Inserted: n})
}

func (h *AdminHandler) QuizResults(c *gin.Context) {
	results, err := h.admin.QuizResults(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, results)
}

func (h *AdminHandler) Unassign(c *gin.Context) {
	if err := h.admin.Unassign(c.Request.Context(), authFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	noContent(c)
}

// Pending handles GET /admin/pending.
func (h *AdminHandler) Pending(c *gin.Context) {
	pending, err := h.admin.ReconcilePending(c.Request.Context(), authFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if pending == nil {
		pending = []domain.PendingAssignment{}
	}
	ok(c, pending)
}

// AssignPending handles POST /admin/pending/assign.
func (h *AdminHandler) AssignPending(c *gin.Context) {
	var pair domain.Pair
	if err := c.ShouldBindJSON(&pair); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.admin.AssignPending(c.Request.Context(), authFrom(c), pair)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, assignedResponse{Inserted: n})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context(), authFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, users)
}

func (h *AdminHandler) UserOverview(c *gin.Context) {
	overview, err := h.admin.UserOverview(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, overview)
}

// AssignQuizzes handles POST /admin/users/:id/assignments.
func (h *AdminHandler) AssignQuizzes(c *gin.Context) {
	var req assignQuizzesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.admin.AssignQuizzes(c.Request.Context(), authFrom(c), c.Param("id"), req.QuizIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, assignedResponse{Inserted: n})
}
