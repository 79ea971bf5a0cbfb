package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-delivery-service/internal/app"
)

// RouterDeps are the services the HTTP surface dispatches to.
type RouterDeps struct {
	Auth           *app.AuthService
	Admin          *app.AdminService
	Users          *app.UserService
	Setup          *app.SetupService
	SetupKey       string
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(recovery(logger), requestLogger(logger), cors(deps.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	authH := NewAuthHandler(deps.Auth)
	authGroup := router.Group("/auth")
	authGroup.POST("/signup", authH.SignUp)
	authGroup.POST("/signin", authH.SignIn)
	session := authGroup.Group("", authenticate(deps.Auth, false))
	session.POST("/signout", authH.SignOut)
	session.GET("/me", authH.Me)

	adminH := NewAdminHandler(deps.Admin)
	admin := router.Group("/admin", authenticate(deps.Auth, false), requireAdmin())
	admin.GET("/quizzes", adminH.ListQuizzes)
	admin.POST("/quizzes", adminH.CreateQuiz)
	admin.PATCH("/quizzes/:id", adminH.UpdateQuiz)
	admin.DELETE("/quizzes/:id", adminH.DeleteQuiz)
	admin.GET("/quizzes/:id/questions", adminH.ListQuestions)
	admin.POST("/quizzes/:id/questions", adminH.AddQuestion)
	admin.GET("/quizzes/:id/assignments", adminH.Assignees)
	admin.POST("/quizzes/:id/assignments", adminH.Assign)
	admin.GET("/quizzes/:id/results", adminH.QuizResults)
	admin.DELETE("/questions/:id", adminH.DeleteQuestion)
	admin.DELETE("/assignments/:id", adminH.Unassign)
	admin.GET("/pending", adminH.Pending)
	admin.POST("/pending/assign", adminH.AssignPending)
	admin.GET("/users", adminH.ListUsers)
	admin.GET("/users/:id", adminH.UserOverview)
	admin.POST("/users/:id/assignments", adminH.AssignQuizzes)

	userH := NewUserHandler(deps.Users)
	me := router.Group("/me", authenticate(deps.Auth, false))
	me.GET("/quizzes", userH.Dashboard)
	me.GET("/quizzes/:id", userH.Quiz)
	me.POST("/quizzes/:id/payments", userH.Pay)
	me.POST("/quizzes/:id/submissions", userH.Submit)
	me.GET("/results", userH.Results)

	wsH := NewWSHandler(deps.Users, logger)
	router.GET("/ws/quizzes/:id", authenticate(deps.Auth, true), wsH.ServeWS)

	if deps.Setup != nil {
		setupH := NewSetupHandler(deps.Setup)
		setup := router.Group("/setup", requireSetupKey(deps.SetupKey))
		setup.POST("/schema", setupH.InitSchema)
		setup.POST("/admins", setupH.PromoteAdmin)
		setup.GET("/diagnostics", setupH.Diagnostics)
	}
	return router
}
