package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
)

// SetupKeyHeader carries the store API key on /setup requests.
const SetupKeyHeader = "X-Setup-Key"

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		logger.Info("request", fields...)
	}
}

// cors allows the configured origins; an empty list allows any.
func cors(allowed []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowOrigin := ""
		if len(origins) == 0 || origins["*"] {
			allowOrigin = "*"
		} else if origin != "" && origins[origin] {
			allowOrigin = origin
		}
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SetupKeyHeader)
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// recovery turns a panic into an envelope. Panics that mention database
// objects point the caller at setup.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := fmt.Sprint(recovered)
		logger.Error("panic recovered", zap.String("panic", msg), zap.String("path", c.Request.URL.Path))
		if domain.LooksLikeSetupProblem(msg) {
			setupRequired(c, setupMessage)
			return
		}
		fail(c, http.StatusInternalServerError, "something went wrong, please retry")
	})
}

// authenticate resolves the bearer token into an app.AuthContext on the
// request context. When allowQuery is set the token may also come from the
// "token" query parameter, which browsers need for WebSocket upgrades.
func authenticate(auth *app.AuthService, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			fail(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		authCtx, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Request = c.Request.WithContext(app.WithAuth(c.Request.Context(), authCtx))
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authFrom(c).RequireAdmin(); err != nil {
			writeError(c, err)
			return
		}
		c.Next()
	}
}

// requireSetupKey guards operator endpoints with the store API key.
func requireSetupKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(SetupKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			fail(c, http.StatusUnauthorized, "invalid setup key")
			return
		}
		c.Next()
	}
}

func authFrom(c *gin.Context) app.AuthContext {
	authCtx, _ := app.AuthFrom(c.Request.Context())
	return authCtx
}
