package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// requestLogger logs every request once it has been served.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error(c.Request.Context(), "panic",
					"error", err,
					"path", c.Request.URL.Path,
					"request_id", requestid.Get(c),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": common.ErrorInternal.Error()})
			}
		}()
		c.Next()
	}
}

// cors answers preflight requests and echoes allowed origins.
func cors(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && isAllowedOrigin(origin, allowedOrigins) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isAllowedOrigin(origin string, allowed []string) bool {
	for _, a := range allowed {
		if origin == a || a == "*" {
			return true
		}
	}
	return false
}

// rateLimit applies the limiter per route and client IP. A failing limiter
// lets the request through.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		key := c.FullPath() + "|" + c.ClientIP()
		allowed, retryAfter, err := s.limiter.Allow(c.Request.Context(), key, s.now())
		if err != nil {
			s.logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			s.metrics.rateLimited.WithLabelValues(c.FullPath()).Inc()
			s.abortWithError(c, errRateLimited)
			return
		}
		c.Next()
	}
}

// bearerAuth requires "Authorization: Bearer <access token>" and stores the
// resolved user in the context.
func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			s.abortWithError(c, common.ErrMissingAuthHeader)
			return
		}
		token := strings.TrimPrefix(header, common.BearerPrefix)
		if token == "" {
			s.abortWithError(c, common.ErrMissingAuthHeader)
			return
		}

		user, err := s.sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.abortWithError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// apiKeyAuth resolves the user from the :api_key path parameter.
func (s *Server) apiKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.sessions.AuthenticateAPIKey(c.Request.Context(), c.Param("api_key"))
		if err != nil {
			s.abortWithError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
