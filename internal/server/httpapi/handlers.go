package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/grammarcheck/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (s *Server) credentialKey() string {
	return s.sessions.Strategy()
}

func (s *Server) register(c *gin.Context) {
	if c.ContentType() != binding.MIMEJSON {
		s.abortWithError(c, errBadContentType)
		return
	}

	var form registerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.abortWithError(c, bindError(err, "missing email or password"))
		return
	}

	pair, err := s.sessions.Register(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token":    pair.AccessToken,
		s.credentialKey(): pair.SessionToken,
	})
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.abortWithError(c, bindError(err, ""))
		return
	}

	pair, err := s.sessions.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":    pair.AccessToken,
		s.credentialKey(): pair.SessionToken,
		"email":           pair.Email,
	})
}

func (s *Server) refreshToken(c *gin.Context) {
	var form sessionTokenForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.abortWithError(c, bindError(err, ""))
		return
	}

	pair, err := s.sessions.RefreshAccessToken(c.Request.Context(), form.token(s.sessions.Strategy()))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": pair.AccessToken,
		"email":        pair.Email,
	})
}

// logout always succeeds. Unknown or missing credentials are ignored.
func (s *Server) logout(c *gin.Context) {
	var form sessionTokenForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug(c.Request.Context(), "logout body ignored", "error", err)
	}

	if token := form.token(s.sessions.Strategy()); token != "" {
		if err := s.sessions.Logout(c.Request.Context(), token); err != nil {
			s.logger.Error(c.Request.Context(), "logout failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) changePassword(c *gin.Context) {
	var form changePasswordForm
	if err := c.ShouldBind(&form); err != nil {
		s.abortWithError(c, bindError(err, "missing email"))
		return
	}

	err := s.sessions.ChangePassword(c.Request.Context(), form.Email, form.OldPassword, form.NewPassword, form.ConfirmPassword)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (s *Server) checkGrammar(c *gin.Context) {
	s.serveText(c, s.grammar.CheckGrammar, false)
}

func (s *Server) suggestImprovement(c *gin.Context) {
	s.serveText(c, s.grammar.SuggestImprovement, true)
}

type textOp func(ctx context.Context, text string) (*services.TextResult, error)

func (s *Server) serveText(c *gin.Context, op textOp, withExplanation bool) {
	var form textForm
	if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
		s.abortWithError(c, bindError(err, ""))
		return
	}

	res, err := op(c.Request.Context(), form.Text)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	if u := currentUser(c); u != nil {
		s.logger.Debug(c.Request.Context(), "text processed", "user_id", u.ID, "path", c.FullPath())
	}

	body := gin.H{
		"original":  res.Original,
		"corrected": res.Corrected,
	}
	if withExplanation {
		body["explanation"] = res.Explanation
	}
	c.JSON(http.StatusOK, body)
}
