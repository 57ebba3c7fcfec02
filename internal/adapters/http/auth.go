package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/LiveTalk/internal/auth"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	bootstrap *auth.Bootstrap
	tokens    *auth.Tokens
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Account *domain.Account `json:"account"`
	Token   string          `json:"token"`
}

func (h *authHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.authenticate(c, auth.Request{Mode: auth.ModeLogin, Email: req.Email, Password: req.Password})
}

func (h *authHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.authenticate(c, auth.Request{Mode: auth.ModeRegister, Email: req.Email, Password: req.Password, DisplayName: req.Name})
}

func (h *authHandler) authenticate(c *gin.Context, req auth.Request) {
	acc, err := h.bootstrap.Authenticate(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	token, err := h.tokens.Issue(acc.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	sess := sessions.Default(c)
	sess.Set(sessionAccountKey, acc.ID)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
	}
	status := http.StatusOK
	if req.Mode == auth.ModeRegister {
		status = http.StatusCreated
	}
	c.JSON(status, authResponse{Account: acc, Token: token})
}

func (h *authHandler) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear session")
	}
	c.Status(http.StatusNoContent)
}

func (h *authHandler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentAccount(c))
}

// writeAuthError maps bootstrap failures to responses. Credential failures share
// one message so callers cannot probe which emails exist.
func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill in all fields", "code": "invalid_input"})
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNoSuchAccount):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password", "code": "invalid_credentials"})
	case errors.Is(err, domain.ErrEmailInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "code": "email_in_use"})
	case errors.Is(err, auth.ErrRecordMissingAfterAuth):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account profile is missing", "code": "account_record_missing"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("authenticate")
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication unavailable", "code": "upstream"})
	}
}
