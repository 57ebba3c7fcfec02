package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dkeye/LiveTalk/internal/auth"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	sessionAccountKey = "account_id"
	ctxAccountKey     = "account"
)

// RequireAccount resolves the caller from a bearer token or, failing that, the
// session cookie, and stores the loaded account in the gin context.
func RequireAccount(tokens *auth.Tokens, accounts auth.AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			parsed, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			id = parsed
		} else if v, ok := sessions.Default(c).Get(sessionAccountKey).(string); ok {
			id = v
		}
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		acc, err := accounts.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Str("account", id).Msg("load account")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(ctxAccountKey, acc)
		c.Next()
	}
}

func currentAccount(c *gin.Context) *domain.Account {
	v, ok := c.Get(ctxAccountKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*domain.Account)
	return acc
}
