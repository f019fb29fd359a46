package transport

import (
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/wallet"
	"net/http"
)

// SessionLookup resolves a wallet session id.
type SessionLookup interface {
	Get(id string) (*wallet.Session, error)
}

// WalletSessionMiddleware resolves the x-wallet-session header and attaches
// the session to the request context.
func WalletSessionMiddleware(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderWalletSession)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "wallet session required", "code": "SESSION_REQUIRED"})
			return
		}
		session, err := sessions.Get(id)
		if err != nil {
			logging.Log.Warnf("WALLET: unknown session on %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "wallet session not found or expired", "code": "SESSION_NOT_FOUND"})
			return
		}
		c.Request = c.Request.WithContext(wallet.WithSession(c.Request.Context(), session))
		c.Next()
	}
}
