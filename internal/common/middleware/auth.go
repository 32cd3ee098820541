package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const userCtxKey = "user"

// RequireAdmin allows only operators listed in ADMIN_IDS. It must run after
// TelegramInitData.
func RequireAdmin(adminIDs []int64) gin.HandlerFunc {
	allowed := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}

	return func(c *gin.Context) {
		user, exists := c.Get(userCtxKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
			return
		}

		telegramUser, ok := user.(initdata.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user data format"})
			return
		}

		if _, ok := allowed[telegramUser.ID]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Set("user_id", telegramUser.ID)
		c.Next()
	}
}

// CurrentUser returns the Mini App user stored by TelegramInitData.
func CurrentUser(c *gin.Context) (initdata.User, bool) {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return initdata.User{}, false
	}
	u, ok := v.(initdata.User)
	return u, ok
}
