package middleware

import (
	"net/http"

	"seckill/internal/auth"

	"github.com/gin-gonic/gin"
)

// 已验证用户ID在 gin context 中的键。
const userIDKey = "auth_user_id"

// RequireAuth 校验 Authorization 头中的 Bearer 凭证，
// 通过后把 user_id 放进 context 供后续 handler 取用。
func RequireAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "凭证无效或已过期",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID 取出 RequireAuth 写入的用户标识。
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
