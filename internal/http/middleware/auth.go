package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/repairdesk/internal/auth"
	"github.com/nurpe/repairdesk/internal/model"
)

const principalKey = "principal"

// Auth requires a bearer token when the parser has a secret. Without one
// every request runs as the anonymous operator.
func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !parser.Enabled() {
			c.Set(principalKey, model.Operator{})
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		operator, err := parser.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(principalKey, operator)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Operator, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Operator{}, false
	}
	operator, ok := v.(model.Operator)
	return operator, ok
}
