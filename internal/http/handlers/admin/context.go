package admin

import (
	"strings"

	handlershared "github.com/cafe-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

// adminActorName 操作人标识，用于任务载荷与日志
func adminActorName(c *gin.Context) string {
	if value, ok := c.Get("username"); ok {
		if name, ok := value.(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return "admin"
}
