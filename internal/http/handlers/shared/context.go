package shared

import (
	"strconv"
	"strings"
	"time"

	"github.com/cafe-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUint 从上下文读取鉴权中间件写入的 uint 值并统一处理错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, key+" is invalid", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, key+" is invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, key+" has unexpected type", nil)
		return 0, false
	}
}

// ParsePathUint 解析路径中的正整数 ID，失败时返回 400。
func ParsePathUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		RespondError(c, response.CodeBadRequest, key+" is invalid", nil)
		return 0, false
	}
	return uint(parsed), true
}

// ParseTimeNullable 解析 RFC3339 时间，空串返回 nil。
func ParseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// BuildPagination 生成分页信息。
func BuildPagination(page, pageSize int, total int64) response.Pagination {
	return response.NewPagination(page, pageSize, total)
}
