package shared

import (
	"fmt"
	"time"

	"github.com/cafe-next/internal/cache"

	"github.com/gin-gonic/gin"
)

// AvailableVouchersCacheTTL 用户可用券列表缓存时长
const AvailableVouchersCacheTTL = 30 * time.Second

// AvailableVouchersCacheKey 用户可用券列表缓存键
func AvailableVouchersCacheKey(userID uint) string {
	return fmt.Sprintf("vouchers:available:%d", userID)
}

// InvalidateAvailableVouchers 清除用户可用券缓存，失败仅记录日志
func InvalidateAvailableVouchers(c *gin.Context, userID uint) {
	if userID == 0 {
		return
	}
	if err := cache.Del(c.Request.Context(), AvailableVouchersCacheKey(userID)); err != nil {
		RequestLog(c).Warnw("available_vouchers_cache_invalidate_failed", "user_id", userID, "error", err)
	}
}
