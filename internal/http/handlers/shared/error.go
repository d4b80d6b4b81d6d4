package shared

import (
	"errors"

	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get(response.RequestIDKey); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		log := RequestLog(c)
		if code >= response.CodeInternal {
			log.Errorw("handler_error", "code", code, "message", msg, "error", err)
		} else {
			log.Debugw("handler_rejected", "code", code, "message", msg, "error", err)
		}
	}
	response.Error(c, code, msg)
}

// MappedError 业务错误到接口错误响应的映射
type MappedError struct {
	Target error
	Code   int
	Msg    string
}

// RespondServiceError 按错误类型返回响应：
// 校验错误附带问题列表，状态冲突附带当前状态，优惠券拒绝附带原因码，其余按映射表处理。
func RespondServiceError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackMsg string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		response.ErrorWithData(c, response.CodeBadRequest, service.ErrValidation.Error(), gin.H{
			"issues": validationErr.Issues,
		})
		return
	}
	var conflictErr *service.StateConflictError
	if errors.As(err, &conflictErr) {
		response.ErrorWithData(c, response.CodeConflict, service.ErrStateConflict.Error(), gin.H{
			"status": conflictErr.Status.String(),
			"event":  string(conflictErr.Event),
		})
		return
	}
	var rejection *service.VoucherRejection
	if errors.As(err, &rejection) {
		response.ErrorWithData(c, response.CodeBadRequest, service.ErrVoucherRejected.Error(), gin.H{
			"reason": rejection.Reason,
			"code":   rejection.Code,
		})
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Msg, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackMsg, err)
}
