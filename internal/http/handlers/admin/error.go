package admin

import (
	handlershared "github.com/cafe-next/internal/http/handlers/shared"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var adminOrderErrorRules = []handlershared.MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Msg: "order not found"},
	{Target: service.ErrLedgerExhausted, Code: response.CodeConflict, Msg: "voucher usage exhausted"},
}

var adminVoucherErrorRules = []handlershared.MappedError{
	{Target: service.ErrVoucherNotFound, Code: response.CodeNotFound, Msg: "voucher not found"},
	{Target: service.ErrVoucherInvalid, Code: response.CodeBadRequest, Msg: "voucher invalid"},
	{Target: service.ErrVoucherWindow, Code: response.CodeBadRequest, Msg: "voucher end date must be after start date"},
	{Target: service.ErrVoucherCodeExists, Code: response.CodeConflict, Msg: "voucher code already exists"},
	{Target: service.ErrVoucherNotPrivate, Code: response.CodeBadRequest, Msg: "public vouchers cannot be assigned"},
	{Target: service.ErrUserRequired, Code: response.CodeBadRequest, Msg: "user_id is required"},
	{Target: service.ErrQueueUnavailable, Code: response.CodeInternal, Msg: "queue unavailable"},
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondOrderError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, adminOrderErrorRules, response.CodeInternal, "order operation failed")
}

func respondVoucherError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, adminVoucherErrorRules, response.CodeInternal, "voucher operation failed")
}
