package public

import (
	handlershared "github.com/cafe-next/internal/http/handlers/shared"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

var orderErrorRules = []handlershared.MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Msg: "order not found"},
	{Target: service.ErrOrderItemNotFound, Code: response.CodeNotFound, Msg: "order item not found"},
	{Target: service.ErrLedgerExhausted, Code: response.CodeConflict, Msg: "voucher usage exhausted"},
	{Target: service.ErrUserRequired, Code: response.CodeBadRequest, Msg: "user is required"},
}

var voucherErrorRules = []handlershared.MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Msg: "order not found"},
	{Target: service.ErrPreviewAmountEmpty, Code: response.CodeBadRequest, Msg: "subtotal or order_id is required"},
	{Target: service.ErrUserRequired, Code: response.CodeBadRequest, Msg: "user is required"},
}

func respondOrderError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, orderErrorRules, response.CodeInternal, "order operation failed")
}

func respondVoucherError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, voucherErrorRules, response.CodeInternal, "voucher operation failed")
}
