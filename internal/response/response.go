package response

import (
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-trainee/internal/model"
)

// Result values of the envelope.
const (
	ResultOK   = model.ResultSuccess
	ResultFail = 0
)

// Success sends a successful envelope with the given status code and data.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, model.ResponseAPI[any]{
		Code:        "SUCCESS",
		Result:      ResultOK,
		Description: "",
		Data:        data,
	})
}

// Fail sends an error envelope. Business failures keep HTTP 200 the way the
// TraineeLecture API does; transport-level failures use their status code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, failure(code, GetMessage(code)))
}

// FailWithDetail sends an error envelope with a custom description.
func FailWithDetail(c *gin.Context, statusCode int, code ErrCode, detail string) {
	c.JSON(statusCode, failure(code, detail))
}

// AbortFail aborts the middleware chain and sends an error envelope.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, failure(code, GetMessage(code)))
}

func failure(code ErrCode, description string) model.ResponseAPI[any] {
	return model.ResponseAPI[any]{
		Code:        string(code),
		Result:      ResultFail,
		Description: description,
	}
}
