package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "ok",
		Data: data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: -1,
		Msg:  msg,
		Data: data,
	})
}
