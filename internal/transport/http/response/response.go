package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
)

type ErrorBody struct {
	Error string `json:"error"`
}

type Message struct {
	Message string `json:"message"`
}

// Created 创建成功：{message, id, <entity>Id}
func Created(entity string, id uint, msg string) gin.H {
	return gin.H{"message": msg, "id": id, entity + "Id": id}
}

// Abort 以默认或自定义提示中断请求
func Abort(c *gin.Context, status int, msg string) {
	if msg == "" {
		msg = MsgMap[status]
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg})
}

// Fail 统一错误出口；内部错误挂到 c.Errors 交给访问日志，客户端只看到通用提示
func Fail(c *gin.Context, err error) {
	k := domain.KindOf(err)
	status := StatusOf(k)
	if k == domain.KindInternal {
		_ = c.Error(err)
		Abort(c, http.StatusInternalServerError, "")
		return
	}
	Abort(c, status, domain.MessageOf(err))
}
