package handler

import (
	"github.com/gin-gonic/gin"

	resp "go-gin-gorm-crm/internal/transport/http/response"
)

type message = resp.Message

func msg(s string) message { return message{Message: s} }

// created 201 响应体：{message, id, <entity>Id}
type created = gin.H

func newCreated(entity string, id uint, text string) created {
	return resp.Created(entity, id, text)
}

// companyRef 路径参数 :companyId
type companyRef struct {
	CompanyID uint `uri:"companyId" binding:"required" json:"-"`
}
