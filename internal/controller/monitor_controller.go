package controller

import (
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MonitorController struct {
	Hub *service.MonitorHub
}

func NewMonitorController(hub *service.MonitorHub) *MonitorController {
	return &MonitorController{Hub: hub}
}

// Stream godoc
// @Summary 实时监考
// @Description 升级为 WebSocket，推送登录、开考、交卷、切屏事件；浏览器可用 token 查询参数传令牌
// @Tags 监考
// @Security ApiKeyAuth
// @Param token query string false "JWT 令牌"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} util.Response
// @Router /admin/monitor/ws [get]
func (c *MonitorController) Stream(ctx *gin.Context) {
	admin := util.GetUserFromContext(ctx)
	c.Hub.ServeWs(ctx.Writer, ctx.Request, admin.Username)
}
