package controller

import (
	"bytes"
	"errors"
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// GetResults godoc
// @Summary 成绩排名
// @Description 按分数降序、提交时间升序
// @Tags 成绩与监控
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ResultRow}
// @Router /admin/results [get]
func (c *ReportController) GetResults(ctx *gin.Context) {
	rows, err := c.ReportService.Results(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// ExportResults godoc
// @Summary 导出成绩
// @Description 成绩排名和切屏汇总，csv 或 xlsx
// @Tags 成绩与监控
// @Produce  octet-stream
// @Security ApiKeyAuth
// @Param   format query string false "csv 或 xlsx，默认 csv"
// @Success 200 {file} file
// @Failure 400 {object} util.Response "格式不支持"
// @Router /admin/results/export [get]
func (c *ReportController) ExportResults(ctx *gin.Context) {
	admin := util.GetUserFromContext(ctx)

	var buf bytes.Buffer
	filename, mime, err := c.ReportService.Export(ctx.Request.Context(), admin.Username, ctx.Query("format"), &buf)
	if err != nil {
		if errors.Is(err, util.ErrInvalidInput) {
			util.BadRequest(ctx, "Unsupported format")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Data(http.StatusOK, mime, buf.Bytes())
}

// ArchiveResults godoc
// @Summary 归档成绩
// @Description 生成 xlsx 报表写入本地目录或 MinIO
// @Tags 成绩与监控
// @Produce  json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response{data=object}
// @Router /admin/results/archive [post]
func (c *ReportController) ArchiveResults(ctx *gin.Context) {
	admin := util.GetUserFromContext(ctx)

	url, err := c.ReportService.Archive(ctx.Request.Context(), admin.Username)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}

// GetTabSwitches godoc
// @Summary 切屏汇总
// @Description 按用户名和 IP 分组，最大切屏次数降序
// @Tags 成绩与监控
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TabSwitchSummary}
// @Router /admin/tab-switches [get]
func (c *ReportController) GetTabSwitches(ctx *gin.Context) {
	rows, err := c.ReportService.TabSwitches(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// GetSessions godoc
// @Summary 登录会话
// @Tags 成绩与监控
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.SessionRow}
// @Router /admin/sessions [get]
func (c *ReportController) GetSessions(ctx *gin.Context) {
	rows, err := c.ReportService.Sessions(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}
