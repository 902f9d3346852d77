package controller

import (
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingController struct {
	SettingService *service.SettingService
}

func NewSettingController(settingService *service.SettingService) *SettingController {
	return &SettingController{SettingService: settingService}
}

// SettingRequest 缺省字段取 30 分钟 / 10 题
// swagger:model SettingRequest
type SettingRequest struct {
	DurationMinutes  *int `json:"duration_minutes"`
	QuestionsPerExam *int `json:"questions_per_exam"`
}

// GetSettings godoc
// @Summary 获取考试设置
// @Tags 考试设置
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.ExamSetting}
// @Router /admin/settings [get]
func (c *SettingController) GetSettings(ctx *gin.Context) {
	settings, err := c.SettingService.Get(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// UpdateSettings godoc
// @Summary 修改考试设置
// @Description 只影响之后开考的学生
// @Tags 考试设置
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SettingRequest true "考试时长与题量"
// @Success 200 {object} util.Response{data=model.ExamSetting}
// @Failure 400 {object} util.Response "数值无效"
// @Router /admin/settings [put]
func (c *SettingController) UpdateSettings(ctx *gin.Context) {
	var req SettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid values")
		return
	}

	duration, count := 30, 10
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	if req.QuestionsPerExam != nil {
		count = *req.QuestionsPerExam
	}

	admin := util.GetUserFromContext(ctx)
	settings, err := c.SettingService.Update(ctx.Request.Context(), admin.Username, duration, count)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}
