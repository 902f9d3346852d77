package controller

import (
	"errors"
	"io"
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// SubmitRequest 题目 id -> 选项字母
// swagger:model SubmitRequest
type SubmitRequest struct {
	Answers map[string]string `json:"answers" binding:"dive,omitempty,option"`
}

// TabSwitchRequest swagger:model TabSwitchRequest
type TabSwitchRequest struct {
	Count *int `json:"count"`
}

// StartExam godoc
// @Summary 开始考试
// @Description 首次进入随机抽题并保存，刷新页面返回同一套题目
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ExamPaper} "试卷"
// @Failure 400 {object} util.Response "题库题目不足"
// @Failure 401 {object} util.Response "未登录"
// @Failure 403 {object} util.Response "已参加过考试"
// @Router /exam/start [get]
func (c *ExamController) StartExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	paper, err := c.ExamService.Start(ctx.Request.Context(), user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, paper)
}

// SubmitExam godoc
// @Summary 交卷
// @Description 评分并记录成绩，交卷后不能再次登录
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SubmitRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult} "得分"
// @Failure 400 {object} util.Response "考试未开始或答案无效"
// @Failure 403 {object} util.Response "已参加过考试"
// @Router /exam/submit [post]
func (c *ExamController) SubmitExam(ctx *gin.Context) {
	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		if validator.HasTag(err, validator.OptionTag) {
			util.BadRequest(ctx, "Invalid answer")
			return
		}
		util.BadRequest(ctx, "Invalid input")
		return
	}

	user := util.GetUserFromContext(ctx)
	result, err := c.ExamService.Submit(ctx.Request.Context(), user.UserID, req.Answers, util.GetClientIP(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ExamStatus godoc
// @Summary 考试状态
// @Description 是否已交卷、是否已开考及开考时间，用于恢复倒计时
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ExamStatus}
// @Router /exam/status [get]
func (c *ExamController) ExamStatus(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	status, err := c.ExamService.Status(ctx.Request.Context(), user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// TabSwitch godoc
// @Summary 上报切屏次数
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body TabSwitchRequest false "累计切屏次数，默认 1"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "次数无效"
// @Router /tab-switch [post]
func (c *ExamController) TabSwitch(ctx *gin.Context) {
	var req TabSwitchRequest
	// 空请求体按一次切屏处理
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.BadRequest(ctx, "Invalid input")
		return
	}

	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	user := util.GetUserFromContext(ctx)
	if err := c.ExamService.RecordTabSwitch(ctx.Request.Context(), user.UserID, count, util.GetClientIP(ctx)); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// TabSwitchCount godoc
// @Summary 查询切屏次数
// @Description 未登录时返回 0
// @Tags 考试
// @Produce  json
// @Success 200 {object} util.Response{data=object}
// @Router /tab-switch-count [get]
func (c *ExamController) TabSwitchCount(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Success(ctx, gin.H{"count": 0})
		return
	}

	count, err := c.ExamService.TabSwitchCount(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}
