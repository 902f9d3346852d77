package controller

import (
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// QuestionRequest swagger:model QuestionRequest
type QuestionRequest struct {
	Question      string `json:"question" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required,option"`
}

func (r QuestionRequest) toService() service.QuestionReq {
	return service.QuestionReq{
		Question:      r.Question,
		OptionA:       r.OptionA,
		OptionB:       r.OptionB,
		OptionC:       r.OptionC,
		OptionD:       r.OptionD,
		CorrectAnswer: r.CorrectAnswer,
	}
}

func bindQuestion(ctx *gin.Context) (*QuestionRequest, bool) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		if validator.HasTag(err, validator.OptionTag) {
			util.BadRequest(ctx, "Invalid answer")
		} else {
			util.BadRequest(ctx, "All fields required")
		}
		return nil, false
	}
	return &req, true
}

// ListQuestions godoc
// @Summary 题库列表
// @Description 返回全部题目（含正确答案）
// @Tags 题库管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /admin/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	questions, err := c.QuestionService.List(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// CreateQuestion godoc
// @Summary 新增题目
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body QuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "字段缺失或答案无效"
// @Router /admin/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	req, ok := bindQuestion(ctx)
	if !ok {
		return
	}

	admin := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.Create(ctx.Request.Context(), admin.Username, req.toService())
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 修改题目
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Param   body body QuestionRequest true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "字段缺失或答案无效"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /admin/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	req, ok := bindQuestion(ctx)
	if !ok {
		return
	}

	admin := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.Update(ctx.Request.Context(), admin.Username, id, req.toService())
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 题库管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "题目不存在"
// @Router /admin/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	admin := util.GetUserFromContext(ctx)
	if err := c.QuestionService.Delete(ctx.Request.Context(), admin.Username, id); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
