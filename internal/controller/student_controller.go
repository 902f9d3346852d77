package controller

import (
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	StudentService *service.StudentService
}

func NewStudentController(studentService *service.StudentService) *StudentController {
	return &StudentController{StudentService: studentService}
}

// StudentRequest swagger:model StudentRequest
type StudentRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ListStudents godoc
// @Summary 学生列表
// @Tags 学生管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.StudentView}
// @Router /admin/students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	students, err := c.StudentService.List(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

// CreateStudent godoc
// @Summary 新增学生
// @Tags 学生管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StudentRequest true "学生账号"
// @Success 201 {object} util.Response{data=service.StudentView} "创建成功"
// @Failure 400 {object} util.Response "用户名已存在或参数错误"
// @Router /admin/students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req StudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid input")
		return
	}

	admin := util.GetUserFromContext(ctx)
	student, err := c.StudentService.Create(ctx.Request.Context(), admin.Username, req.Username, req.Password)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, student)
}

// DeleteStudent godoc
// @Summary 删除学生
// @Description 同时删除进行中的考试，历史答题与成绩保留
// @Tags 学生管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "学生ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "学生不存在"
// @Router /admin/students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	admin := util.GetUserFromContext(ctx)
	if err := c.StudentService.Delete(ctx.Request.Context(), admin.Username, id); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
