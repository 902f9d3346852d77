package controller

import (
	"errors"
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// LoginRequest defines model for login
// swagger:model LoginRequest
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录成功返回的令牌
// swagger:model LoginResponse
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

// Login godoc
// @Summary 学生登录
// @Description 用户名密码登录，已完成考试的学生不能再次登录
// @Tags 学生认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "用户名或密码错误"
// @Failure 403 {object} util.Response "已参加过考试"
// @Failure 429 {object} util.Response "登录失败次数过多"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid input")
		return
	}

	result, err := c.AuthService.StudentLogin(ctx.Request.Context(), req.Username, req.Password, util.GetClientIP(ctx))
	if err != nil {
		if errors.Is(err, util.ErrAlreadyAttempted) {
			util.Error(ctx, http.StatusForbidden, "You have already attempted the exam")
			return
		}
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Username:  result.User.Username,
	})
}

// Logout godoc
// @Summary 学生退出
// @Description 关闭活跃会话并注销当前令牌，未登录也返回成功
// @Tags 学生认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "退出成功"
// @Router /logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.AuthService.StudentLogout(ctx.Request.Context(), util.GetUserFromContext(ctx)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AdminLogin godoc
// @Summary 管理员登录
// @Tags 管理员认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "用户名或密码错误"
// @Failure 429 {object} util.Response "登录失败次数过多"
// @Router /admin/login [post]
func (c *AuthController) AdminLogin(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid input")
		return
	}

	result, err := c.AuthService.AdminLogin(ctx.Request.Context(), req.Username, req.Password, util.GetClientIP(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Username:  result.User.Username,
	})
}

// AdminLogout godoc
// @Summary 管理员退出
// @Tags 管理员认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "退出成功"
// @Failure 401 {object} util.Response "未登录"
// @Router /admin/logout [post]
func (c *AuthController) AdminLogout(ctx *gin.Context) {
	if err := c.AuthService.AdminLogout(ctx.Request.Context(), util.GetUserFromContext(ctx)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
