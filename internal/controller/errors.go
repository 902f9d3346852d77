package controller

import (
	"errors"
	"lan_exam_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleServiceError 业务错误映射到 HTTP 状态码，未知错误统一 500
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidInput):
		util.BadRequest(ctx, "Invalid input")
	case errors.Is(err, util.ErrInvalidAnswer):
		util.BadRequest(ctx, "Invalid answer")
	case errors.Is(err, util.ErrInvalidSettings):
		util.BadRequest(ctx, "Invalid values")
	case errors.Is(err, util.ErrUsernameTaken):
		util.BadRequest(ctx, "Username already exists")
	case errors.Is(err, util.ErrExamNotStarted):
		util.BadRequest(ctx, "Exam not started")
	case errors.Is(err, util.ErrNotEnoughQuestions):
		util.BadRequest(ctx, "Not enough questions in database")
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, util.ErrAlreadyAttempted):
		util.Error(ctx, http.StatusForbidden, "Already attempted")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrTooManyAttempts):
		util.TooManyRequests(ctx)
	case errors.Is(err, util.ErrUserNotFound):
		util.Error(ctx, http.StatusNotFound, "Student not found")
	case errors.Is(err, util.ErrQuestionNotFound):
		util.Error(ctx, http.StatusNotFound, "Question not found")
	default:
		util.LogInternalError(ctx, err)
	}
}

// parseID 路径参数必须是正整数
func parseID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "Invalid id")
		return 0, false
	}
	return id, true
}
