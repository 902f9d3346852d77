package app

import (
	"lan_exam_backend/docs"
	"lan_exam_backend/internal/middleware"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func registerSwagger(router *gin.Engine) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
}

// registerStudentRoutes 学生端（默认 5000 端口）
func (a *App) registerStudentRoutes(router *gin.Engine, c *controllers) {
	registerSwagger(router)

	auth := middleware.NewAuthenticator(a.Config.JWT.StudentSecret, util.AudienceStudent, a.services.tokens)

	// 1. 公共路由
	public := router.Group("/api")
	{
		public.GET("/health", c.studentHealth.HealthCheck)
		public.POST("/login", c.auth.Login)
		public.POST("/logout", auth.TryAuthMiddleware(), c.auth.Logout)
		public.GET("/tab-switch-count", auth.TryAuthMiddleware(), c.exam.TabSwitchCount)
	}

	// 2. 考试流程
	exam := router.Group("/api")
	exam.Use(auth.AuthMiddleware(), middleware.RoleMiddleware(model.Student))
	{
		exam.GET("/exam/start", c.exam.StartExam)
		exam.POST("/exam/submit", c.exam.SubmitExam)
		exam.GET("/exam/status", c.exam.ExamStatus)
		exam.POST("/tab-switch", c.exam.TabSwitch)
	}
}

// registerAdminRoutes 管理端（默认 5001 端口）
func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers) {
	registerSwagger(router)

	router.GET("/metrics", monitoring.PrometheusHandler())

	auth := middleware.NewAuthenticator(a.Config.JWT.AdminSecret, util.AudienceAdmin, a.services.tokens)

	public := router.Group("/api")
	{
		public.GET("/health", c.adminHealth.HealthCheck)
		public.POST("/admin/login", c.auth.AdminLogin)
	}

	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/logout", c.auth.AdminLogout)

		// 题库
		admin.GET("/questions", c.question.ListQuestions)
		admin.POST("/questions", c.question.CreateQuestion)
		admin.PUT("/questions/:id", c.question.UpdateQuestion)
		admin.DELETE("/questions/:id", c.question.DeleteQuestion)

		// 学生
		admin.GET("/students", c.student.ListStudents)
		admin.POST("/students", c.student.CreateStudent)
		admin.DELETE("/students/:id", c.student.DeleteStudent)

		// 设置
		admin.GET("/settings", c.setting.GetSettings)
		admin.PUT("/settings", c.setting.UpdateSettings)

		// 成绩与监控
		admin.GET("/results", c.report.GetResults)
		admin.GET("/results/export", c.report.ExportResults)
		admin.POST("/results/archive", c.report.ArchiveResults)
		admin.GET("/tab-switches", c.report.GetTabSwitches)
		admin.GET("/sessions", c.report.GetSessions)

		// 实时监考
		admin.GET("/monitor/ws", c.monitor.Stream)
	}
}
