// @title 局域网考试系统 API
// @version 1.0
// @description 学生端与管理端共用一个数据库的选择题考试系统。

// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"lan_exam_backend/internal/app"
	"lan_exam_backend/internal/config"
	"lan_exam_backend/pkg/logger"
	"log"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	serve := flag.String("serve", app.ServeAll, "启动的服务：student、admin 或 all")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	seedSample := flag.Bool("seed-sample", false, "写入示例题目和 student1..student5 账号")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.MigrateOnly = *migrateOnly
	cfg.SeedSample = *seedSample

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		application.Close()
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if err := application.Run(*serve); err != nil {
		logger.Log.Fatal("Server stopped with error", zap.Error(err))
	}
}
