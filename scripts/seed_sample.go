// 手动写入示例数据
//
// 启动参数 -seed-sample 会在服务启动时做同样的事情。
// 此脚本用于只准备数据、不启动服务的场景，例如考前在机房服务器上初始化题库。
//
// 用法: go run scripts/seed_sample.go

package main

import (
	"lan_exam_backend/internal/config"
	"lan_exam_backend/pkg/database"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	if err := database.EnsureDefaults(db, cfg); err != nil {
		log.Fatalf("创建默认设置失败: %v", err)
	}
	if err := database.SeedSample(db); err != nil {
		log.Fatalf("写入示例数据失败: %v", err)
	}

	log.Println("示例题目与学生账号已就绪（student1..student5 / pass123）")
}
