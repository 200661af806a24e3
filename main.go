// @title LearnQuest 学习进度与成就 API
// @version 1.0
// @description 测验结果、学习进度、连续学习天数与成就解锁服务。

// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"learnquest_backend/internal/app"
	"learnquest_backend/internal/config"
	"learnquest_backend/pkg/logger"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
