// @title Workshop Form API
// @version 1.0
// @description ワークショップ回答フォームのバックエンド。

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"log"
	_ "time/tzdata"

	"workshop_form_backend/internal/app"
	"workshop_form_backend/internal/config"
	"workshop_form_backend/pkg/logger"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件 config.yaml 所在目录")
	watch := flag.Bool("watch", true, "配置文件变更时热更新问题列表")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dir := *configDir
	if !*watch {
		dir = ""
	}

	application := app.NewApp(cfg, dir)
	defer logger.Log.Sync()

	application.Run()
}
