// 初始化答案表表头
//
// 把 config.yaml 中的问题标签写入答案表第 1 行，第 1 列为用户名。
// 问题列表调整后重新执行即可。
//
// 用法: go run scripts/init_header.go

package main

import (
	"context"
	"log"
	"os"
	"time"

	"workshop_form_backend/internal/config"
	"workshop_form_backend/internal/repository"
	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/database"
	"workshop_form_backend/pkg/logger"
	"workshop_form_backend/pkg/retry"
	"workshop_form_backend/pkg/sheets"

	"gopkg.in/yaml.v3"
)

type stdoutNotifier struct{}

func (stdoutNotifier) Warn(message string) { log.Println(message) }

// headerConfig 只读取脚本需要的配置段
type headerConfig struct {
	Server   config.ServerConfig   `yaml:"server"`
	Database config.DatabaseConfig `yaml:"database"`
	Form     config.FormConfig     `yaml:"form"`
	Sheets   struct {
		Backend         string `yaml:"backend"`
		SpreadsheetKey  string `yaml:"spreadsheet_key"`
		CredentialsFile string `yaml:"credentials_file"`
		CredentialsJSON string `yaml:"credentials_json"`
		AnswerSheet     string `yaml:"answer_sheet"`
	} `yaml:"sheets"`
}

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg headerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if len(cfg.Form.QuestionLabels) == 0 {
		cfg.Form.QuestionLabels = config.DefaultQuestionLabels
	}

	logger.InitLogger(&config.Config{Server: cfg.Server})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	executor := retry.NewExecutor(retry.DefaultPolicy(), sheets.IsTransient, retry.WithLogger(logger.Log))

	var opener sheets.Opener
	switch cfg.Sheets.Backend {
	case config.BackendMySQL:
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
		if err != nil {
			log.Fatalf("数据库连接失败: %v", err)
		}
		if cfg.Sheets.AnswerSheet == "" {
			cfg.Sheets.AnswerSheet = "回答"
		}
		book := repository.NewWorkbookRepository(db)
		if err := book.EnsureSheet(cfg.Sheets.AnswerSheet); err != nil {
			log.Fatalf("创建工作表失败: %v", err)
		}
		opener = func(ctx context.Context) (sheets.Workbook, error) { return book, nil }
	default:
		svc, err := sheets.NewGoogleService(ctx, sheets.GoogleCredentials{
			File: cfg.Sheets.CredentialsFile,
			JSON: cfg.Sheets.CredentialsJSON,
		})
		if err != nil {
			log.Fatalf("创建 Sheets 客户端失败: %v", err)
		}
		opener = func(ctx context.Context) (sheets.Workbook, error) {
			book, err := sheets.OpenGoogle(ctx, svc, cfg.Sheets.SpreadsheetKey)
			if err != nil {
				return nil, err
			}
			return book, nil
		}
	}

	repo := repository.NewAnswerRepository(sheets.NewHandle(opener, 0), cfg.Sheets.AnswerSheet)
	err = executor.Run(ctx, stdoutNotifier{}, "write_header", func(ctx context.Context) error {
		return repo.WriteHeader(ctx, util.UsernameColumnLabel, cfg.Form.QuestionLabels)
	})
	if err != nil {
		log.Fatalf("写入表头失败: %v", err)
	}
	log.Printf("已写入 %d 个问题标签", len(cfg.Form.QuestionLabels))
}
