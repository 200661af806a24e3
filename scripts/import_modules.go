// 从 YAML 文件导入学习模块，用于本地开发或新环境初始化。
// 成就目录会在迁移时自动写入，不需要单独导入。
//
// 用法: go run scripts/import_modules.go -config configs -file configs/modules.yaml

package main

import (
	"context"
	"flag"
	"learnquest_backend/internal/config"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/repository"
	"learnquest_backend/pkg/database"
	"learnquest_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type moduleFile struct {
	Modules []struct {
		ID          uint   `yaml:"id"`
		CategoryID  uint   `yaml:"category_id"`
		TitleEn     string `yaml:"title_en"`
		TitleSt     string `yaml:"title_st"`
		Description string `yaml:"description"`
		Order       int    `yaml:"order"`
	} `yaml:"modules"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	file := flag.String("file", "configs/modules.yaml", "模块定义文件")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取模块文件: %v", err)
	}
	var mf moduleFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		log.Fatalf("解析模块文件失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	modules := make([]model.LearningModule, 0, len(mf.Modules))
	for _, m := range mf.Modules {
		if m.ID == 0 || m.TitleEn == "" {
			log.Fatalf("模块缺少 id 或 title_en: %+v", m)
		}
		modules = append(modules, model.LearningModule{
			ID:          m.ID,
			CategoryID:  m.CategoryID,
			TitleEn:     m.TitleEn,
			TitleSt:     m.TitleSt,
			Description: m.Description,
			Order:       m.Order,
		})
	}

	if err := repository.NewModuleRepository(db).Upsert(context.Background(), modules); err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Printf("导入完成，共 %d 个模块", len(modules))
}
