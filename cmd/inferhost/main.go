package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"inferhost/internal/app"
	"inferhost/internal/config"
	"inferhost/internal/decision"
	"inferhost/internal/logger"
	"inferhost/internal/model"
	"inferhost/internal/tensor"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "配置文件路径（默认取 INFERHOST_CONFIG 或 configs/config.yaml）")
		port       = flag.Int("port", 0, "覆盖服务端口")
		promptText = flag.String("prompt", "", "测试模式：直接发送提示词并打印解析结果，不启动服务")
		modelID    = flag.String("model-id", "", "测试模式下指定模型，缺省取端口下第一个")
	)
	flag.Parse()

	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLLMWriter(nil)
	if llmFile, err := setupLLMLogOutput(cfg.App.LLMLog); err != nil {
		log.Fatalf("初始化 LLM 日志失败: %v", err)
	} else if llmFile != nil {
		defer llmFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.EnableLLMPayloadDump(cfg.App.LLMDump)
	logger.Infof("配置加载成功（环境=%s 端口=%d 模型配置=%s）", cfg.App.Env, cfg.Server.Port, cfg.Models.Path)

	if strings.TrimSpace(*promptText) != "" {
		if err := runPromptTest(cfg, *promptText, *modelID); err != nil {
			log.Fatalf("测试调用失败: %v", err)
		}
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
	logger.Infof("服务已退出")
}

// runPromptTest 单次调用：选一个模型，发送提示词，打印原始回复与解析出的决策字段。
func runPromptTest(cfg *config.Config, promptText, modelID string) error {
	parser := decision.NewParser(cfg.Trading.DefaultInst, decision.Thresholds{
		SpuriousMagnitude: cfg.Parser.SpuriousMagnitude,
		SuspectRaw:        cfg.Parser.SuspectRaw,
		SuspectClamped:    cfg.Parser.SuspectClamped,
	})
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	models, err := model.LoadForPort(cfg.Models.Path, cfg.Server.Port, parser, timeout)
	if err != nil {
		return err
	}
	op, err := pickOperator(models, modelID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	env := tensor.FromParts(uint64(time.Now().Unix()), nil, nil, map[string]string{
		"prompt": promptText,
	})
	out, fields, err := op.Predict(ctx, env)
	if err != nil {
		return err
	}

	fmt.Printf("model_type: %s\n", out.Metadata["model_type"])
	fmt.Printf("response:\n%s\n\n", out.Metadata["response"])
	fmt.Printf("cmd: %s\n", fields.Cmd)
	if fields.Inst != "" {
		fmt.Printf("inst: %s\n", fields.Inst)
	}
	if fields.TargetPosition != nil {
		fmt.Printf("target_position: %v\n", *fields.TargetPosition)
	}
	return nil
}

// pickOperator 未指定 model_id 时按 ID 字典序取第一个，保证多模型端口下
// 测试模式的行为可复现。
func pickOperator(models map[string]*model.Operator, modelID string) (*model.Operator, error) {
	if strings.TrimSpace(modelID) != "" {
		op, ok := models[modelID]
		if !ok {
			return nil, fmt.Errorf("模型 %q 未配置", modelID)
		}
		return op, nil
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("当前端口没有任何模型配置")
	}
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	logger.Infof("测试模式使用模型 %q", ids[0])
	return models[ids[0]], nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func setupLLMLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetLLMWriter(f)
	return f, nil
}
