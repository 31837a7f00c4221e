package app

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"inferhost/internal/config"
	"inferhost/internal/decision"
	"inferhost/internal/logger"
	"inferhost/internal/model"
	"inferhost/internal/prompt"
	"inferhost/internal/server"
	"inferhost/internal/status"

	"golang.org/x/sync/errgroup"
)

// 中文说明：
// App 负责组装：风格注册表 → 提示词构造器 → 决策解析器 → 模型注册表 →
// 调度器（+ 可选的状态接口），然后统一运行与收尾。

type App struct {
	cfg      *config.Config
	styles   *prompt.StyleRegistry
	models   map[string]*model.Operator
	dispatch *server.Dispatcher
	statusS  *status.Server
}

func New(cfg *config.Config) (*App, error) {
	styles, err := prompt.NewStyleRegistry(cfg.Trading.StylePath, cfg.Trading.Style)
	if err != nil {
		return nil, fmt.Errorf("加载交易风格失败: %w", err)
	}

	parser := decision.NewParser(cfg.Trading.DefaultInst, decision.Thresholds{
		SpuriousMagnitude: cfg.Parser.SpuriousMagnitude,
		SuspectRaw:        cfg.Parser.SuspectRaw,
		SuspectClamped:    cfg.Parser.SuspectClamped,
	})

	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	models, err := model.LoadForPort(cfg.Models.Path, cfg.Server.Port, parser, timeout)
	if err != nil {
		styles.Close()
		return nil, err
	}
	if len(models) == 0 {
		styles.Close()
		return nil, fmt.Errorf("端口 %d 没有任何模型配置", cfg.Server.Port)
	}

	builder := prompt.NewBuilder(cfg.Trading.DefaultInst, styles)
	dispatch := server.NewDispatcher(models, builder)

	a := &App{cfg: cfg, styles: styles, models: models, dispatch: dispatch}
	if strings.TrimSpace(cfg.Server.StatusAddr) != "" {
		cache := status.NewCache()
		dispatch.Observer = cache.Record
		a.statusS = status.NewServer(cfg.Server.StatusAddr, models, cache)
	}
	return a, nil
}

// Run 阻塞运行直到 ctx 取消或某个子服务出错。
func (a *App) Run(ctx context.Context) error {
	defer a.styles.Close()

	addr := net.JoinHostPort(a.cfg.Server.Bind, fmt.Sprint(a.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	logger.Infof("推理服务监听 %s，模型数=%d", addr, len(a.models))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.dispatch.Serve(ctx, ln)
	})
	if a.statusS != nil {
		group.Go(func() error {
			return a.statusS.Run(ctx)
		})
	}
	err = group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}
