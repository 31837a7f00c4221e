package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"inferhost/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// 中文说明：
// 交易风格注册表。风格文本影响 agent 的所有决策，支持三种来源：
// 配置内联文本、风格文件（纯文本或带 trading_style 键的 YAML/JSON）、
// 内置默认稳健风格。文件来源监听变更热加载，改风格不用重启服务。

// DefaultStyle 内置稳健风格。
const DefaultStyle = `稳健型交易风格：
- 优先控制风险，单次交易风险不超过总资金的 20%
- 仓位管理：正常市场条件下仓位控制在 30-50%，极端市场条件下降低到 10-20%
- 注重止损，设置合理的止损点位
- 不追求短期暴利，注重长期稳定收益
- 在市场不确定性高时，倾向于减少仓位或空仓
- 基于 Z-Score 特征，当特征显著偏离（|z| > 2）时，谨慎操作`

type StyleRegistry struct {
	path string

	mu      sync.RWMutex
	style   string
	watcher *fsnotify.Watcher
}

// NewStyleRegistry 构造注册表。path 为空时固定使用 inline（或内置默认值）。
func NewStyleRegistry(path, inline string) (*StyleRegistry, error) {
	r := &StyleRegistry{path: strings.TrimSpace(path)}
	if r.path == "" {
		r.style = strings.TrimSpace(inline)
		if r.style == "" {
			r.style = DefaultStyle
		}
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if err := r.watch(); err != nil {
		logger.Warnf("交易风格文件监听失败，热加载不可用: %v", err)
	}
	return r, nil
}

// Get 返回当前风格文本。
func (r *StyleRegistry) Get() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.style
}

// Close 停止文件监听。
func (r *StyleRegistry) Close() error {
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

func (r *StyleRegistry) reload() error {
	style, err := readStyleFile(r.path)
	if err != nil {
		return err
	}
	if style == "" {
		style = DefaultStyle
	}
	r.mu.Lock()
	r.style = style
	r.mu.Unlock()
	logger.Infof("交易风格已加载 (%s, %d 字符)", filepath.Base(r.path), len(style))
	return nil
}

func (r *StyleRegistry) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		w.Close()
		return err
	}
	r.watcher = w
	target := filepath.Clean(r.path)
	go func() {
		for {
			select {
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
					continue
				}
				if err := r.reload(); err != nil {
					logger.Errorf("交易风格热加载失败: %v", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("交易风格监听错误: %v", err)
			}
		}
	}()
	return nil
}

// readStyleFile 读取风格文件。YAML/JSON 文件取 trading_style 键，
// 其余一律按纯文本处理。
func readStyleFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("读取风格文件失败: %w", err)
		}
		return strings.TrimSpace(v.GetString("trading_style")), nil
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("读取风格文件失败: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
}
