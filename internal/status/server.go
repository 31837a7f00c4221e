package status

import (
	"context"
	"net/http"
	"time"

	"inferhost/internal/logger"
	"inferhost/internal/model"

	"github.com/gin-gonic/gin"
)

// 中文说明：
// 状态接口：进程健康与最近决策的只读 HTTP 面板。不暴露任何密钥。

type Server struct {
	addr    string
	models  map[string]*model.Operator
	cache   *Cache
	httpSrv *http.Server
}

func NewServer(addr string, models map[string]*model.Operator, cache *Cache) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{addr: addr, models: models, cache: cache}
	router.GET("/healthz", s.handleHealthz)
	router.GET("/api/models", s.handleModels)
	router.GET("/api/last", s.handleLastAll)
	router.GET("/api/last/:model_id", s.handleLast)

	s.httpSrv = &http.Server{Addr: addr, Handler: router}
	return s
}

// Run 阻塞服务直到 ctx 取消。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("状态接口监听 %s", s.addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "models": len(s.models)})
}

func (s *Server) handleModels(c *gin.Context) {
	type entry struct {
		ModelID  string `json:"model_id"`
		Provider string `json:"provider"`
		Model    string `json:"model"`
	}
	list := make([]entry, 0, len(s.models))
	for id, op := range s.models {
		list = append(list, entry{ModelID: id, Provider: op.Provider(), Model: op.Model()})
	}
	c.JSON(http.StatusOK, gin.H{"models": list})
}

func (s *Server) handleLastAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"decisions": s.cache.All()})
}

func (s *Server) handleLast(c *gin.Context) {
	snap, ok := s.cache.Get(c.Param("model_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "该模型还没有决策记录"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decision": snap})
}
