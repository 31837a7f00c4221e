package server

import (
	"context"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"inferhost/internal/decision"
	"inferhost/internal/logger"
	"inferhost/internal/model"
	"inferhost/internal/prompt"
	"inferhost/internal/tensor"

	"github.com/google/uuid"
)

// 中文说明：
// 调度器是进程的服务主体：阻塞 accept，逐连接逐帧处理，一帧请求对应一帧应答，
// 严格串行。任何错误都折算为带错误标记的兜底信封写回，循环本身不会退出。

// 错误标记，写入应答 metadata["error"]。
const (
	ErrModelNotFound    = "ERROR_MODEL_NOT_FOUND"
	ErrInvalidInput     = "ERROR_INVALID_INPUT"
	ErrPredictionFailed = "ERROR_PREDICTION_FAILED"
	ErrException        = "ERROR_EXCEPTION"
)

// Observer 每次成功预测后回调，供状态接口缓存最近一次决策。
type Observer func(modelID string, env, out *tensor.AltTensor, fields decision.Fields)

type Dispatcher struct {
	Models   map[string]*model.Operator
	Builder  *prompt.Builder
	Observer Observer
}

func NewDispatcher(models map[string]*model.Operator, builder *prompt.Builder) *Dispatcher {
	return &Dispatcher{Models: models, Builder: builder}
}

// Serve 在 listener 上阻塞服务，ctx 取消后返回。
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnf("accept 失败: %v", err)
			continue
		}
		d.serveConn(ctx, conn)
	}
}

// serveConn 单连接请求循环。对端关闭、读帧出错或 ctx 取消即结束该连接。
func (d *Dispatcher) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	logger.Infof("连接建立 %s", conn.RemoteAddr())
	for {
		if ctx.Err() != nil {
			return
		}
		payload, err := ReadFrame(conn)
		if err != nil {
			logger.Debugf("连接 %s 读帧结束: %v", conn.RemoteAddr(), err)
			return
		}
		reply := d.handle(ctx, payload)
		out, err := tensor.Marshal(reply)
		if err != nil {
			logger.Errorf("应答序列化失败: %v", err)
			out, _ = tensor.Marshal(errorEnvelope(ErrException, err.Error()))
		}
		if err := WriteFrame(conn, out); err != nil {
			logger.Warnf("连接 %s 写帧失败: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// handle 单帧处理。panic 也收敛为 ERROR_EXCEPTION 应答。
func (d *Dispatcher) handle(ctx context.Context, payload []byte) (reply *tensor.AltTensor) {
	reqID := uuid.NewString()[:8]
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] 处理请求 panic: %v", reqID, r)
			reply = errorEnvelope(ErrException, fmt.Sprint(r))
		}
	}()

	// 反序列化失败不属于数据校验问题，归入通用异常。
	env, err := tensor.Unmarshal(payload)
	if err != nil {
		logger.Warnf("[%s] 请求反序列化失败: %v", reqID, err)
		return errorEnvelope(ErrException, err.Error())
	}

	modelID := strings.TrimSpace(env.Metadata["model_id"])
	op, ok := d.Models[modelID]
	if !ok {
		logger.Warnf("[%s] 未知模型 %q", reqID, modelID)
		return errorEnvelope(ErrModelNotFound, fmt.Sprintf("模型 %q 未注册", modelID))
	}

	if i, bad := firstNonFinite(env.Data); bad {
		logger.Warnf("[%s] 输入数据含非有限值 index=%d", reqID, i)
		return errorEnvelope(ErrInvalidInput, fmt.Sprintf("数据第 %d 项不是有限数", i))
	}

	if strings.TrimSpace(env.Metadata["prompt"]) == "" && d.Builder != nil {
		if env.Metadata == nil {
			env.Metadata = map[string]string{}
		}
		env.Metadata["prompt"] = d.Builder.Build(env)
	}

	out, fields, err := op.Predict(ctx, env)
	if err != nil {
		logger.Errorf("[%s] 模型 %q 预测失败: %v", reqID, modelID, err)
		return errorEnvelope(ErrPredictionFailed, err.Error())
	}

	logger.Infof("[%s] 模型 %q 完成 cmd=%s inst=%s 耗时=%s",
		reqID, modelID, fields.Cmd, fields.Inst, time.Since(start).Round(time.Millisecond))
	if d.Observer != nil {
		d.Observer(modelID, env, out, fields)
	}
	return out
}

// errorEnvelope 兜底信封：data 为单个 0，metadata 只含错误标记与说明，
// 时间戳取当前时刻而非回显请求。
func errorEnvelope(tag, msg string) *tensor.AltTensor {
	meta := map[string]string{
		"error":     tag,
		"error_msg": msg,
	}
	return tensor.FromParts(uint64(time.Now().UnixMilli()), []float32{0}, []int{1}, meta)
}

func firstNonFinite(data []float32) (int, bool) {
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i, true
		}
	}
	return -1, false
}
