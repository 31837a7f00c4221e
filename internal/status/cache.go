package status

import (
	"sync"
	"time"

	"inferhost/internal/decision"
	"inferhost/internal/tensor"
)

// 中文说明：
// 最近决策缓存。每个模型保留最后一次成功预测的摘要，供状态接口查询。
// 只存摘要字段，不存 api_key 等敏感内容。

// Snapshot 单个模型的最近一次决策摘要。
type Snapshot struct {
	ModelID        string    `json:"model_id"`
	Timestamp      uint64    `json:"timestamp"`
	Cmd            string    `json:"cmd"`
	Inst           string    `json:"inst,omitempty"`
	TargetPosition *float64  `json:"target_position,omitempty"`
	Response       string    `json:"response,omitempty"`
	DecidedAt      time.Time `json:"decided_at"`
}

type Cache struct {
	mu   sync.RWMutex
	data map[string]Snapshot
}

func NewCache() *Cache {
	return &Cache{data: make(map[string]Snapshot)}
}

// Record 供调度器的 Observer 回调直接使用。
func (c *Cache) Record(modelID string, env, out *tensor.AltTensor, fields decision.Fields) {
	if c == nil || modelID == "" {
		return
	}
	snap := Snapshot{
		ModelID:   modelID,
		Timestamp: env.Timestamp,
		Cmd:       string(fields.Cmd),
		Inst:      fields.Inst,
		Response:  out.Metadata["response"],
		DecidedAt: time.Now(),
	}
	if fields.TargetPosition != nil {
		v := *fields.TargetPosition
		snap.TargetPosition = &v
	}
	c.mu.Lock()
	c.data[modelID] = snap
	c.mu.Unlock()
}

// Get 返回指定模型的摘要。
func (c *Cache) Get(modelID string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.data[modelID]
	return snap, ok
}

// All 返回全部模型的摘要。
func (c *Cache) All() []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Snapshot, 0, len(c.data))
	for _, snap := range c.data {
		out = append(out, snap)
	}
	return out
}
