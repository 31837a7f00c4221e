package tensor

import (
	"errors"
	"fmt"
	"strconv"
)

// 中文说明：
// AltTensor 是与外部调用方交换的固定形状数据信封，严格遵守 mediator 侧的定义：
// - Timestamp: u64 毫秒时间戳
// - Data: 扁平 float32 向量（无论逻辑形状如何，一律展平存储）
// - Shape: 形状描述
// - Metadata: 字符串到字符串映射（构造时所有值强制转为字符串）
// Data 长度与 Shape 乘积的一致性由调用方负责，编解码层不做校验。

type AltTensor struct {
	Timestamp uint64
	Data      []float32
	Shape     []int
	Metadata  map[string]string
}

// ErrDataType 表示 data 既不是数值序列也不是标准 float32 向量。
var ErrDataType = errors.New("data 必须是数值序列或 float32 向量")

// New 按契约构造信封：任意数值序列归一化为 float32，metadata 值全部转为字符串。
func New(timestamp uint64, data any, shape []int, metadata map[string]any) (*AltTensor, error) {
	buf, err := coerceData(data)
	if err != nil {
		return nil, err
	}
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = coerceString(v)
	}
	return &AltTensor{
		Timestamp: timestamp,
		Data:      buf,
		Shape:     append([]int(nil), shape...),
		Metadata:  meta,
	}, nil
}

// FromParts 直接以规范类型构造，不做任何转换（内部构造响应信封时使用）。
func FromParts(timestamp uint64, data []float32, shape []int, metadata map[string]string) *AltTensor {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &AltTensor{Timestamp: timestamp, Data: data, Shape: shape, Metadata: metadata}
}

func coerceData(data any) ([]float32, error) {
	switch v := data.(type) {
	case []float32:
		return append([]float32(nil), v...), nil
	case []float64:
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, nil
	case []int:
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, nil
	case []int64:
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, nil
	case []any:
		out := make([]float32, len(v))
		for i, x := range v {
			f, ok := numericValue(x)
			if !ok {
				return nil, fmt.Errorf("%w: 第 %d 个元素类型 %T", ErrDataType, i, x)
			}
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: 实际类型 %T", ErrDataType, data)
	}
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}
