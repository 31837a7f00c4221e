package tensor

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// 中文说明：
// 线协议编解码。规范形式是 4 元组 (timestamp, data, shape, metadata)，
// 输入侧同时接受同名字段的 map 形式；输出始终为规范 4 元组。

var (
	_ msgpack.CustomEncoder = (*AltTensor)(nil)
	_ msgpack.CustomDecoder = (*AltTensor)(nil)
)

func (t *AltTensor) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}
	if err := enc.EncodeUint64(t.Timestamp); err != nil {
		return err
	}
	if err := enc.Encode(t.Data); err != nil {
		return err
	}
	if err := enc.Encode(t.Shape); err != nil {
		return err
	}
	return enc.Encode(t.Metadata)
}

func (t *AltTensor) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	if msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32 {
		return t.decodeMap(dec)
	}
	return t.decodeTuple(dec)
}

func (t *AltTensor) decodeTuple(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return fmt.Errorf("信封必须是 4 元组或字段 map: %w", err)
	}
	if n != 4 {
		return fmt.Errorf("信封元组长度必须为 4，实际 %d", n)
	}
	if t.Timestamp, err = dec.DecodeUint64(); err != nil {
		return err
	}
	if err := t.decodeData(dec); err != nil {
		return err
	}
	if err := dec.Decode(&t.Shape); err != nil {
		return err
	}
	return t.decodeMetadata(dec)
}

func (t *AltTensor) decodeMap(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "timestamp":
			if t.Timestamp, err = dec.DecodeUint64(); err != nil {
				return err
			}
		case "data":
			if err := t.decodeData(dec); err != nil {
				return err
			}
		case "shape":
			if err := dec.Decode(&t.Shape); err != nil {
				return err
			}
		case "metadata":
			if err := t.decodeMetadata(dec); err != nil {
				return err
			}
		default:
			if err := dec.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeData 接受浮点或整型混合的数值数组，统一为 float32。
func (t *AltTensor) decodeData(dec *msgpack.Decoder) error {
	var raw []float64
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("data 解码失败: %w", err)
	}
	t.Data = make([]float32, len(raw))
	for i, v := range raw {
		t.Data[i] = float32(v)
	}
	return nil
}

func (t *AltTensor) decodeMetadata(dec *msgpack.Decoder) error {
	t.Metadata = map[string]string{}
	if err := dec.Decode(&t.Metadata); err != nil {
		return fmt.Errorf("metadata 解码失败: %w", err)
	}
	return nil
}

// Marshal 将信封编码为线协议载荷。
func Marshal(t *AltTensor) ([]byte, error) {
	return msgpack.Marshal(t)
}

// Unmarshal 从线协议载荷还原信封。
func Unmarshal(payload []byte) (*AltTensor, error) {
	var t AltTensor
	if err := msgpack.Unmarshal(payload, &t); err != nil {
		return nil, err
	}
	if t.Metadata == nil {
		t.Metadata = map[string]string{}
	}
	return &t, nil
}
