package server

import (
	"encoding/binary"
	"fmt"
	"io"
)

// 中文说明：
// 帧层：4 字节大端长度前缀 + msgpack 载荷。请求与应答同构。

// MaxFrameSize 单帧上限，防御异常长度前缀。
const MaxFrameSize = 16 << 20

// ReadFrame 读取一帧载荷。
func ReadFrame(r io.Reader) ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(head[:])
	if n == 0 {
		return nil, fmt.Errorf("帧长度为 0")
	}
	if n > MaxFrameSize {
		return nil, fmt.Errorf("帧长度 %d 超过上限 %d", n, MaxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame 写出一帧载荷。
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("帧长度 %d 超过上限 %d", len(payload), MaxFrameSize)
	}
	var head [4]byte
	binary.BigEndian.PutUint32(head[:], uint32(len(payload)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
