package server

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello frame")
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Zero(t, buf.Len())
}

func TestReadFrameRejectsOversized(t *testing.T) {
	var head [4]byte
	binary.BigEndian.PutUint32(head[:], MaxFrameSize+1)
	_, err := ReadFrame(bytes.NewReader(head[:]))
	assert.Error(t, err)
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 0}))
	assert.Error(t, err)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	var head [4]byte
	binary.BigEndian.PutUint32(head[:], 10)
	buf.Write(head[:])
	buf.Write([]byte("short"))
	_, err := ReadFrame(&buf)
	assert.Error(t, err)
}
