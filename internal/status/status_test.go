package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inferhost/internal/decision"
	"inferhost/internal/model"
	"inferhost/internal/tensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRecordAndGet(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("m1")
	assert.False(t, ok)

	tp := 0.5
	env := tensor.FromParts(42, []float32{1}, []int{1}, nil)
	out := tensor.FromParts(42, nil, nil, map[string]string{"response": "做多"})
	c.Record("m1", env, out, decision.Fields{
		Cmd:            decision.CmdAdjustPosition,
		Inst:           "ETH_USDT_PERP",
		TargetPosition: &tp,
	})

	snap, ok := c.Get("m1")
	require.True(t, ok)
	assert.Equal(t, uint64(42), snap.Timestamp)
	assert.Equal(t, "adjust_position", snap.Cmd)
	assert.Equal(t, "ETH_USDT_PERP", snap.Inst)
	require.NotNil(t, snap.TargetPosition)
	assert.InDelta(t, 0.5, *snap.TargetPosition, 1e-9)
	assert.Equal(t, "做多", snap.Response)

	assert.Len(t, c.All(), 1)
}

func TestStatusEndpoints(t *testing.T) {
	cache := NewCache()
	s := NewServer("127.0.0.1:0", map[string]*model.Operator{}, cache)
	srv := httptest.NewServer(s.httpSrv.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(srv.URL + "/api/models")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/last/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
