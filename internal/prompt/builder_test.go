package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inferhost/internal/tensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(data []float32, meta map[string]string) *tensor.AltTensor {
	return tensor.FromParts(1700000000000, data, []int{len(data)}, meta)
}

func TestBuildNamedFeatures(t *testing.T) {
	styles, err := NewStyleRegistry("", "趋势跟踪，顺势而为")
	require.NoError(t, err)
	b := NewBuilder("DOGE_USDT_PERP", styles)

	env := envelope(
		[]float32{1700000000, 0.1612, 2.5, -0.8},
		map[string]string{
			"price":      "0.1612",
			"pos_weight": "0.25",
			"col_names":  `["timestamp","close","z_volume","z_rsi"]`,
		},
	)
	out := b.Build(env)

	assert.Contains(t, out, "交易对: DOGE_USDT_PERP")
	assert.Contains(t, out, "当前价格: 0.1612")
	assert.Contains(t, out, "当前仓位权重: 0.25")
	assert.Contains(t, out, "## 交易风格")
	assert.Contains(t, out, "趋势跟踪，顺势而为")
	assert.Contains(t, out, "## 原始市场特征数据")
	assert.Contains(t, out, "- close: 0.161200")
	assert.Contains(t, out, "## 标准化特征数据 (Z-Score)")
	assert.Contains(t, out, "- z_volume: 2.5000 ⚠️ 显著偏离")
	assert.Contains(t, out, "- z_rsi: -0.8000 ✓ 接近均值")
	assert.NotContains(t, out, "timestamp:")
	assert.Contains(t, out, "POSITION_SIZE=<数值>")
}

func TestBuildMisalignedColumnsFallsBackToIndices(t *testing.T) {
	styles, err := NewStyleRegistry("", "")
	require.NoError(t, err)
	b := NewBuilder("DOGE_USDT_PERP", styles)

	env := envelope(
		[]float32{1, 2, 3},
		map[string]string{"col_names": `["only_one"]`},
	)
	out := b.Build(env)

	assert.Contains(t, out, "特征数量: 3")
	assert.Contains(t, out, "特征[0]: 1.000000")
	assert.NotContains(t, out, "only_one")
}

func TestBuildTruncatesUnnamedFeatures(t *testing.T) {
	styles, err := NewStyleRegistry("", "")
	require.NoError(t, err)
	b := NewBuilder("DOGE_USDT_PERP", styles)

	data := make([]float32, 25)
	out := b.Build(envelope(data, map[string]string{}))

	assert.Contains(t, out, "特征[19]:")
	assert.NotContains(t, out, "特征[20]:")
	assert.Contains(t, out, "(共 25 个特征)")
}

func TestStyleRegistryDefault(t *testing.T) {
	styles, err := NewStyleRegistry("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle, styles.Get())
}

func TestStyleRegistryFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("纯文本", func(t *testing.T) {
		path := filepath.Join(dir, "style.txt")
		require.NoError(t, os.WriteFile(path, []byte("激进型：追求高收益\n"), 0o644))
		r, err := NewStyleRegistry(path, "")
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, "激进型：追求高收益", r.Get())
	})

	t.Run("YAML 取 trading_style 键", func(t *testing.T) {
		path := filepath.Join(dir, "style.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trading_style: 均值回归\n"), 0o644))
		r, err := NewStyleRegistry(path, "")
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, "均值回归", r.Get())
	})

	t.Run("空文件回退默认风格", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))
		r, err := NewStyleRegistry(path, "")
		require.NoError(t, err)
		defer r.Close()
		assert.True(t, strings.HasPrefix(r.Get(), "稳健型交易风格"))
	})

	t.Run("文件不存在报错", func(t *testing.T) {
		_, err := NewStyleRegistry(filepath.Join(dir, "missing.txt"), "")
		assert.Error(t, err)
	})
}
