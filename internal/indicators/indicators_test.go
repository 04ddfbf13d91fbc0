package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2, out[2], 1e-12)
	assert.InDelta(t, 3, out[3], 1e-12)
	assert.InDelta(t, 4, out[4], 1e-12)

	assert.True(t, math.IsNaN(SMA([]float64{1, 2}, 3)[1]))
	assert.True(t, math.IsNaN(SMA([]float64{1}, 0)[0]))
}

func TestEMA(t *testing.T) {
	out := EMA([]float64{10, 10, 10}, 5)
	assert.Equal(t, []float64{10, 10, 10}, out)

	out = EMA([]float64{0, 3}, 2)
	assert.InDelta(t, 2, out[1], 1e-12)
	assert.Empty(t, EMA(nil, 3))
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i)
	}
	out := RSI(rising, 14)
	assert.True(t, math.IsNaN(out[13]))
	assert.Equal(t, 100.0, out[14])
	assert.Equal(t, 100.0, out[19])

	flat := []float64{5, 5, 5, 5}
	assert.Equal(t, 50.0, RSI(flat, 2)[3])

	// one gain of 1 and one loss of 1 balance out
	assert.InDelta(t, 50, RSI([]float64{1, 2, 1}, 2)[2], 1e-12)

	for _, v := range RSI([]float64{1, 3, 2, 5, 4, 4, 6, 1, 2}, 3) {
		if !math.IsNaN(v) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestMACD(t *testing.T) {
	flat := make([]float64, 50)
	for i := range flat {
		flat[i] = 1.25
	}
	for _, p := range MACD(flat, 12, 25, 9) {
		assert.InDelta(t, 0, p.MACD, 1e-12)
		assert.InDelta(t, 0, p.Divergence, 1e-12)
	}

	rising := make([]float64, 60)
	for i := range rising {
		rising[i] = float64(i)
	}
	points := MACD(rising, 12, 25, 9)
	last := points[len(points)-1]
	assert.Greater(t, last.MACD, 0.0)
	assert.InDelta(t, last.MACD-last.Signal, last.Divergence, 1e-12)
}
