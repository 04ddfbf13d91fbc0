package testutils

import (
	"os"
	"testing"
	"time"

	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s := NewSession(t, 120, 3)
	snap := s.Snapshot()
	assert.Len(t, snap.Panes, len(stockchart.PaneOrder))
	assert.Equal(t, 120, s.Chart().Prices.Len())
}

func TestCandlePointIsInsidePricePane(t *testing.T) {
	c := NewChart(t, 200, 3)
	pt := CandlePoint(t, c, 150)
	price, ok := c.Arena.Pane(stockchart.PanePrice)
	require.True(t, ok)
	assert.True(t, price.PlotArea().Contains(pt))
}

func TestWaitForFileChange(t *testing.T) {
	path := WriteScript(t, "s.yaml", "events: []\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		later := info.ModTime().Add(time.Second)
		_ = os.Chtimes(path, later, later)
	}()
	WaitForFileChange(t, path, info.ModTime(), 2*time.Second)
}
