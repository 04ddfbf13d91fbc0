// Package testutils builds charts, sessions and script files for tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/conneroisu/panesync/internal/chart"
	"github.com/conneroisu/panesync/internal/mockdata"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/stretchr/testify/require"
)

// NewChart builds the default stock chart over bars generated from seed.
// The chart is closed when the test ends.
func NewChart(t *testing.T, bars int, seed int64) *stockchart.Chart {
	t.Helper()
	prices := mockdata.NewPriceGenerator(seed).Generate(mockdata.Options{Count: bars})
	c, err := stockchart.Build(prices, stockchart.DefaultLayout())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// NewSession wraps NewChart in a session.
func NewSession(t *testing.T, bars int, seed int64, opts ...session.Option) *session.Session {
	t.Helper()
	return session.New(NewChart(t, bars, seed), opts...)
}

// CandlePoint returns the pixel at bar i's close on the price pane.
func CandlePoint(t *testing.T, c *stockchart.Chart, i int) chart.Point {
	t.Helper()
	price, ok := c.Arena.Pane(stockchart.PanePrice)
	require.True(t, ok)
	require.Less(t, i, c.Prices.Len())
	return chart.Point{
		X: price.XAxes()[0].ValueToPixel(c.Prices.Time[i]),
		Y: price.YAxes()[0].ValueToPixel(c.Prices.Close[i]),
	}
}

// WriteScript writes a script file into a fresh temp directory.
func WriteScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// WaitForFileChange waits for a file to be modified (useful for testing file watchers)
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
