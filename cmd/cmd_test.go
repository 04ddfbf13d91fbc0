package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/conneroisu/panesync/internal/config"
	"github.com/conneroisu/panesync/internal/output"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/conneroisu/panesync/internal/testutils"
	"github.com/conneroisu/panesync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newTestCommand isolates global configuration and captures stdout.
func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("data.points", 300)

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetContext(context.Background())
	c.SetOut(&buf)
	c.SetErr(io.Discard)
	return c, &buf
}

func testEnv(t *testing.T) *env {
	t.Helper()
	v := viper.New()
	v.Set("data.points", 300)
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	return newEnv(cfg, io.Discard)
}

const testScript = `name: smoke
events:
  - type: pan
    pixels: 40
  - type: zoom
    axis: rsi-x
    factor: 2
  - type: relabel
    axis: price-y
    format: "$%.8f"
  - type: resize
    width: 1000
    height: 700
`

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"demo", "hittest", "replay", "serve", "version"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestRunDemo(t *testing.T) {
	c, buf := newTestCommand(t)
	demoOutput = "json"
	t.Cleanup(func() { demoOutput = "table" })

	require.NoError(t, runDemo(c, nil))

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	require.Len(t, snap.Panes, 4)
	for _, p := range snap.Panes[1:] {
		assert.Equal(t, snap.Panes[0].PlotArea.Width, p.PlotArea.Width, p.ID)
		assert.Equal(t, snap.Panes[0].Axes[0].Visible, p.Axes[0].Visible, p.ID)
	}
}

func TestRunDemoTable(t *testing.T) {
	c, buf := newTestCommand(t)
	demoOutput = "table"

	require.NoError(t, runDemo(c, nil))
	assert.Contains(t, buf.String(), "PLOT AREA")
	assert.Contains(t, buf.String(), string(stockchart.PaneVolume))
}

func TestRunHitTest(t *testing.T) {
	c, buf := newTestCommand(t)

	// Locate a candle on an identically configured chart.
	s, err := testEnv(t).newSession()
	require.NoError(t, err)
	defer s.Chart().Close()
	const i = 120
	pt := testutils.CandlePoint(t, s.Chart(), i)

	hitPane = string(stockchart.PanePrice)
	hitX, hitY = pt.X, pt.Y
	hitOutput = "json"
	t.Cleanup(func() { hitPane, hitX, hitY, hitOutput = "", 0, 0, "table" })

	require.NoError(t, runHitTest(c, nil))

	var hits []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &hits))
	require.NotEmpty(t, hits)
	var candles bool
	for _, h := range hits {
		if h["series_id"] == "candles" {
			candles = true
			assert.EqualValues(t, i, h["index"])
		}
	}
	assert.True(t, candles)
}

func TestRunHitTestUnknownPane(t *testing.T) {
	c, _ := newTestCommand(t)
	hitPane = "prices"
	hitOutput = "table"
	t.Cleanup(func() { hitPane = "" })

	err := runHitTest(c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pane not found")
}

func TestRunReplay(t *testing.T) {
	c, buf := newTestCommand(t)
	path := testutils.WriteScript(t, "script.yaml", testScript)
	replayOutput = "json"
	t.Cleanup(func() { replayOutput = "table" })

	require.NoError(t, runReplay(c, []string{path}))

	var report output.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "smoke", report.Script)
	require.Len(t, report.Steps, 4)
	assert.Zero(t, report.Errors)

	final := report.Steps[3].Snapshot
	assert.Equal(t, 1000.0, final.Panes[0].Bounds.Width)
	for _, p := range final.Panes {
		assert.Equal(t, final.Panes[0].Reserved.Right, p.Reserved.Right, p.ID)
	}
}

func TestRunReplayReportsFailures(t *testing.T) {
	c, buf := newTestCommand(t)
	path := testutils.WriteScript(t, "script.yaml", "events:\n  - type: pan\n    axis: price-z\n    pixels: 5\n  - type: pan\n    pixels: 5\n")
	replayOutput = "yaml"
	t.Cleanup(func() { replayOutput = "table" })

	err := runReplay(c, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 events failed")
	assert.Contains(t, buf.String(), "errors: 1")
	assert.Contains(t, buf.String(), path)
}

func TestRunReplayWorkbook(t *testing.T) {
	c, _ := newTestCommand(t)
	path := testutils.WriteScript(t, "script.yaml", testScript)
	replayOutput = "xlsx"
	t.Cleanup(func() { replayOutput, replayFile = "table", "" })

	err := runReplay(c, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out")

	replayFile = filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, runReplay(c, []string{path}))

	f, err := excelize.OpenFile(replayFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(output.SheetSteps)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchReplay(t *testing.T) {
	e := testEnv(t)
	e.cfg.Watch.Debounce = 20 * time.Millisecond
	path := testutils.WriteScript(t, "script.yaml", testScript)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchReplay(ctx, e, path, output.FormatJSON, out) }()

	edited := strings.Replace(testScript, "smoke", "edited", 1)
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(edited), 0o644)
		return strings.Contains(out.String(), `"script": "edited"`)
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchReplay did not stop")
	}
}

func TestServerWiring(t *testing.T) {
	e := testEnv(t)
	srv, closeAll, err := e.newServer()
	require.NoError(t, err)
	defer closeAll()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestVersionCommand(t *testing.T) {
	c, buf := newTestCommand(t)
	t.Cleanup(func() { versionFormat, versionShort, versionDetailed = "text", false, false })

	versionFormat = "json"
	require.NoError(t, runVersionCommand(c, nil))
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, version.GetVersion(), info.Version)

	buf.Reset()
	versionFormat, versionShort = "text", true
	require.NoError(t, runVersionCommand(c, nil))
	assert.Equal(t, version.GetVersion()+"\n", buf.String())

	versionFormat = "xml"
	assert.Error(t, runVersionCommand(c, nil))
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		value   string
		wantErr bool
	}{
		{"format ok", ValidateFormat, "yaml", false},
		{"format typo", ValidateFormat, "jsn", true},
		{"mode ok", ValidateMode, "vertical", false},
		{"mode bad", ValidateMode, "nearest", true},
		{"level ok", ValidateLogLevel, "DEBUG", false},
		{"level bad", ValidateLogLevel, "verbose", true},
		{"port ok", ValidatePort, "8080", false},
		{"port range", ValidatePort, "70000", true},
		{"port text", ValidatePort, "http", true},
		{"file empty", ValidateFileExists, "", false},
		{"file missing", ValidateFileExists, "/nonexistent/script.yaml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddFlagValidation(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var format string
	fs.StringVar(&format, "output", "table", "")
	AddFlagValidation(fs.Lookup("output"), ValidateFormat)

	require.NoError(t, fs.Parse([]string{"--output", "json"}))
	assert.Equal(t, "json", format)

	assert.Error(t, fs.Parse([]string{"--output", "csv"}))
	assert.Equal(t, "json", format)
}
