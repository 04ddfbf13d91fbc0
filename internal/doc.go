// Package internal contains the implementation packages for panesync.
//
// These packages are not importable by external modules. They back the
// panesync CLI, which builds a multi-pane stock chart, keeps the panes in
// step with each other and answers hit-test queries against it.
//
// # Package Organization
//
//   - chart: panes, axes, renderable series, data buffers and the update scope
//   - chartsync: axis range and plot-area size synchronizers
//   - hittest: point, band and heatmap hit-test strategies and the engine
//   - stockchart: the price/MACD/RSI/volume layout wired to the synchronizers
//   - indicators, mockdata: generated candles and derived indicator series
//   - session: scripted events applied to a chart, one step per event
//   - output: table, JSON, YAML and workbook writers
//   - server, websocket: HTTP status page, REST events and a live event hub
//   - config, logging, errors, validation, monitoring, watcher, version:
//     ambient support shared by the commands
//
// # Concurrency
//
// A chart is single-threaded. The session serializes access to it; the
// websocket hub and HTTP handlers go through the session and never touch
// chart state directly.
package internal
