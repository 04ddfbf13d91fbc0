package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/version"
)

type status struct {
	Version  string
	Uptime   time.Duration
	Clients  int
	Snapshot session.Snapshot
}

func (s *Server) status() status {
	return status{
		Version:  version.Get().Short(),
		Uptime:   time.Since(s.start).Round(time.Second),
		Clients:  s.hub.ClientCount(),
		Snapshot: s.hub.Snapshot(),
	}
}

// statusPage renders the pane table on every request.
func (s *Server) statusPage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return renderStatus(w, s.status())
	})
}

func renderStatus(w io.Writer, st status) error {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>panesync</title>`)
	b.WriteString(`<style>body{font-family:system-ui,sans-serif;margin:2rem}table{border-collapse:collapse}` +
		`td,th{border:1px solid #ccc;padding:.3rem .6rem;text-align:right}th{background:#f4f4f4}</style></head><body>`)
	fmt.Fprintf(&b, `<h1>panesync %s</h1>`, templ.EscapeString(st.Version))
	fmt.Fprintf(&b, `<p>%d connected clients, up %s. Connect to <code>/ws</code> to drive the session.</p>`,
		st.Clients, templ.EscapeString(st.Uptime.String()))

	b.WriteString(`<table><thead><tr><th>pane</th><th>plot area</th><th>measured right</th>` +
		`<th>reserved right</th><th>x range</th></tr></thead><tbody>`)
	for _, p := range st.Snapshot.Panes {
		xRange := ""
		if len(p.Axes) > 0 {
			xRange = p.Axes[0].Visible.String()
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%g</td><td>%g</td><td>%s</td></tr>`,
			templ.EscapeString(p.ID), templ.EscapeString(p.PlotArea.String()),
			p.Measured.Right, p.Reserved.Right, templ.EscapeString(xRange))
	}
	b.WriteString(`</tbody></table></body></html>`)

	_, err := io.WriteString(w, b.String())
	return err
}
