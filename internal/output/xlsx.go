package output

import (
	"io"
	"math"
	"strings"

	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/xuri/excelize/v2"
)

const (
	SheetPanes = "panes"
	SheetAxes  = "axes"
	SheetSteps = "steps"
	SheetHits  = "hits"
)

// writeWorkbook lays each non-empty collection on its own sheet.
func writeWorkbook(w io.Writer, steps []*session.Step, snap session.Snapshot, hits []*hittest.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	sheet := func(name string, header []any, rows [][]any) error {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
		}
		return nil
	}

	if len(steps) > 0 {
		if err := sheet(SheetSteps, []any{"index", "event", "hits", "nearest", "duration_ms", "error"}, stepRows(steps)); err != nil {
			return err
		}
	}
	if len(snap.Panes) > 0 {
		if err := sheet(SheetPanes, []any{
			"pane", "x", "y", "width", "height",
			"measured_left", "measured_right", "reserved_left", "reserved_right",
		}, paneRows(snap)); err != nil {
			return err
		}
		if err := sheet(SheetAxes, []any{"pane", "axis", "alignment", "min", "max", "labels"}, axisRows(snap)); err != nil {
			return err
		}
	}
	if len(hits) > 0 || first {
		if err := sheet(SheetHits, []any{"rank", "series", "index", "x", "y", "pixel_x", "pixel_y", "distance"}, hitRows(hits)); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// cellValue blanks non-finite values, which a worksheet cannot store.
func cellValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func stepRows(steps []*session.Step) [][]any {
	rows := make([][]any, 0, len(steps))
	for _, st := range steps {
		nearest := ""
		if len(st.Hits) > 0 {
			nearest = st.Hits[0].String()
		}
		rows = append(rows, []any{
			st.Index, st.Event, len(st.Hits), nearest,
			float64(st.Duration.Microseconds()) / 1000, st.Error,
		})
	}
	return rows
}

func paneRows(snap session.Snapshot) [][]any {
	rows := make([][]any, 0, len(snap.Panes))
	for _, p := range snap.Panes {
		a := p.PlotArea
		rows = append(rows, []any{
			p.ID, a.X, a.Y, a.Width, a.Height,
			p.Measured.Left, p.Measured.Right, p.Reserved.Left, p.Reserved.Right,
		})
	}
	return rows
}

func axisRows(snap session.Snapshot) [][]any {
	var rows [][]any
	for _, p := range snap.Panes {
		for _, a := range p.Axes {
			rows = append(rows, []any{
				p.ID, a.ID, a.Align, cellValue(a.Visible.Min), cellValue(a.Visible.Max),
				strings.Join(a.Labels, " "),
			})
		}
	}
	return rows
}

func hitRows(hits []*hittest.Result) [][]any {
	rows := make([][]any, 0, len(hits))
	for i, h := range hits {
		rows = append(rows, []any{
			i + 1, string(h.SeriesID), h.Index,
			cellValue(h.DataX), cellValue(h.DataY),
			cellValue(h.PixelX), cellValue(h.PixelY), cellValue(h.Distance),
		})
	}
	return rows
}
