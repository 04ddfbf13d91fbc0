package output

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/session"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = cellStyle.Foreground(lipgloss.Color("9"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func snapshotTable(snap session.Snapshot) string {
	t := newTable("PANE", "PLOT AREA", "MEASURED L/R", "RESERVED L/R", "X RANGE", "Y RANGE", "MARKERS")
	for _, p := range snap.Panes {
		var x, y string
		for _, a := range p.Axes {
			switch a.Align {
			case "top", "bottom":
				if x == "" {
					x = a.Visible.String()
				}
			default:
				if y == "" {
					y = a.Visible.String()
				}
			}
		}
		t.Row(
			p.ID,
			p.PlotArea.String(),
			num(p.Measured.Left)+" / "+num(p.Measured.Right),
			num(p.Reserved.Left)+" / "+num(p.Reserved.Right),
			x, y,
			strconv.Itoa(len(p.Markers)),
		)
	}
	return t.String()
}

func stepsTable(steps []*session.Step) string {
	errRows := map[int]bool{}
	t := newTable("#", "EVENT", "HITS", "NEAREST", "RIGHT GUTTER", "DURATION", "ERROR")
	for i, st := range steps {
		nearest := ""
		if len(st.Hits) > 0 {
			nearest = st.Hits[0].String()
		}
		gutter := ""
		if len(st.Snapshot.Panes) > 0 {
			gutter = num(st.Snapshot.Panes[0].Reserved.Right)
		}
		if st.Error != "" {
			errRows[i] = true
		}
		t.Row(strconv.Itoa(st.Index), st.Event, strconv.Itoa(len(st.Hits)), nearest, gutter,
			st.Duration.String(), st.Error)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case errRows[row]:
			return errorStyle
		}
		return cellStyle
	})
	return t.String()
}

func hitsTable(hits []*hittest.Result) string {
	t := newTable("RANK", "SERIES", "INDEX", "X", "Y", "PIXEL", "DISTANCE")
	for i, h := range hits {
		t.Row(
			strconv.Itoa(i+1),
			string(h.SeriesID),
			strconv.Itoa(h.Index),
			num(h.DataX),
			num(h.DataY),
			"("+num(h.PixelX)+", "+num(h.PixelY)+")",
			strconv.FormatFloat(h.Distance, 'f', 2, 64),
		)
	}
	return t.String()
}
