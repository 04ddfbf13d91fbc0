package chart

import "math"

// StackVertical splits bounds into n pane rectangles from top to bottom,
// separated by spacing pixels. Heights follow ratios when one is given per
// pane (non-positive ratios count as 1) and are equal otherwise. Leftover
// pixels from rounding go to the first panes.
func StackVertical(bounds Rect, n int, ratios []float64, spacing float64) []Rect {
	if n <= 0 {
		return nil
	}
	usable := bounds.Height - spacing*float64(n-1)
	if usable < float64(n) {
		usable = float64(n)
	}
	heights := splitHeights(int(usable), n, ratios)

	out := make([]Rect, n)
	y := bounds.Y
	for i, h := range heights {
		out[i] = Rect{X: bounds.X, Y: y, Width: bounds.Width, Height: float64(h)}
		y += float64(h) + spacing
	}
	return out
}

func splitHeights(total, n int, ratios []float64) []int {
	out := make([]int, n)
	if len(ratios) != n {
		h := total / n
		for i := range out {
			out[i] = h
		}
		for i := 0; i < total%n; i++ {
			out[i]++
		}
		return out
	}

	weights := make([]float64, n)
	sum := 0.0
	for i, r := range ratios {
		if r <= 0 || !isFinite(r) {
			r = 1
		}
		weights[i] = r
		sum += r
	}
	used := 0
	for i, w := range weights {
		out[i] = int(math.Floor(w / sum * float64(total)))
		used += out[i]
	}
	for i := 0; used < total; i = (i + 1) % n {
		out[i]++
		used++
	}
	return out
}
