// Package timewindow reduces a time-ordered forecast series to the
// slice a display window asks for. Pure functions only.
package timewindow

import (
	"fmt"
	"strings"

	"github.com/nomixtrade/marketsync/pkg/models"
)

// Window is a named display span over a daily series.
type Window string

const (
	Day        Window = "1D"
	Week       Window = "7D"
	Month      Window = "30D"
	Everything Window = "ALL"
)

// points returns how many trailing points a window shows, or -1 for the
// whole series. 1D keeps the last 3 points so the jump into the
// prediction stays visible; 7D keeps 10 for a little history context.
func (w Window) points() int {
	switch w {
	case Day:
		return 3
	case Week:
		return 10
	case Month:
		return 30
	default:
		return -1
	}
}

// Valid reports whether w is one of the supported windows.
func (w Window) Valid() bool {
	switch w {
	case Day, Week, Month, Everything:
		return true
	}
	return false
}

// Parse maps user input like "7d" to a Window.
func Parse(s string) (Window, error) {
	w := Window(strings.ToUpper(strings.TrimSpace(s)))
	if !w.Valid() {
		return "", fmt.Errorf("unknown time window %q (want 1D, 7D, 30D or ALL)", s)
	}
	return w, nil
}

// Slice returns the suffix of series the window displays. Series shorter
// than the window come back whole; ALL and unknown windows return the
// series unmodified.
func Slice(series []models.GraphPoint, w Window) []models.GraphPoint {
	n := w.points()
	if n < 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
