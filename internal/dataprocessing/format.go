package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
)

// FormatThousands renders a cell for on-screen display in abbreviated
// thousands notation: 0 (which also covers missing, since pivot cells are
// zero-filled) renders empty, everything else rounds to the nearest
// thousand with a K suffix.
func FormatThousands(value float64) string {
	if value == 0 {
		return ""
	}
	return fmt.Sprintf("%dK", int64(math.Round(value/1000)))
}

// FormatMillions renders a grand total for the preview cards, e.g. "$1.23M".
func FormatMillions(value float64) string {
	return fmt.Sprintf("$%.2fM", value/1_000_000)
}

// FormatExact renders a cell for export: the unrounded value with the
// shortest representation that round-trips.
func FormatExact(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
