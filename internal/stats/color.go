package stats

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// PercentColor returns a hex color for an accuracy percentage: a flat red up
// to 50%, then a hue sweep from red to green.
func PercentColor(percent int) string {
	p := math.Max(0, math.Min(100, float64(percent)))
	if p <= 50 {
		return colorful.Hsl(0, 0.72, 0.52).Hex()
	}
	hue := math.Round((p - 50) / 50 * 120)
	return colorful.Hsl(hue, 0.68, 0.45).Hex()
}
