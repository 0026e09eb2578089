// Package vision turns camera frames into blob feature vectors
package vision

import (
	"image"
	"image/color"

	"github.com/zeu5/forage-rl/types"
)

// DefaultMinFraction of matching pixels for a strip to count as a blob
const DefaultMinFraction = 0.02

// StripDetector splits the frame into equally wide vertical strips, left to
// right, and flags the strips where enough pixels match
type StripDetector struct {
	Strips      int
	MinFraction float64
	Match       func(color.Color) bool
}

var _ types.Detector = &StripDetector{}

func NewStripDetector(strips int) *StripDetector {
	return &StripDetector{
		Strips:      strips,
		MinFraction: DefaultMinFraction,
		Match:       IsGreen,
	}
}

// IsGreen accepts pixels where green clearly dominates
func IsGreen(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	r, g, b = r>>8, g>>8, b>>8
	return g >= 100 && g >= r+40 && g >= b+40
}

func (d *StripDetector) Detect(img image.Image) []bool {
	out := make([]bool, d.Strips)
	if d.Strips <= 0 || img == nil {
		return out
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return out
	}
	match := d.Match
	if match == nil {
		match = IsGreen
	}

	counts := make([]int, d.Strips)
	totals := make([]int, d.Strips)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			strip := (x - bounds.Min.X) * d.Strips / width
			totals[strip]++
			if match(img.At(x, y)) {
				counts[strip]++
			}
		}
	}
	for i := range out {
		if totals[i] == 0 {
			continue
		}
		out[i] = float64(counts[i])/float64(totals[i]) >= d.MinFraction && counts[i] > 0
	}
	return out
}
