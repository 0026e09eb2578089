package sim

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg"
)

var (
	floorColor   = color.RGBA{R: 90, G: 90, B: 95, A: 255}
	wallColor    = color.RGBA{R: 170, G: 165, B: 160, A: 255}
	pelletColor  = color.RGBA{R: 30, G: 200, B: 40, A: 255}
	minBlobPixel = 1.0
)

type sighting struct {
	bearing  float64
	distance float64
}

// visible returns the pellets inside the field of view, farthest first.
// Positive bearings are to the left of the robot.
func (a *Arena) visible() []sighting {
	half := a.config.FieldOfView / 2
	out := make([]sighting, 0, len(a.food))
	for _, p := range a.food {
		if p.collected {
			continue
		}
		dx, dy := p.X-a.pose.X, p.Y-a.pose.Y
		d := math.Hypot(dx, dy)
		if d <= 0 || d > a.config.ViewDistance {
			continue
		}
		bearing := normalizeAngle(math.Atan2(dy, dx) - a.pose.Heading)
		if math.Abs(bearing) > half {
			continue
		}
		out = append(out, sighting{bearing: bearing, distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].distance > out[j].distance
	})
	return out
}

// render draws the forward camera as a pinhole projection, pellets show up
// as green discs whose size shrinks with distance. The phone tilt moves the
// horizon.
func (a *Arena) render() image.Image {
	w, h := float64(a.config.ImageWidth), float64(a.config.ImageHeight)
	dc := gg.NewContext(a.config.ImageWidth, a.config.ImageHeight)

	horizon := h * (0.5 - 0.5*(a.tilt-0.5))
	dc.SetColor(wallColor)
	dc.Clear()
	dc.DrawRectangle(0, horizon, w, h-horizon)
	dc.SetColor(floorColor)
	dc.Fill()

	focal := (w / 2) / math.Tan(a.config.FieldOfView/2)
	dc.SetColor(pelletColor)
	for _, s := range a.visible() {
		x := w/2 - focal*math.Tan(s.bearing)
		r := math.Max(minBlobPixel, focal*a.config.FoodRadius/s.distance)
		y := horizon + r
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}
	return dc.Image()
}
