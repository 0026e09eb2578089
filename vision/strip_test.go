package vision

import (
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"testing"
)

var (
	gray  = color.RGBA{R: 90, G: 90, B: 95, A: 255}
	green = color.RGBA{R: 30, G: 200, B: 40, A: 255}
)

func frame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: gray}, image.Point{}, draw.Src)
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func TestIsGreen(t *testing.T) {
	cases := []struct {
		c    color.Color
		want bool
	}{
		{green, true},
		{gray, false},
		{color.RGBA{R: 200, G: 210, B: 200, A: 255}, false},
		{color.RGBA{R: 0, G: 90, B: 0, A: 255}, false},
		{color.RGBA{R: 0, G: 255, B: 0, A: 255}, true},
	}
	for _, c := range cases {
		if got := IsGreen(c.c); got != c.want {
			t.Errorf("IsGreen(%v) = %v, expected %v", c.c, got, c.want)
		}
	}
}

func TestDetectStrips(t *testing.T) {
	img := frame(100, 20)
	// strip 0 is x in [0, 20), strip 3 is [60, 80)
	fill(img, image.Rect(5, 5, 15, 15), green)
	fill(img, image.Rect(65, 0, 75, 20), green)

	d := NewStripDetector(5)
	want := []bool{true, false, false, true, false}
	if got := d.Detect(img); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDetectThreshold(t *testing.T) {
	img := frame(100, 20)
	// 4 of 400 pixels is below the 2% threshold
	fill(img, image.Rect(0, 0, 2, 2), green)
	d := NewStripDetector(5)
	if got := d.Detect(img); got[0] {
		t.Errorf("expected no blob for a speck, got %v", got)
	}
	d.MinFraction = 0.01
	if got := d.Detect(img); !got[0] {
		t.Errorf("expected a blob with a lower threshold, got %v", got)
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	img := frame(64, 16)
	fill(img, image.Rect(30, 4, 40, 12), green)
	d := NewStripDetector(4)
	first := d.Detect(img)
	for i := 0; i < 3; i++ {
		if got := d.Detect(img); !reflect.DeepEqual(got, first) {
			t.Fatalf("detection changed between calls: %v vs %v", first, got)
		}
	}
	if len(first) != 4 {
		t.Errorf("expected 4 features, got %d", len(first))
	}
}

func TestDetectOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 30, 20))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: gray}, image.Point{}, draw.Src)
	fill(img, image.Rect(25, 10, 30, 20), green)
	got := NewStripDetector(2).Detect(img)
	if !reflect.DeepEqual(got, []bool{false, true}) {
		t.Errorf("expected the right strip only, got %v", got)
	}
}
