package coords

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// markerArm is the half-length of the crosshair in snapshot pixels.
const markerArm = 12

var (
	markerColor  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	labelColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Annotate draws a crosshair at the snapshot-space point (x, y) and labels
// it with the device-space point the System maps it to. It is used to
// check visually that a planned coordinate lands where it should.
func Annotate(img image.Image, s *System, x, y int) *image.RGBA {
	rgba := toRGBA(img)
	p := s.Normalize(float64(x), float64(y))

	drawCrosshair(rgba, x, y, markerColor)
	label := fmt.Sprintf("snap(%d,%d) -> dev(%d,%d)", x, y, p.X, p.Y)
	drawTextWithOutline(rgba, label, x+markerArm+4, y-markerArm, labelColor, outlineColor)
	return rgba
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

func drawCrosshair(img *image.RGBA, cx, cy int, c color.Color) {
	b := img.Bounds()
	for d := -markerArm; d <= markerArm; d++ {
		if (image.Point{X: cx + d, Y: cy}).In(b) {
			img.Set(cx+d, cy, c)
		}
		if (image.Point{X: cx, Y: cy + d}).In(b) {
			img.Set(cx, cy+d, c)
		}
	}
}

// drawTextWithOutline draws text starting at (x, y) with a one pixel
// outline so it stays legible on any background.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outline color.Color) {
	draw1 := func(dx, dy int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x+dx, y+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			draw1(dx, dy, outline)
		}
	}
	draw1(0, 0, textColor)
}
