//go:build gui

package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"fyne.io/fyne/v2"

	"earcheck/chart"
)

// appIcon draws concentric rings in the left/right ear colors.
func appIcon() fyne.Resource {
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	left := hexColor(chart.LeftColor)
	right := hexColor(chart.RightColor)

	center := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center + 0.5
			dy := float64(y) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)
			switch {
			case dist < 8:
				img.Set(x, y, color.RGBA{102, 126, 234, 255})
			case dist < 16 && dx < 0, dist >= 22 && dist < 28 && dx < 0:
				img.Set(x, y, left)
			case dist < 16, dist >= 22 && dist < 28:
				img.Set(x, y, right)
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return fyne.NewStaticResource("earcheck.png", buf.Bytes())
}
