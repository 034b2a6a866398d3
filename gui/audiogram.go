//go:build gui

package gui

import (
	"fmt"
	"image/color"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"earcheck/chart"
	"earcheck/engine"
)

const markerSize = 6

var (
	gridColor  = hexColor(chart.GridColor)
	labelColor = hexColor(chart.LabelColor)
	axisColor  = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// AudiogramWidget draws both ears' thresholds on the standard axes.
type AudiogramWidget struct {
	widget.BaseWidget
	mu      sync.Mutex
	results engine.ResultSet
}

func NewAudiogramWidget() *AudiogramWidget {
	w := &AudiogramWidget{}
	w.ExtendBaseWidget(w)
	return w
}

// SetResults must be called on the fyne goroutine.
func (w *AudiogramWidget) SetResults(rs engine.ResultSet) {
	w.mu.Lock()
	w.results = rs
	w.mu.Unlock()
	w.Refresh()
}

func (w *AudiogramWidget) MinSize() fyne.Size {
	l := chart.DefaultLayout
	return fyne.NewSize(float32(l.Width), float32(l.Height))
}

func (w *AudiogramWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &audiogramRenderer{w: w, bg: canvas.NewRectangle(color.White)}
	r.rebuild(w.MinSize())
	return r
}

type audiogramRenderer struct {
	w       *AudiogramWidget
	size    fyne.Size
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *audiogramRenderer) Layout(size fyne.Size) {
	r.rebuild(size)
}

func (r *audiogramRenderer) MinSize() fyne.Size {
	return r.w.MinSize()
}

func (r *audiogramRenderer) Refresh() {
	r.rebuild(r.size)
	for _, o := range r.objects {
		o.Refresh()
	}
}

func (r *audiogramRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *audiogramRenderer) Destroy() {}

func (r *audiogramRenderer) rebuild(size fyne.Size) {
	r.size = size
	r.w.mu.Lock()
	rs := r.w.results
	r.w.mu.Unlock()

	l := chart.Layout{Width: float64(size.Width), Height: float64(size.Height), Padding: chart.DefaultLayout.Padding}
	left, right := l.X(0), l.X(len(engine.Frequencies)-1)
	top, bottom := l.Y(chart.MinDB), l.Y(chart.MaxDB)

	r.bg.Resize(size)
	objs := []fyne.CanvasObject{r.bg}

	for _, db := range chart.GridLevels() {
		y := l.Y(float64(db))
		objs = append(objs, line(left, y, right, y, gridColor, 1))
		objs = append(objs, text(fmt.Sprintf("%d dB", db), left-50, y-8, labelColor, 12))
	}
	for i, f := range engine.Frequencies {
		x := l.X(i)
		objs = append(objs, line(x, top, x, bottom, gridColor, 1))
		objs = append(objs, text(strconv.Itoa(f), x-14, bottom+8, labelColor, 12))
	}
	objs = append(objs, text("Frequency (Hz)", (left+right)/2-50, bottom+30, axisColor, 14))

	if rs != nil {
		for _, s := range chart.FromResults(rs) {
			c := hexColor(s.Color)
			for i, p := range s.Points {
				x, y := l.X(p.Index), l.Y(p.DB)
				if i > 0 {
					prev := s.Points[i-1]
					objs = append(objs, line(l.X(prev.Index), l.Y(prev.DB), x, y, c, 2))
				}
				m := canvas.NewRectangle(c)
				m.Move(fyne.NewPos(float32(x)-markerSize/2, float32(y)-markerSize/2))
				m.Resize(fyne.NewSize(markerSize, markerSize))
				objs = append(objs, m)
			}
		}
	}
	r.objects = objs
}

func line(x1, y1, x2, y2 float64, c color.Color, width float32) *canvas.Line {
	ln := canvas.NewLine(c)
	ln.StrokeWidth = width
	ln.Position1 = fyne.NewPos(float32(x1), float32(y1))
	ln.Position2 = fyne.NewPos(float32(x2), float32(y2))
	return ln
}

func text(s string, x, y float64, c color.Color, size float32) *canvas.Text {
	t := canvas.NewText(s, c)
	t.TextSize = size
	t.Move(fyne.NewPos(float32(x), float32(y)))
	return t
}

// hexColor parses "#rrggbb".
func hexColor(s string) color.NRGBA {
	var c color.NRGBA
	c.A = 0xff
	fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return c
}
