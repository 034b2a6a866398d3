package chart

import (
	"fmt"
	"io"
	"strings"

	"earcheck/engine"
)

// SVG renders the audiogram as a standalone SVG element.
func SVG(rs engine.ResultSet, l Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="Arial, sans-serif">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	fmt.Fprintf(&b, `<rect width="%g" height="%g" fill="#ffffff"/>`+"\n", l.Width, l.Height)

	right := l.Padding + l.plotWidth()
	bottom := l.Padding + l.plotHeight()

	for _, db := range GridLevels() {
		y := l.Y(float64(db))
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="1"/>`+"\n", l.Padding, y, right, y, GridColor)
		fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="12" fill="%s" text-anchor="end">%d dB</text>`+"\n", l.Padding-10, y+4, LabelColor, db)
	}
	for i, f := range engine.Frequencies {
		x := l.X(i)
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="1"/>`+"\n", x, l.Padding, x, bottom, GridColor)
		fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="12" fill="%s" text-anchor="middle">%d</text>`+"\n", x, bottom+20, LabelColor, f)
	}
	fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="14" fill="#333333" text-anchor="middle">Frequency (Hz)</text>`+"\n",
		l.Padding+l.plotWidth()/2, bottom+45)
	fmt.Fprintf(&b, `<text transform="translate(20 %g) rotate(-90)" font-size="14" fill="#333333" text-anchor="middle">Hearing Threshold (dB HL)</text>`+"\n",
		l.Padding+l.plotHeight()/2)

	for _, s := range FromResults(rs) {
		if len(s.Points) == 0 {
			continue
		}
		pts := make([]string, len(s.Points))
		for i, p := range s.Points {
			pts[i] = fmt.Sprintf("%g,%g", l.X(p.Index), l.Y(p.DB))
		}
		fmt.Fprintf(&b, `<polyline class="ear-%s" points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			s.Ear, strings.Join(pts, " "), s.Color)
		for _, p := range s.Points {
			fmt.Fprintf(&b, `<rect x="%g" y="%g" width="6" height="6" fill="%s"/>`+"\n", l.X(p.Index)-3, l.Y(p.DB)-3, s.Color)
		}
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func WriteSVG(w io.Writer, rs engine.ResultSet, l Layout) error {
	_, err := io.WriteString(w, SVG(rs, l))
	return err
}
