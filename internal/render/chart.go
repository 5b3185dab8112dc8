package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/guregu/null/v5"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"MacroMonitor/internal/calculator"
	"MacroMonitor/internal/model"
)

// ErrNoPoints is returned when a chart has no defined values to draw.
var ErrNoPoints = errors.New("no points to plot")

var (
	lineColor   = color.RGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0xff}
	fillColor   = color.NRGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0x1a}
	highColor   = color.RGBA{R: 0x28, G: 0xa7, B: 0x45, A: 0xff}
	lowColor    = color.RGBA{R: 0xdc, G: 0x35, B: 0x45, A: 0xff}
	medianColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// Sparkline sizes.
const (
	SparkWidth  = 3.5 * vg.Inch
	SparkHeight = 1.5 * vg.Inch
)

// toXYs drops undefined points; X is Unix seconds.
func toXYs(pts []model.Point) plotter.XYs {
	xys := make(plotter.XYs, 0, len(pts))
	for _, p := range pts {
		if p.Value.Valid {
			xys = append(xys, plotter.XY{X: float64(p.Time.Unix()), Y: p.Value.Float64})
		}
	}
	return xys
}

func encodePNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func addLine(p *plot.Plot, xys plotter.XYs, fill bool) error {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	if fill {
		line.FillColor = fillColor
	}
	p.Add(line)
	return nil
}

func addMarker(p *plot.Plot, xy plotter.XY, c color.Color) error {
	s, err := plotter.NewScatter(plotter.XYs{xy})
	if err != nil {
		return err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(s)
	return nil
}

func addLevel(p *plot.Plot, y float64, dashed bool) {
	f := plotter.NewFunction(func(float64) float64 { return y })
	f.Color = medianColor
	f.Width = vg.Points(0.6)
	if dashed {
		f.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	}
	p.Add(f)
}

// Sparkline draws s as an axis-free trend line with area fill, rebased to
// 100 when normalized. Green and red markers sit on the series' high and low.
func Sparkline(s model.Series, normalized bool) ([]byte, error) {
	pts := calculator.Points(s)
	if normalized {
		pts = calculator.Normalize(s)
	}
	xys := toXYs(pts)
	if len(xys) == 0 {
		return nil, ErrNoPoints
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent
	if err := addLine(p, xys, true); err != nil {
		return nil, err
	}

	low, high, _ := calculator.Extremes(s)
	for _, m := range []struct {
		obs model.Observation
		c   color.Color
	}{{high, highColor}, {low, lowColor}} {
		xy, ok := pointAt(pts, m.obs.Time)
		if !ok {
			continue
		}
		if err := addMarker(p, xy, m.c); err != nil {
			return nil, err
		}
	}
	return encodePNG(p, SparkWidth, SparkHeight)
}

// pointAt finds the defined point drawn at t.
func pointAt(pts []model.Point, t time.Time) (plotter.XY, bool) {
	for _, pt := range pts {
		if pt.Time.Equal(t) && pt.Value.Valid {
			return plotter.XY{X: float64(pt.Time.Unix()), Y: pt.Value.Float64}, true
		}
	}
	return plotter.XY{}, false
}

// LineChart draws a titled time-series chart with a date axis.
func LineChart(title string, pts []model.Point, w, h vg.Length) ([]byte, error) {
	xys := toXYs(pts)
	if len(xys) == 0 {
		return nil, ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())
	if err := addLine(p, xys, false); err != nil {
		return nil, err
	}
	return encodePNG(p, w, h)
}

// ValuationChart draws a ratio-to-median series with the median (1.0) and
// dotted bands at one standard deviation either side.
func ValuationChart(title string, ratio []model.Point, sigma null.Float, w, h vg.Length) ([]byte, error) {
	xys := toXYs(ratio)
	if len(xys) == 0 {
		return nil, ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())
	if err := addLine(p, xys, false); err != nil {
		return nil, err
	}
	addLevel(p, 1.0, false)
	p.Y.Min = math.Min(p.Y.Min, 1.0)
	p.Y.Max = math.Max(p.Y.Max, 1.0)
	if sigma.Valid {
		addLevel(p, 1.0+sigma.Float64, true)
		addLevel(p, 1.0-sigma.Float64, true)
		p.Y.Min = math.Min(p.Y.Min, 1.0-sigma.Float64)
		p.Y.Max = math.Max(p.Y.Max, 1.0+sigma.Float64)
	}
	return encodePNG(p, w, h)
}
