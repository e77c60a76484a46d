package web

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/jnb666/wavenet/nnet"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.X.Padding, p.Y.Padding = 0, 0
	p.Add(plotter.NewGrid())
	return p
}

// bar chart with one named bar per value
func barPlot(title, ylabel string, names []string, values []float64, ix int) (*plot.Plot, error) {
	p := newPlot(title, ylabel)
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(ix)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// ParamPlot returns a bar chart of the number of parameters in each layer with weights.
func ParamPlot(net *nnet.Network) (*plot.Plot, error) {
	var names []string
	var values []float64
	for i := range net.Layers {
		if n := net.LayerParams(i); n > 0 {
			names = append(names, strconv.Itoa(i))
			values = append(values, float64(n))
		}
	}
	return barPlot("parameters per layer", "params", names, values, 0)
}

// render plot as inline svg
func writePlot(p *plot.Plot, w, h int) (template.HTML, error) {
	var buf bytes.Buffer
	writer, err := p.WriterTo(vg.Points(float64(w)), vg.Points(float64(h)), "svg")
	if err != nil {
		return "", fmt.Errorf("error writing plot: %w", err)
	}
	if _, err = writer.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("error writing plot: %w", err)
	}
	return template.HTML(buf.String()), nil
}
