// Package img renders data set samples as colour mapped images.
package img

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
)

// color map definition
var cmap = [][3]float32{{0, 0, .5}, {0, 0, 1}, {0, .5, 1}, {0, 1, 1}, {.5, 1, .5}, {1, 1, 0}, {1, .5, 0}, {1, 0, 0}, {.5, 0, 0}}

// Heatmap image of one channel of a sample with shape [rows, cols, channels].
// Rows are drawn along the x axis, so a 248x16 scalogram is wider than it is high,
// with the first column at the top.
type Heatmap struct {
	Pix      []float32
	Rows     int
	Cols     int
	Channels int
	Channel  int
	Min, Max float32
}

// NewHeatmap creates a heatmap for channel 0 of the sample, scaled to its min and max values.
func NewHeatmap(values []float32, dims []int) (*Heatmap, error) {
	m := &Heatmap{Pix: values, Rows: 1, Cols: 1, Channels: 1}
	switch len(dims) {
	case 1:
		m.Rows = dims[0]
	case 2:
		m.Rows, m.Cols = dims[0], dims[1]
	case 3:
		m.Rows, m.Cols, m.Channels = dims[0], dims[1], dims[2]
	default:
		return nil, fmt.Errorf("heatmap: unsupported sample shape %v", dims)
	}
	if m.Rows*m.Cols*m.Channels != len(values) {
		return nil, fmt.Errorf("heatmap: have %d values for shape %v", len(values), dims)
	}
	first := true
	for _, v := range values {
		switch {
		case isNaN(v):
		case first:
			m.Min, m.Max, first = v, v, false
		case v < m.Min:
			m.Min = v
		case v > m.Max:
			m.Max = v
		}
	}
	return m, nil
}

// Value at the given row and column of the selected channel
func (m *Heatmap) Value(row, col int) float32 {
	return m.Pix[(row*m.Cols+col)*m.Channels+m.Channel]
}

func (m *Heatmap) ColorModel() color.Model {
	return color.NRGBAModel
}

func (m *Heatmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Rows, m.Cols)
}

func (m *Heatmap) At(x, y int) color.Color {
	if x < 0 || x >= m.Rows || y < 0 || y >= m.Cols {
		return color.NRGBA{}
	}
	return MapColor(m.Value(x, y), m.Min, m.Max)
}

// Scale image by an integer factor using nearest neighbour sampling
func Scale(src image.Image, factor int) *image.NRGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < b.Dy()*factor; y++ {
		for x := 0; x < b.Dx()*factor; x++ {
			dst.Set(x, y, src.At(b.Min.X+x/factor, b.Min.Y+y/factor))
		}
	}
	return dst
}

// Write image in png format
func WritePNG(w io.Writer, m image.Image) error {
	return png.Encode(w, m)
}

// convert value in range cmin:cmax to interpolated color from cmap, NaN maps to cmin
func MapColor(val float32, cmin, cmax float32) color.NRGBA {
	var col [3]float32
	ncol := len(cmap)
	switch {
	case isNaN(val) || isNaN(cmin) || isNaN(cmax) || val <= cmin:
		col = cmap[0]
	case val >= cmax:
		col = cmap[ncol-1]
	default:
		vsc := float32(ncol-1) * (val - cmin) / (cmax - cmin)
		ix := int(vsc)
		fx := vsc - float32(ix)
		for i := range col {
			col[i] = cmap[ix][i]*(1-fx) + cmap[ix+1][i]*fx
		}
	}
	return color.NRGBA{uint8(col[0] * 255), uint8(col[1] * 255), uint8(col[2] * 255), 255}
}

func isNaN(x float32) bool {
	return math.IsNaN(float64(x))
}
