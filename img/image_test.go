package img

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestMapColor(t *testing.T) {
	tests := []struct {
		val    float32
		expect color.NRGBA
	}{
		{-1, color.NRGBA{0, 0, 127, 255}},
		{0, color.NRGBA{0, 0, 127, 255}},
		{0.5, color.NRGBA{127, 255, 127, 255}},
		{1, color.NRGBA{127, 0, 0, 255}},
		{2, color.NRGBA{127, 0, 0, 255}},
	}
	for _, test := range tests {
		if got := MapColor(test.val, 0, 1); got != test.expect {
			t.Errorf("MapColor(%v) = %v, expect %v", test.val, got, test.expect)
		}
	}
}

func TestHeatmap(t *testing.T) {
	// 3 rows x 2 cols x 1 channel
	values := []float32{0, 1, 2, 3, 4, 5}
	m, err := NewHeatmap(values, []int{3, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if b := m.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds %v, expect 3x2", b)
	}
	if m.Min != 0 || m.Max != 5 {
		t.Errorf("range %v:%v, expect 0:5", m.Min, m.Max)
	}
	if m.Value(2, 1) != 5 || m.Value(1, 0) != 2 {
		t.Errorf("unexpected values %v %v", m.Value(2, 1), m.Value(1, 0))
	}
	if m.At(0, 0) != MapColor(0, 0, 5) || m.At(2, 1) != MapColor(5, 0, 5) {
		t.Error("color mismatch")
	}

	scaled := Scale(m, 4)
	if b := scaled.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("scaled bounds %v, expect 12x8", b)
	}
	if scaled.At(11, 7) != m.At(2, 1) {
		t.Error("scaled color mismatch")
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, scaled); err != nil {
		t.Fatal(err)
	}
	dec, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := dec.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("decoded bounds %v", b)
	}
}

func TestHeatmapShapeError(t *testing.T) {
	if _, err := NewHeatmap(make([]float32, 5), []int{3, 2}); err == nil {
		t.Error("expected error for size mismatch")
	}
	if _, err := NewHeatmap(make([]float32, 16), []int{2, 2, 2, 2}); err == nil {
		t.Error("expected error for 4d shape")
	}
}

func TestHeatmapNaN(t *testing.T) {
	nan := float32(math.NaN())
	m, err := NewHeatmap([]float32{nan, 1, 3, nan}, []int{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if m.Min != 1 || m.Max != 3 {
		t.Errorf("range %v:%v, expect 1:3", m.Min, m.Max)
	}
	low := color.NRGBA{0, 0, 127, 255}
	if m.At(0, 0) != low || m.At(1, 1) != low {
		t.Errorf("NaN pixels: got %v %v", m.At(0, 0), m.At(1, 1))
	}
	if got := MapColor(0.5, nan, 1); got != low {
		t.Errorf("NaN range: got %v", got)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, Scale(m, 2)); err != nil {
		t.Fatal(err)
	}
}
