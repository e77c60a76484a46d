package stats

import (
	"math"
	"testing"
)

func TestAverage(t *testing.T) {
	var s Average
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(x)
	}
	if s.Count != 8 || math.Abs(s.Mean-5) > 1e-12 {
		t.Errorf("count=%v mean=%v, expect 8 and 5", s.Count, s.Mean)
	}
	// sample stddev = sqrt(32/7)
	if math.Abs(s.StdDev-math.Sqrt(32.0/7)) > 1e-9 {
		t.Errorf("stddev=%v", s.StdDev)
	}
}

func TestAverageHTML(t *testing.T) {
	tests := []struct {
		values []float64
		expect string
	}{
		{[]float64{1, 1}, "1.00"},
		{[]float64{1, 2}, "1.50&PlusMinus;0.71"},
		{[]float64{20, 20}, "20.0"},
		{[]float64{-20, -30}, "-25.0&PlusMinus;7.1"},
	}
	for _, test := range tests {
		var s Average
		for _, x := range test.values {
			s.Add(x)
		}
		if got := string(s.HTML()); got != test.expect {
			t.Errorf("%v: got %q expect %q", test.values, got, test.expect)
		}
	}
}
