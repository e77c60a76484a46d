package nnet

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadPickle(t *testing.T) {
	obj, err := LoadPickle("testdata/list.pkl")
	if err != nil {
		t.Fatal(err)
	}
	expect := []interface{}{1, 2.5, "three", []interface{}{4}}
	if got := ToGo(obj); !reflect.DeepEqual(got, expect) {
		t.Errorf("got %#v expect %#v", got, expect)
	}
}

func TestLoadPickleDict(t *testing.T) {
	obj, err := LoadPickle("testdata/dataset.pkl")
	if err != nil {
		t.Fatal(err)
	}
	m, ok := ToGo(obj).(map[interface{}]interface{})
	if !ok {
		t.Fatalf("expecting map, got %T", ToGo(obj))
	}
	expect := map[interface{}]interface{}{
		"x": []interface{}{
			[]interface{}{[]interface{}{0.5}, []interface{}{1.0}},
			[]interface{}{[]interface{}{0.25}, []interface{}{-2.0}},
			[]interface{}{[]interface{}{0.0}, []interface{}{3.5}},
		},
		"y":       []interface{}{0, 2, 1},
		"classes": []interface{}{"a", "b", "c"},
	}
	if !reflect.DeepEqual(m, expect) {
		t.Errorf("got %#v", m)
	}
}

func TestLoadPickleMissing(t *testing.T) {
	_, err := LoadPickle(filepath.Join(t.TempDir(), "missing.pkl"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not exist error, got %v", err)
	}
}

func TestLoadPickleInvalid(t *testing.T) {
	if _, err := LoadPickle("testdata/bad.pkl"); err == nil {
		t.Error("expected error for invalid pickle data")
	}
}

func TestFromPickle(t *testing.T) {
	d, err := LoadData("testdata/dataset.pkl")
	if err != nil {
		t.Fatal(err)
	}
	expect := &Data{
		Class:  []string{"a", "b", "c"},
		Dims:   []int{2, 1},
		Labels: []int32{0, 2, 1},
		Inputs: []float32{0.5, 1, 0.25, -2, 0, 3.5},
	}
	if !reflect.DeepEqual(d, expect) {
		t.Errorf("got %+v", d)
	}
	if in := d.Input(1); !reflect.DeepEqual(in, []float32{0.25, -2}) {
		t.Errorf("input 1 = %v", in)
	}
	if counts := d.ClassCounts(); !reflect.DeepEqual(counts, []int{1, 1, 1}) {
		t.Errorf("class counts %v", counts)
	}
	if err := d.CheckShape([]int{2, 1}); err != nil {
		t.Error(err)
	}
	if err := d.CheckShape([]int{2}); err != nil {
		t.Error(err)
	}
	if err := d.CheckShape([]int{1, 2}); err == nil {
		t.Error("expected shape mismatch")
	}
}

func TestFromPickleOneHot(t *testing.T) {
	d, err := LoadData("testdata/onehot.pkl")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d.Labels, []int32{1, 0}) {
		t.Errorf("labels %v", d.Labels)
	}
	if !reflect.DeepEqual(d.Class, []string{"0", "1"}) {
		t.Errorf("classes %v", d.Class)
	}
	if !reflect.DeepEqual(d.Dims, []int{2}) {
		t.Errorf("dims %v", d.Dims)
	}
}

func TestFromPickleErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  interface{}
	}{
		{"not a dataset", "hello"},
		{"empty inputs", []interface{}{[]interface{}{}, []interface{}{}}},
		{"ragged", []interface{}{
			[]interface{}{[]interface{}{1.0, 2.0}, []interface{}{3.0}},
			[]interface{}{0, 1},
		}},
		{"label count", []interface{}{[]interface{}{1.0, 2.0}, []interface{}{0}}},
		{"non numeric", []interface{}{[]interface{}{"a", "b"}, []interface{}{0, 1}}},
		{"negative label", []interface{}{[]interface{}{1.0, 2.0}, []interface{}{0, -1}}},
		{"fractional label", []interface{}{[]interface{}{1.0, 2.0}, []interface{}{0, 0.5}}},
		{"too few classes", []interface{}{
			[]interface{}{1.0, 2.0},
			[]interface{}{0, 3},
			[]interface{}{"a", "b"},
		}},
	}
	for _, test := range tests {
		if _, err := FromPickle(test.obj); err == nil {
			t.Errorf("%s: expected error", test.name)
		} else {
			t.Logf("%s: %v", test.name, err)
		}
	}
}

func TestDataFile(t *testing.T) {
	d := NewData(3, []int{2, 2}, []int32{0, 2}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	file := filepath.Join(t.TempDir(), "data.dat")
	if err := SaveDataFile(d, file); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Fatal("file not saved")
	}
	d2, err := LoadData(file)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, d2) {
		t.Errorf("got %+v expect %+v", d2, d)
	}
}

func TestDataFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		data *Data
	}{
		{"label too large", NewData(2, []int{2}, []int32{0, 5}, []float32{1, 2, 3, 4})},
		{"negative label", NewData(2, []int{2}, []int32{-1, 0}, []float32{1, 2, 3, 4})},
		{"short inputs", NewData(2, []int{2}, []int32{0, 1}, []float32{1, 2, 3})},
		{"zero dims", NewData(2, []int{0}, []int32{0, 1}, nil)},
		{"no dims", NewData(2, nil, []int32{0}, []float32{1})},
	}
	for _, test := range tests {
		file := filepath.Join(t.TempDir(), "data.dat")
		if err := SaveDataFile(test.data, file); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadData(file); err == nil {
			t.Errorf("%s: expected error", test.name)
		} else {
			t.Logf("%s: %v", test.name, err)
		}
	}
}

func TestSummary(t *testing.T) {
	d := NewData(2, []int{2}, []int32{0, 0, 1}, []float32{1, 2, 3, 4, 5, 6})
	s := d.Summary()
	if s.Samples != 3 || s.Min != 1 || s.Max != 6 {
		t.Errorf("summary %+v", s)
	}
	if s.Input.Mean != 3.5 {
		t.Errorf("mean %v", s.Input.Mean)
	}
	if !reflect.DeepEqual(s.Counts, []int{2, 1}) {
		t.Errorf("counts %v", s.Counts)
	}
	if !strings.Contains(s.String(), "class 1         : 1") {
		t.Errorf("summary text:\n%s", s)
	}
}
