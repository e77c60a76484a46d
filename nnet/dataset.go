package nnet

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/jnb666/wavenet/stats"
	"github.com/nlpodyssey/gopickle/types"
)

var (
	inputKeys = []string{"x", "X", "inputs", "data"}
	labelKeys = []string{"y", "Y", "labels", "targets"}
)

// Data type holds the raw data for a training or test set. Inputs are stored in
// row major order with Prod(Dims) values per sample.
type Data struct {
	Class  []string
	Dims   []int
	Labels []int32
	Inputs []float32
}

// NewData function creates a new data set with numbered class names.
func NewData(nclasses int, shape []int, labels []int32, inputs []float32) *Data {
	classes := make([]string, nclasses)
	for i := range classes {
		classes[i] = strconv.Itoa(i)
	}
	return &Data{Class: classes, Dims: shape, Labels: labels, Inputs: inputs}
}

func (d *Data) Len() int { return len(d.Labels) }

func (d *Data) Classes() []string { return d.Class }

func (d *Data) Shape() []int { return d.Dims }

// Input values for sample i.
func (d *Data) Input(i int) []float32 {
	nfeat := Prod(d.Dims)
	return d.Inputs[i*nfeat : (i+1)*nfeat]
}

// Number of samples with each class label.
func (d *Data) ClassCounts() []int {
	counts := make([]int, len(d.Class))
	for _, label := range d.Labels {
		counts[label]++
	}
	return counts
}

// check that the sample shape, inputs and labels are consistent
func (d *Data) check() error {
	if len(d.Dims) == 0 {
		return fmt.Errorf("data: sample shape not set")
	}
	for _, n := range d.Dims {
		if n <= 0 {
			return fmt.Errorf("data: invalid sample shape %v", d.Dims)
		}
	}
	if nfeat := Prod(d.Dims); len(d.Inputs) != d.Len()*nfeat {
		return fmt.Errorf("data: have %d input values, expect %d samples of %d", len(d.Inputs), d.Len(), nfeat)
	}
	for i, label := range d.Labels {
		if label < 0 || int(label) >= len(d.Class) {
			return fmt.Errorf("data: sample %d label %d out of range for %d classes", i, label, len(d.Class))
		}
	}
	return nil
}

// Check that each sample can be fed to a network input of the given shape.
// Trailing dimensions of size 1 are ignored, so [248 16] matches [248 16 1].
func (d *Data) CheckShape(shape []int) error {
	a, b := trimShape(d.Dims), trimShape(shape)
	if len(a) != len(b) {
		return fmt.Errorf("data shape %v does not match network input %v", d.Dims, shape)
	}
	for i := range a {
		if a[i] != b[i] {
			return fmt.Errorf("data shape %v does not match network input %v", d.Dims, shape)
		}
	}
	return nil
}

func trimShape(dims []int) []int {
	n := len(dims)
	for n > 0 && dims[n-1] == 1 {
		n--
	}
	return dims[:n]
}

// Summary statistics for a data set
type DataStats struct {
	Samples int
	Shape   []int
	Classes []string
	Counts  []int
	Input   stats.Average
	Min     float64
	Max     float64
}

// Calculate summary statistics over all of the input values.
func (d *Data) Summary() DataStats {
	s := DataStats{Samples: d.Len(), Shape: d.Dims, Classes: d.Class, Counts: d.ClassCounts()}
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	for _, x := range d.Inputs {
		v := float64(x)
		s.Input.Add(v)
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}

func (s DataStats) String() string {
	str := []string{
		"== Data ==",
		fmt.Sprintf("samples: %d  shape: %v", s.Samples, s.Shape),
		fmt.Sprintf("inputs : mean=%.4g stddev=%.4g min=%.4g max=%.4g", s.Input.Mean, s.Input.StdDev, s.Min, s.Max),
	}
	for i, name := range s.Classes {
		str = append(str, fmt.Sprintf("class %-10s: %d", name, s.Counts[i]))
	}
	return strings.Join(str, "\n")
}

// FromPickle converts an unpickled object to a data set. The object should either be
// a dict with inputs under key x and labels under key y, plus an optional list of class
// names under key classes, or a (x, y) tuple. Inputs and labels may be nested lists or
// numpy arrays. Labels may be integers or one hot vectors.
func FromPickle(obj interface{}) (*Data, error) {
	var x, y, classes interface{}
	if o, ok := obj.(*types.Dict); ok {
		x = lookup(o, inputKeys)
		y = lookup(o, labelKeys)
		classes = lookup(o, []string{"classes"})
	} else if l, ok := items(obj); ok && (len(l) == 2 || len(l) == 3) {
		x, y = l[0], l[1]
		if len(l) == 3 {
			classes = l[2]
		}
	}
	if x == nil || y == nil {
		return nil, fmt.Errorf("expecting dict with %s and %s keys or (x, y) tuple, got %T", inputKeys[0], labelKeys[0], obj)
	}
	d := new(Data)
	inputs, dims, err := toInputs(x)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	d.Inputs = inputs
	if d.Dims = dims[1:]; len(d.Dims) == 0 {
		d.Dims = []int{1}
	}
	nclass := 0
	if d.Labels, nclass, err = toLabels(ToGo(y)); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if len(d.Labels) != dims[0] {
		return nil, fmt.Errorf("have %d input samples but %d labels", dims[0], len(d.Labels))
	}
	if classes != nil {
		names, ok := ToGo(classes).([]interface{})
		if !ok {
			return nil, fmt.Errorf("classes: expecting list of names, got %T", classes)
		}
		for _, name := range names {
			d.Class = append(d.Class, fmt.Sprint(name))
		}
		if nclass > len(d.Class) {
			return nil, fmt.Errorf("labels reference %d classes but only %d names given", nclass, len(d.Class))
		}
	} else {
		d.Class = NewData(nclass, nil, nil, nil).Class
	}
	return d, d.check()
}

// flattened input values and shape including the leading sample dimension
func toInputs(x interface{}) ([]float32, []int, error) {
	if a, ok := x.(*Array); ok {
		if len(a.Shape) == 0 || a.Shape[0] == 0 {
			return nil, nil, fmt.Errorf("must be a non-empty array of samples")
		}
		inputs := make([]float32, len(a.Data))
		for i, v := range a.Data {
			inputs[i] = float32(v)
		}
		return inputs, a.Shape, nil
	}
	xs := ToGo(x)
	dims := shapeOf(xs)
	if len(dims) == 0 || dims[0] == 0 {
		return nil, nil, fmt.Errorf("must be a non-empty list of samples")
	}
	inputs, err := flattenList(xs, dims, make([]float32, 0, Prod(dims)))
	return inputs, dims, err
}

func lookup(d *types.Dict, keys []string) interface{} {
	for _, key := range keys {
		if v, ok := d.Get(key); ok {
			return v
		}
	}
	return nil
}

// dimensions of nested list, following the first element at each level
func shapeOf(v interface{}) []int {
	var dims []int
	for {
		l, ok := v.([]interface{})
		if !ok {
			return dims
		}
		dims = append(dims, len(l))
		if len(l) == 0 {
			return dims
		}
		v = l[0]
	}
}

func flattenList(v interface{}, dims []int, out []float32) ([]float32, error) {
	if len(dims) == 0 {
		x, err := toFloat(v)
		return append(out, float32(x)), err
	}
	l, ok := v.([]interface{})
	if !ok || len(l) != dims[0] {
		return out, fmt.Errorf("ragged nested list: expecting %d entries", dims[0])
	}
	var err error
	for _, e := range l {
		if out, err = flattenList(e, dims[1:], out); err != nil {
			return out, err
		}
	}
	return out, nil
}

// convert labels list to class indexes, returns number of classes referenced
func toLabels(v interface{}) (labels []int32, nclass int, err error) {
	l, ok := v.([]interface{})
	if !ok {
		return nil, 0, fmt.Errorf("expecting list, got %T", v)
	}
	labels = make([]int32, len(l))
	for i, e := range l {
		var label int
		if onehot, ok := e.([]interface{}); ok {
			if label, err = argmax(onehot); err != nil {
				return nil, 0, err
			}
			if len(onehot) > nclass {
				nclass = len(onehot)
			}
		} else {
			var x float64
			if x, err = toFloat(e); err != nil {
				return nil, 0, err
			}
			if x != math.Trunc(x) || x < 0 {
				return nil, 0, fmt.Errorf("invalid label %v", e)
			}
			label = int(x)
		}
		labels[i] = int32(label)
		if label+1 > nclass {
			nclass = label + 1
		}
	}
	return labels, nclass, nil
}

func argmax(l []interface{}) (int, error) {
	if len(l) == 0 {
		return 0, fmt.Errorf("empty one hot label")
	}
	best, bestVal := 0, math.Inf(-1)
	for i, e := range l {
		x, err := toFloat(e)
		if err != nil {
			return 0, err
		}
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	return best, nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expecting number, got %T", v)
	}
}

// Load data set from a pickle file if the extension is .pkl or .pickle, else from gob format.
func LoadData(filePath string) (*Data, error) {
	switch path.Ext(filePath) {
	case ".pkl", ".pickle":
		obj, err := LoadPickle(filePath)
		if err != nil {
			return nil, err
		}
		d, err := FromPickle(obj)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		fmt.Printf("loaded data from %s:\t%v\n", filePath, append(d.Shape(), d.Len()))
		return d, nil
	default:
		return LoadDataFile(filePath)
	}
}

// Decode data from file in gob format
func LoadDataFile(filePath string) (*Data, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fmt.Printf("loading data from %s:\t", filePath)
	d := new(Data)
	if err = gob.NewDecoder(f).Decode(d); err != nil {
		fmt.Println()
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if err = d.check(); err != nil {
		fmt.Println()
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	fmt.Println(append(d.Shape(), d.Len()))
	return d, nil
}

// Encode in gob format and save to file
func SaveDataFile(d *Data, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	fmt.Println("saving data to", filePath)
	if err = gob.NewEncoder(f).Encode(d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Check if file exists
func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
