package nnet

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// LoadPickle reads a single pickled object from the file. The returned value uses the
// gopickle types for Python containers: see ToGo to convert these to plain Go values.
// numpy arrays and scalars are decoded to *Array and float64 or int values.
func LoadPickle(filePath string) (interface{}, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	u := pickle.NewUnpickler(bufio.NewReader(f))
	u.FindClass = findClass
	obj, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("unpickle %s: %w", filePath, err)
	}
	return obj, nil
}

// ToGo converts Python lists, tuples and sets to []interface{}, dicts to
// map[interface{}]interface{} and numpy arrays to nested []interface{} of float64,
// recursively. Set elements are returned in no particular order. Other values are
// returned unchanged.
func ToGo(v interface{}) interface{} {
	if l, ok := items(v); ok {
		out := make([]interface{}, len(l))
		for i, e := range l {
			out[i] = ToGo(e)
		}
		return out
	}
	switch x := v.(type) {
	case *types.Dict:
		out := make(map[interface{}]interface{}, x.Len())
		for _, key := range x.Keys() {
			val, _ := x.Get(key)
			out[key] = ToGo(val)
		}
		return out
	case *types.OrderedDict:
		out := make(map[interface{}]interface{}, x.Len())
		for key, entry := range x.Map {
			out[key] = ToGo(entry.Value)
		}
		return out
	case *types.Set:
		out := make([]interface{}, 0, x.Len())
		for key := range *x {
			out = append(out, ToGo(key))
		}
		return out
	case *types.FrozenSet:
		out := make([]interface{}, 0, x.Len())
		for key := range *x {
			out = append(out, ToGo(key))
		}
		return out
	case *types.ByteArray:
		return []byte(*x)
	case *Array:
		return x.List()
	default:
		return v
	}
}

// elements of a list or tuple, without converting them
func items(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case *types.List:
		return *x, true
	case *types.Tuple:
		return *x, true
	case types.List:
		return x, true
	case types.Tuple:
		return x, true
	case []interface{}:
		return x, true
	default:
		return nil, false
	}
}

// Python globals called by REDUCE which gopickle does not provide itself.
func findClass(module, name string) (interface{}, error) {
	switch module + "." + name {
	case "_codecs.encode":
		return callable(encode), nil
	case "__builtin__.bytes", "builtins.bytes", "__builtin__.bytearray", "builtins.bytearray":
		return callable(newBytes), nil
	case "__builtin__.set", "builtins.set":
		return callable(newSet), nil
	case "__builtin__.frozenset", "builtins.frozenset":
		return callable(newFrozenSet), nil
	case "numpy.dtype":
		return callable(newDtype), nil
	case "numpy.core.multiarray._reconstruct", "numpy._core.multiarray._reconstruct":
		return callable(reconstruct), nil
	case "numpy.core.multiarray.scalar", "numpy._core.multiarray.scalar":
		return callable(newScalar), nil
	case "numpy.core.numeric._frombuffer", "numpy._core.numeric._frombuffer":
		return callable(fromBuffer), nil
	}
	return types.NewGenericClass(module, name), nil
}

type callable func(args ...interface{}) (interface{}, error)

func (f callable) Call(args ...interface{}) (interface{}, error) {
	return f(args...)
}

// codecs.encode(str, encoding) as used to pickle bytes with protocol 2
func encode(args ...interface{}) (interface{}, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("encode: expecting 1 or 2 arguments, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("encode: expecting string, got %T", args[0])
	}
	enc := "utf-8"
	if len(args) == 2 {
		if enc, ok = args[1].(string); !ok {
			return nil, fmt.Errorf("encode: expecting encoding name, got %T", args[1])
		}
	}
	switch enc {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0xff {
				return nil, fmt.Errorf("encode: character %q not in %s", r, enc)
			}
			out = append(out, byte(r))
		}
		return out, nil
	case "utf-8", "utf8":
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("encode: invalid utf-8 string")
		}
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("encode: unsupported encoding %q", enc)
	}
}

// bytes() and bytearray() constructors
func newBytes(args ...interface{}) (interface{}, error) {
	switch len(args) {
	case 0:
		return []byte{}, nil
	case 1:
		if b, ok := toBytes(args[0]); ok {
			return append([]byte{}, b...), nil
		}
		if l, ok := items(args[0]); ok {
			out := make([]byte, len(l))
			for i, e := range l {
				x, err := toFloat(e)
				if err != nil || x < 0 || x > 255 || x != math.Trunc(x) {
					return nil, fmt.Errorf("bytes: invalid byte value %v", e)
				}
				out[i] = byte(x)
			}
			return out, nil
		}
		return nil, fmt.Errorf("bytes: unsupported argument %T", args[0])
	default:
		return encode(args...)
	}
}

func newSet(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return types.NewSet(), nil
	}
	l, ok := items(args[0])
	if !ok {
		return nil, fmt.Errorf("set: expecting list, got %T", args[0])
	}
	return types.NewSetFromSlice(l), nil
}

func newFrozenSet(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return types.NewFrozenSetFromSlice(nil), nil
	}
	l, ok := items(args[0])
	if !ok {
		return nil, fmt.Errorf("frozenset: expecting list, got %T", args[0])
	}
	return types.NewFrozenSetFromSlice(l), nil
}

func toBytes(v interface{}) ([]byte, bool) {
	switch x := v.(type) {
	case []byte:
		return x, true
	case *types.ByteArray:
		return []byte(*x), true
	default:
		return nil, false
	}
}

// Array holds the contents of a numpy ndarray. Values are converted to float64 and
// stored in row major order.
type Array struct {
	Shape []int
	Dtype string
	Data  []float64
}

// numpy.core.multiarray._reconstruct returns an empty array which is filled in by BUILD.
func reconstruct(args ...interface{}) (interface{}, error) {
	return &Array{}, nil
}

// numpy.core.numeric._frombuffer(buffer, dtype, shape, order) as used with protocol 5.
func fromBuffer(args ...interface{}) (interface{}, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("ndarray: _frombuffer expects 4 arguments, got %d", len(args))
	}
	order, _ := args[3].(string)
	a := new(Array)
	return a, a.set(args[2], args[1], args[0], order == "F")
}

// PySetState restores the array from its (version, shape, dtype, is_fortran, data) state.
func (a *Array) PySetState(state interface{}) error {
	s, ok := items(state)
	if !ok {
		return fmt.Errorf("ndarray: invalid state %T", state)
	}
	if len(s) == 5 {
		s = s[1:]
	}
	if len(s) != 4 {
		return fmt.Errorf("ndarray: expecting 4 or 5 state values, got %d", len(s))
	}
	fortran, _ := s[2].(bool)
	return a.set(s[0], s[1], s[3], fortran)
}

func (a *Array) set(shape, dt, data interface{}, fortran bool) error {
	var err error
	if a.Shape, err = toShape(shape); err != nil {
		return fmt.Errorf("ndarray: %w", err)
	}
	d, ok := dt.(*dtype)
	if !ok {
		return fmt.Errorf("ndarray: invalid dtype %T", dt)
	}
	a.Dtype = d.String()
	if a.Data, err = d.values(data); err != nil {
		return fmt.Errorf("ndarray: %w", err)
	}
	if len(a.Data) != Prod(a.Shape) {
		return fmt.Errorf("ndarray: have %d values for shape %v", len(a.Data), a.Shape)
	}
	if fortran && len(a.Shape) > 1 {
		a.Data = rowMajor(a.Data, a.Shape)
	}
	return nil
}

// List returns the array values as nested []interface{} slices of float64.
// A zero dimensional array returns its single value.
func (a *Array) List() interface{} {
	if len(a.Shape) == 0 {
		if len(a.Data) == 1 {
			return a.Data[0]
		}
		return []interface{}{}
	}
	return nest(a.Data, a.Shape)
}

func nest(data []float64, shape []int) []interface{} {
	out := make([]interface{}, shape[0])
	if len(shape) == 1 {
		for i := range out {
			out[i] = data[i]
		}
		return out
	}
	n := Prod(shape[1:])
	for i := range out {
		out[i] = nest(data[i*n:(i+1)*n], shape[1:])
	}
	return out
}

// reorder column major values to row major
func rowMajor(data []float64, shape []int) []float64 {
	out := make([]float64, len(data))
	idx := make([]int, len(shape))
	for i := range out {
		off, stride := 0, 1
		for k, n := range shape {
			off += idx[k] * stride
			stride *= n
		}
		out[i] = data[off]
		for k := len(shape) - 1; k >= 0; k-- {
			if idx[k]++; idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}

func toShape(v interface{}) ([]int, error) {
	l, ok := items(v)
	if !ok {
		return nil, fmt.Errorf("expecting shape tuple, got %T", v)
	}
	shape := make([]int, len(l))
	for i, e := range l {
		x, err := toFloat(e)
		if err != nil || x < 0 {
			return nil, fmt.Errorf("invalid shape %v", l)
		}
		shape[i] = int(x)
	}
	return shape, nil
}

// numpy.core.multiarray.scalar(dtype, data) returns a float64 for floating point types,
// an int for integer and bool types and the object itself for object types.
func newScalar(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("scalar: expecting 2 arguments, got %d", len(args))
	}
	d, ok := args[0].(*dtype)
	if !ok {
		return nil, fmt.Errorf("scalar: invalid dtype %T", args[0])
	}
	if d.Kind == 'O' {
		return args[1], nil
	}
	vals, err := d.values(args[1])
	if err != nil {
		return nil, fmt.Errorf("scalar: %w", err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("scalar: have %d values", len(vals))
	}
	if d.Kind == 'f' {
		return vals[0], nil
	}
	return int(vals[0]), nil
}

// element type of a numpy array
type dtype struct {
	Kind  byte
	Size  int
	order binary.ByteOrder
}

// numpy.dtype(code, align, copy) for the fixed size numeric and object types.
func newDtype(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("dtype: missing type code")
	}
	code, ok := args[0].(string)
	if !ok || len(code) < 2 {
		return nil, fmt.Errorf("dtype: invalid type code %v", args[0])
	}
	size, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, fmt.Errorf("dtype: invalid type code %q", code)
	}
	d := &dtype{Kind: code[0], Size: size, order: binary.LittleEndian}
	valid := false
	switch d.Kind {
	case 'f':
		valid = size == 4 || size == 8
	case 'i', 'u':
		valid = size == 1 || size == 2 || size == 4 || size == 8
	case 'b':
		valid = size == 1
	case 'O':
		valid = true
	}
	if !valid {
		return nil, fmt.Errorf("dtype: unsupported type %q", code)
	}
	return d, nil
}

// PySetState sets the byte order from the (version, endian, ...) state tuple.
func (d *dtype) PySetState(state interface{}) error {
	s, ok := items(state)
	if !ok || len(s) < 2 {
		return fmt.Errorf("dtype: invalid state %v", state)
	}
	if endian, _ := s[1].(string); endian == ">" {
		d.order = binary.BigEndian
	} else {
		d.order = binary.LittleEndian
	}
	return nil
}

func (d *dtype) String() string {
	return string(d.Kind) + strconv.Itoa(d.Size)
}

// decode array data which is either raw bytes or a list of objects
func (d *dtype) values(data interface{}) ([]float64, error) {
	if l, ok := items(data); ok {
		out := make([]float64, len(l))
		for i, e := range l {
			x, err := toFloat(e)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	}
	raw, ok := toBytes(data)
	if s, isStr := data.(string); isStr {
		raw, ok = []byte(s), true
	}
	if !ok {
		return nil, fmt.Errorf("unsupported array data %T", data)
	}
	if d.Kind == 'O' {
		return nil, fmt.Errorf("object array data must be a list")
	}
	if len(raw)%d.Size != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %s element size", len(raw), d)
	}
	out := make([]float64, len(raw)/d.Size)
	for i := range out {
		out[i] = d.value(raw[i*d.Size : (i+1)*d.Size])
	}
	return out, nil
}

func (d *dtype) value(b []byte) float64 {
	switch d.Kind {
	case 'f':
		if d.Size == 4 {
			return float64(math.Float32frombits(d.order.Uint32(b)))
		}
		return math.Float64frombits(d.order.Uint64(b))
	case 'i':
		switch d.Size {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(d.order.Uint16(b)))
		case 4:
			return float64(int32(d.order.Uint32(b)))
		default:
			return float64(int64(d.order.Uint64(b)))
		}
	case 'u':
		switch d.Size {
		case 1:
			return float64(b[0])
		case 2:
			return float64(d.order.Uint16(b))
		case 4:
			return float64(d.order.Uint32(b))
		default:
			return float64(d.order.Uint64(b))
		}
	default:
		if b[0] != 0 {
			return 1
		}
		return 0
	}
}
