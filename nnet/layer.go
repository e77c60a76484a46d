package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Padding modes for convolution and pooling layers.
const (
	PadSame  = "same"
	PadValid = "valid"
)

// Layer interface type represents one layer of the neural net.
type Layer interface {
	Init(inShape []int) error
	OutShape(inShape []int) []int
	ToString() string
}

// ParamLayer is a layer with weight and bias parameters
type ParamLayer interface {
	Layer
	InitParams(rng *rand.Rand)
	Params() (W, B []float32)
	ParamShapes() (wShape, bShape []int)
	SetParams(W, B []float32) error
}

// Layer configuration details
type LayerConfig struct {
	Type string
	Data json.RawMessage `json:",omitempty"`
}

type ConfigLayer interface {
	Marshal() LayerConfig
}

// Unmarshal JSON data and construct new layer
func (l LayerConfig) Unmarshal() (Layer, error) {
	switch l.Type {
	case "conv":
		layer := new(conv)
		err := unmarshal(l, &layer.Conv)
		layer.Conv = layer.Conv.defaults()
		return layer, err
	case "maxPool":
		layer := new(maxPool)
		err := unmarshal(l, &layer.MaxPool)
		layer.MaxPool = layer.MaxPool.defaults()
		return layer, err
	case "linear":
		layer := new(linear)
		return layer, unmarshal(l, &layer.Linear)
	case "activation":
		layer := new(activation)
		return layer, unmarshal(l, &layer.Activation)
	case "flatten":
		return &flatten{}, nil
	default:
		return nil, fmt.Errorf("invalid layer type: %q", l.Type)
	}
}

func (l LayerConfig) String() string {
	layer, err := l.Unmarshal()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return layer.ToString()
}

// Convolutional layer, implements ParamLayer interface.
type Conv struct {
	Nfeats int
	Size   [2]int
	Stride [2]int
	Pad    string
}

func (c Conv) Marshal() LayerConfig {
	return LayerConfig{Type: "conv", Data: marshal(c.defaults())}
}

func (c Conv) defaults() Conv {
	if c.Stride == [2]int{} {
		c.Stride = [2]int{1, 1}
	}
	if c.Pad == "" {
		c.Pad = PadValid
	}
	return c
}

func (c Conv) ToString() string {
	return fmt.Sprintf("conv %+v", c)
}

// Max pooling layer, stride defaults to the pool size.
type MaxPool struct {
	Size   [2]int
	Stride [2]int
	Pad    string
}

func (c MaxPool) Marshal() LayerConfig {
	return LayerConfig{Type: "maxPool", Data: marshal(c.defaults())}
}

func (c MaxPool) defaults() MaxPool {
	if c.Stride == [2]int{} {
		c.Stride = c.Size
	}
	if c.Pad == "" {
		c.Pad = PadValid
	}
	return c
}

func (c MaxPool) ToString() string {
	return fmt.Sprintf("maxPool %+v", c)
}

// Linear fully connected layer, implements ParamLayer interface.
// Activation is optional and applied to the layer output.
type Linear struct {
	Nout       int
	Activation string `json:",omitempty"`
}

func (c Linear) Marshal() LayerConfig {
	return LayerConfig{Type: "linear", Data: marshal(c)}
}

func (c Linear) ToString() string {
	return fmt.Sprintf("linear %+v", c)
}

// Sigmoid, tanh, relu or softmax activation layer.
type Activation struct {
	Atype string
}

func (c Activation) Marshal() LayerConfig {
	return LayerConfig{Type: "activation", Data: marshal(c)}
}

func (c Activation) ToString() string {
	return fmt.Sprintf("activation %+v", c)
}

// Flatten layer reshapes from 3 dimensions to 1.
type Flatten struct{}

func (c Flatten) Marshal() LayerConfig {
	return LayerConfig{Type: "flatten"}
}

var activations = map[string]bool{"relu": true, "sigmoid": true, "tanh": true, "softmax": true}

// convolutional layer implementation
type conv struct {
	Conv
	paramBase
}

func (l *conv) Init(inShape []int) error {
	if len(inShape) != 3 {
		return fmt.Errorf("conv: expect 3 dimensional input, got %v", inShape)
	}
	if l.Nfeats <= 0 {
		return fmt.Errorf("conv: number of features must be positive, got %d", l.Nfeats)
	}
	if err := checkWindow("conv", l.Size, l.Stride, l.Pad); err != nil {
		return err
	}
	out := l.OutShape(inShape)
	if Prod(out) <= 0 {
		return fmt.Errorf("conv: kernel %v too large for input %v", l.Size, inShape)
	}
	kh, kw, nin := l.Size[0], l.Size[1], inShape[2]
	l.paramBase = newParams([]int{kh, kw, nin, l.Nfeats}, []int{l.Nfeats}, kh*kw*nin, kh*kw*l.Nfeats)
	return nil
}

func (l *conv) OutShape(inShape []int) []int {
	return []int{
		windowOut(inShape[0], l.Size[0], l.Stride[0], l.Pad),
		windowOut(inShape[1], l.Size[1], l.Stride[1], l.Pad),
		l.Nfeats,
	}
}

// max pool layer implementation
type maxPool struct {
	MaxPool
}

func (l *maxPool) Init(inShape []int) error {
	if len(inShape) != 3 {
		return fmt.Errorf("maxPool: expect 3 dimensional input, got %v", inShape)
	}
	if err := checkWindow("maxPool", l.Size, l.Stride, l.Pad); err != nil {
		return err
	}
	if Prod(l.OutShape(inShape)) <= 0 {
		return fmt.Errorf("maxPool: pool size %v too large for input %v", l.Size, inShape)
	}
	return nil
}

func (l *maxPool) OutShape(inShape []int) []int {
	return []int{
		windowOut(inShape[0], l.Size[0], l.Stride[0], l.Pad),
		windowOut(inShape[1], l.Size[1], l.Stride[1], l.Pad),
		inShape[2],
	}
}

// linear layer implementation
type linear struct {
	Linear
	paramBase
}

func (l *linear) Init(inShape []int) error {
	if len(inShape) != 1 {
		return fmt.Errorf("linear: expect 1 dimensional input, got %v - add a flatten layer", inShape)
	}
	if l.Nout <= 0 {
		return fmt.Errorf("linear: number of outputs must be positive, got %d", l.Nout)
	}
	if l.Activation != "" && !activations[l.Activation] {
		return fmt.Errorf("linear: activation type %s invalid", l.Activation)
	}
	nin := inShape[0]
	l.paramBase = newParams([]int{nin, l.Nout}, []int{l.Nout}, nin, l.Nout)
	return nil
}

func (l *linear) OutShape(inShape []int) []int {
	return []int{l.Nout}
}

// activation layer implementation
type activation struct {
	Activation
}

func (l *activation) Init(inShape []int) error {
	if !activations[l.Atype] {
		return fmt.Errorf("activation type %s invalid", l.Atype)
	}
	return nil
}

func (l *activation) OutShape(inShape []int) []int {
	return append([]int{}, inShape...)
}

type flatten struct {
	inShape []int
}

func (l *flatten) ToString() string { return "flatten" }

func (l *flatten) Init(inShape []int) error {
	if len(inShape) < 2 {
		return fmt.Errorf("flatten: expect at least 2 dimensional input, got %v", inShape)
	}
	l.inShape = append([]int{}, inShape...)
	return nil
}

func (l *flatten) OutShape(inShape []int) []int {
	return []int{Prod(inShape)}
}

// weight and bias parameters
type paramBase struct {
	w, b          []float32
	wShape        []int
	bShape        []int
	fanIn, fanOut int
}

func newParams(wShape, bShape []int, fanIn, fanOut int) paramBase {
	return paramBase{
		w:      make([]float32, Prod(wShape)),
		b:      make([]float32, Prod(bShape)),
		wShape: wShape,
		bShape: bShape,
		fanIn:  fanIn,
		fanOut: fanOut,
	}
}

func (p *paramBase) Params() (W, B []float32) {
	return p.w, p.b
}

func (p *paramBase) ParamShapes() (wShape, bShape []int) {
	return p.wShape, p.bShape
}

// Glorot uniform weights in [-limit, limit] with limit = sqrt(6/(fanIn+fanOut)), zero bias.
func (p *paramBase) InitParams(rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(p.fanIn+p.fanOut))
	for i := range p.w {
		p.w[i] = float32((2*rng.Float64() - 1) * limit)
	}
	for i := range p.b {
		p.b[i] = 0
	}
}

func (p *paramBase) SetParams(W, B []float32) error {
	if len(W) != len(p.w) || len(B) != len(p.b) {
		return fmt.Errorf("parameter size mismatch: have %d+%d values, expect %d+%d", len(W), len(B), len(p.w), len(p.b))
	}
	copy(p.w, W)
	copy(p.b, B)
	return nil
}

func checkWindow(name string, size, stride [2]int, pad string) error {
	if size[0] <= 0 || size[1] <= 0 {
		return fmt.Errorf("%s: size must be positive, got %v", name, size)
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		return fmt.Errorf("%s: stride must be positive, got %v", name, stride)
	}
	if pad != PadSame && pad != PadValid {
		return fmt.Errorf("%s: padding %q invalid", name, pad)
	}
	return nil
}

// output size of a convolution or pooling window along one axis
func windowOut(in, size, stride int, pad string) int {
	if pad == PadSame {
		return (in + stride - 1) / stride
	}
	if in < size {
		return 0
	}
	return (in-size)/stride + 1
}

// Prod returns the product of the dimensions.
func Prod(dims []int) int {
	prod := 1
	for _, d := range dims {
		prod *= d
	}
	return prod
}

func marshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func unmarshal(l LayerConfig, v interface{}) error {
	if len(l.Data) == 0 {
		return fmt.Errorf("%s: missing layer data", l.Type)
	}
	if err := json.Unmarshal(l.Data, v); err != nil {
		return fmt.Errorf("%s: %w", l.Type, err)
	}
	return nil
}
