// Package nnet contains routines for defining convolutional neural network models
// and loading the datasets used to train them.
package nnet

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// Network type represents a multilayer neural network model. The layers form a
// linear chain from the input placeholder to the output of the final layer.
type Network struct {
	Config
	Layers  []Layer
	shapes  [][]int
	inShape []int
}

// New function creates a new network with the given layers, checks that the shape of
// each layer is compatible with its input and initialises the weights.
// If rng is nil then a generator seeded from conf.RandSeed is used.
func New(conf Config, rng *rand.Rand) (*Network, error) {
	if len(conf.Input.Shape) == 0 {
		return nil, fmt.Errorf("network input shape not set")
	}
	for _, d := range conf.Input.Shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid input shape %v", conf.Input.Shape)
		}
	}
	if len(conf.Layers) == 0 {
		return nil, fmt.Errorf("network has no layers")
	}
	n := &Network{Config: conf, inShape: append([]int{}, conf.Input.Shape...)}
	shape := n.inShape
	for i, l := range conf.Layers {
		layer, err := l.Unmarshal()
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if err = layer.Init(shape); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		shape = layer.OutShape(shape)
		n.Layers = append(n.Layers, layer)
		n.shapes = append(n.shapes, shape)
	}
	if rng == nil {
		rng = SetSeed(conf.RandSeed)
	}
	n.InitWeights(rng)
	return n, nil
}

// Initialise network weights using a Glorot uniform distribution and zero bias.
func (n *Network) InitWeights(rng *rand.Rand) {
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			l.InitParams(rng)
		}
	}
	if n.DebugLevel >= 2 {
		n.PrintWeights()
	}
}

// Shape of the input placeholder, excluding the batch dimension.
func (n *Network) InShape() []int {
	return append([]int{}, n.inShape...)
}

// Shape of the network output, excluding the batch dimension.
func (n *Network) OutShape() []int {
	return n.Shape(len(n.Layers) - 1)
}

// Output shape of layer i.
func (n *Network) Shape(i int) []int {
	return append([]int{}, n.shapes[i]...)
}

// Number of weight and bias parameters in layer i.
func (n *Network) LayerParams(i int) int {
	if l, ok := n.Layers[i].(ParamLayer); ok {
		W, B := l.Params()
		return len(W) + len(B)
	}
	return 0
}

// Total number of parameters in the network.
func (n *Network) NumParams() int {
	total := 0
	for i := range n.Layers {
		total += n.LayerParams(i)
	}
	return total
}

// Print network description
func (n *Network) String() string {
	name := n.Input.Name
	if name == "" {
		name = "input"
	}
	s := []string{
		fmt.Sprintf("%-4s%-44s %-16s %s", "", "layer", "output shape", "params"),
		fmt.Sprintf("%-4s%-44s %-16v %d", "", name, n.inShape, 0),
	}
	for i, layer := range n.Layers {
		s = append(s, fmt.Sprintf("%2d: %-44s %-16v %d", i, layer.ToString(), n.shapes[i], n.LayerParams(i)))
	}
	s = append(s, fmt.Sprintf("total params: %d", n.NumParams()))
	return "== Network ==\n" + strings.Join(s, "\n")
}

// Print network weights
func (n *Network) PrintWeights() {
	for i, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			wShape, bShape := l.ParamShapes()
			fmt.Printf("== Layer %d weights %v bias %v ==\n%s\n%v\n", i, wShape, bShape, head(W, 10), B)
		}
	}
}

// Layer parameters as persisted to file
type LayerData struct {
	Layer   int
	Weights []float32
	Biases  []float32
}

// Export a copy of the weights and biases of each parameter layer.
func (n *Network) Export() []LayerData {
	var params []LayerData
	for i, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			params = append(params, LayerData{
				Layer:   i,
				Weights: append([]float32{}, W...),
				Biases:  append([]float32{}, B...),
			})
		}
	}
	return params
}

// Import weights and biases previously saved with Export.
func (n *Network) Import(params []LayerData) error {
	for _, p := range params {
		if p.Layer < 0 || p.Layer >= len(n.Layers) {
			return fmt.Errorf("invalid layer index %d", p.Layer)
		}
		l, ok := n.Layers[p.Layer].(ParamLayer)
		if !ok {
			return fmt.Errorf("layer %d has no parameters", p.Layer)
		}
		if err := l.SetParams(p.Weights, p.Biases); err != nil {
			return fmt.Errorf("layer %d: %w", p.Layer, err)
		}
	}
	return nil
}

// Save weights and biases to file in gob format.
func (n *Network) SaveWeights(filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(f).Encode(n.Export()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load weights and biases from a file written by SaveWeights.
func (n *Network) LoadWeights(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	var params []LayerData
	if err = gob.NewDecoder(f).Decode(&params); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	return n.Import(params)
}

// Set random number seed, or random seed if seed <= 0
func SetSeed(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Exit in case of error
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func head(x []float32, n int) string {
	if len(x) <= n {
		return fmt.Sprint(x)
	}
	return fmt.Sprintf("%v ... (%d values)", x[:n], len(x))
}
