package nnet

// Shape of a single wavelet scalogram sample: 248 time steps x 16 scales x 1 channel.
var WaveletShape = []int{248, 16, 1}

// Number of output classes for the wavelet classifier.
const WaveletClasses = 6

// WaveletConfig returns the network definition for the wavelet classifier:
// conv 3x3x32 same padding, relu, 3x1 max pool, flatten and a dense softmax output.
func WaveletConfig() Config {
	return Config{
		DataSet: "waveletdata.pkl",
		Input:   Input{Name: "wavelet_input", Shape: append([]int{}, WaveletShape...)},
	}.AddLayers(
		Conv{Nfeats: 32, Size: [2]int{3, 3}, Stride: [2]int{1, 1}, Pad: PadSame},
		Activation{Atype: "relu"},
		MaxPool{Size: [2]int{3, 1}},
		Flatten{},
		Linear{Nout: WaveletClasses, Activation: "softmax"},
	)
}

// DefineArchitecture builds a new wavelet classifier network. Each call returns a
// separate network with its own parameters.
func DefineArchitecture() (*Network, error) {
	return New(WaveletConfig(), nil)
}
