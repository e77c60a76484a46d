// The wavenet command defines the wavelet classifier network, prints a summary and
// optionally loads and checks a data set, saves the config and initial weights and
// plots the number of parameters per layer.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jnb666/wavenet/nnet"
	"github.com/jnb666/wavenet/web"
	"gonum.org/v1/plot/vg"
)

type setFlags []string

func (s *setFlags) String() string { return strings.Join(*s, ",") }

func (s *setFlags) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func main() {
	var (
		config, dataFile, weights, plotFile string
		save                                bool
		seed                                int64
		debug                               int
		sets                                setFlags
	)
	flag.StringVar(&config, "config", "", "load network config from file")
	flag.StringVar(&dataFile, "data", "", "data set file (.pkl or gob format)")
	flag.StringVar(&weights, "weights", "", "save initial weights to file")
	flag.StringVar(&plotFile, "plot", "", "write svg plot of parameters per layer to file")
	flag.BoolVar(&save, "save", false, "save network config as wavelet.net")
	flag.Int64Var(&seed, "seed", 0, "random number seed")
	flag.IntVar(&debug, "debug", 0, "debug logging level")
	flag.Var(&sets, "set", "override config setting as Key=Value")
	flag.Parse()

	conf := nnet.WaveletConfig()
	var err error
	if config != "" {
		conf, err = nnet.LoadConfig(config)
		nnet.CheckErr(err)
	}
	for _, opt := range sets {
		kv := strings.SplitN(opt, "=", 2)
		if len(kv) != 2 {
			nnet.CheckErr(fmt.Errorf("invalid -set option %q: expecting Key=Value", opt))
		}
		conf, err = conf.SetString(kv[0], kv[1])
		nnet.CheckErr(err)
	}
	if seed != 0 {
		conf.RandSeed = seed
	}
	if debug != 0 {
		conf.DebugLevel = debug
	}
	if conf.DebugLevel >= 1 {
		fmt.Println(conf)
	}

	net, err := nnet.New(conf, nil)
	nnet.CheckErr(err)
	fmt.Println(net)

	if save {
		nnet.CheckErr(os.MkdirAll(nnet.DataDir, 0755))
		nnet.CheckErr(conf.Save("wavelet.net"))
	}
	if dataFile == "" && config != "" {
		dataFile = conf.DataSet
	}
	if dataFile != "" {
		data, err := nnet.LoadData(nnet.FilePath(dataFile))
		nnet.CheckErr(err)
		fmt.Println(data.Summary())
		nnet.CheckErr(data.CheckShape(net.InShape()))
		if n := len(data.Classes()); n != nnet.Prod(net.OutShape()) {
			fmt.Printf("warning: data set has %d classes but network has %d outputs\n", n, nnet.Prod(net.OutShape()))
		}
	}
	if weights != "" {
		fmt.Println("saving weights to", weights)
		nnet.CheckErr(net.SaveWeights(nnet.FilePath(weights)))
	}
	if plotFile != "" {
		p, err := web.ParamPlot(net)
		nnet.CheckErr(err)
		fmt.Println("writing plot to", plotFile)
		nnet.CheckErr(p.Save(6*vg.Inch, 3*vg.Inch, plotFile))
	}
}
