package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/jnb666/wavenet/nnet"
	"github.com/jnb666/wavenet/web"
)

func main() {
	log.SetFlags(0)
	var (
		addr, dataFile, weights string
		opts                    web.Options
	)
	flag.StringVar(&addr, "addr", ":8080", "address to listen on")
	flag.StringVar(&dataFile, "data", "", "data set file (.pkl or gob format)")
	flag.StringVar(&weights, "weights", "", "load weights from file")
	flag.StringVar(&opts.User, "user", "", "user name for basic auth")
	flag.StringVar(&opts.Pass, "pass", "", "password for basic auth")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: web [opts] [config]")
		flag.PrintDefaults()
	}
	flag.Parse()

	conf := nnet.WaveletConfig()
	var err error
	if flag.NArg() > 0 {
		conf, err = nnet.LoadConfig(flag.Arg(0))
		nnet.CheckErr(err)
	}
	net := &web.Network{}
	net.Network, err = nnet.New(conf, nil)
	nnet.CheckErr(err)
	if weights != "" {
		nnet.CheckErr(net.LoadWeights(nnet.FilePath(weights)))
	}
	if dataFile != "" {
		net.Data, err = nnet.LoadData(nnet.FilePath(dataFile))
		nnet.CheckErr(err)
		if err = net.Data.CheckShape(net.InShape()); err != nil {
			log.Println("warning:", err)
		}
	}

	t, err := web.NewTemplates()
	nnet.CheckErr(err)

	log.Printf("serving web page at http://localhost%s\n", addr)
	log.Fatal(http.ListenAndServe(addr, web.NewRouter(t, net, opts)))
}
