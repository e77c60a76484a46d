// Package web has a web based interface for viewing a network definition and its data set.
package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/jnb666/wavenet/img"
	"github.com/jnb666/wavenet/nnet"
	"github.com/jnb666/wavenet/stats"
)

const (
	plotWidth   = 600
	plotHeight  = 300
	maxSamples  = 20
	sampleScale = 3
)

// Network and associated data set, shared by the page handlers
type Network struct {
	*nnet.Network
	Data *nnet.Data
	sync.Mutex
}

// NetworkPage holds the data for the network summary template
type NetworkPage struct {
	*Templates
	Layers []LayerInfo
	Total  int
	Plot   template.HTML
	net    *Network
}

type LayerInfo struct {
	Index  string
	Desc   string
	Shape  string
	Params int
}

// Base data for handler functions to view the network definition
func NewNetworkPage(t *Templates, net *Network) *NetworkPage {
	p := &NetworkPage{Templates: t, net: net}
	p.Heading = net.Input.Name
	if p.Heading == "" {
		p.Heading = "network"
	}
	return p
}

// Handler function for the network summary page
func (p *NetworkPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.Select("/network")
		p.Layers = p.layers()
		p.Total = p.net.NumParams()
		p.Plot = ""
		if p.Total > 0 {
			plt, err := ParamPlot(p.net.Network)
			if err != nil {
				logError(w, err)
				return
			}
			if p.Plot, err = writePlot(plt, plotWidth, plotHeight); err != nil {
				logError(w, err)
				return
			}
		}
		p.Exec(w, "network", p)
	}
}

func (p *NetworkPage) layers() []LayerInfo {
	net := p.net
	info := []LayerInfo{{Desc: "input " + net.Input.Name, Shape: shapeString(net.InShape())}}
	for i, layer := range net.Layers {
		info = append(info, LayerInfo{
			Index:  strconv.Itoa(i),
			Desc:   layer.ToString(),
			Shape:  shapeString(net.Shape(i)),
			Params: net.LayerParams(i),
		})
	}
	return info
}

// Handler function to get the network config in json format
func (p *NetworkPage) Config() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p.net.Config); err != nil {
			logError(w, err)
		}
	}
}

// DataPage holds the data for the data set template
type DataPage struct {
	*Templates
	Stats   *nnet.DataStats
	Plot    template.HTML
	Samples []SampleInfo
	net     *Network
}

type SampleInfo struct {
	Index int
	Class string
	Stats template.HTML
}

// Base data for handler functions to view the data set
func NewDataPage(t *Templates, net *Network) *DataPage {
	p := &DataPage{Templates: t, net: net}
	p.Heading = "data"
	return p
}

// Handler function for the data set summary page
func (p *DataPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		d := p.net.Data
		if d == nil {
			http.Error(w, "no data set loaded", http.StatusNotFound)
			return
		}
		p.Select("/data")
		if p.Stats == nil {
			s := d.Summary()
			p.Stats = &s
		}
		values := make([]float64, len(p.Stats.Counts))
		for i, n := range p.Stats.Counts {
			values[i] = float64(n)
		}
		plt, err := barPlot("samples per class", "samples", d.Classes(), values, 1)
		if err != nil {
			logError(w, err)
			return
		}
		if p.Plot, err = writePlot(plt, plotWidth, plotHeight); err != nil {
			logError(w, err)
			return
		}
		p.Samples = p.Samples[:0]
		for i := 0; i < d.Len() && i < maxSamples; i++ {
			avg := SampleStats(d, i)
			p.Samples = append(p.Samples, SampleInfo{Index: i, Class: d.Classes()[d.Labels[i]], Stats: avg.HTML()})
		}
		p.Exec(w, "data", p)
	}
}

// Handler function to get a png image of one sample from the data set
func (p *DataPage) Image() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		d := p.net.Data
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if d == nil || err != nil || id < 0 || id >= d.Len() {
			http.NotFound(w, r)
			return
		}
		m, err := img.NewHeatmap(d.Input(id), d.Shape())
		if err != nil {
			logError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if err := img.WritePNG(w, img.Scale(m, sampleScale)); err != nil {
			logError(w, err)
		}
	}
}

// Mean and standard deviation of the input values of one sample
func SampleStats(d *nnet.Data, i int) stats.Average {
	var avg stats.Average
	for _, x := range d.Input(i) {
		avg.Add(float64(x))
	}
	return avg
}
