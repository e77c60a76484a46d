package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Options for the web server
type Options struct {
	User string
	Pass string
}

// NewRouter sets up the handlers for the network and data pages.
// Basic auth is enabled if a user name is given.
func NewRouter(t *Templates, net *Network, opts Options) *mux.Router {
	networkPage := NewNetworkPage(t.Clone(), net)
	dataPage := NewDataPage(t.Clone(), net)

	r := mux.NewRouter()
	if opts.User != "" {
		r.Use(NewAuthMiddleware(opts.User, opts.Pass).Middleware)
	}
	r.Handle("/", http.RedirectHandler("/network", http.StatusFound))
	r.HandleFunc("/network", networkPage.Base()).Methods("GET")
	r.HandleFunc("/network/config", networkPage.Config()).Methods("GET")
	r.HandleFunc("/data", dataPage.Base()).Methods("GET")
	r.HandleFunc("/img/{id:[0-9]+}", dataPage.Image()).Methods("GET")
	return r
}
