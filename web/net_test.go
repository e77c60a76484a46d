package web

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jnb666/wavenet/nnet"
)

func newTestNetwork(t *testing.T, withData bool) *Network {
	net, err := nnet.DefineArchitecture()
	if err != nil {
		t.Fatal(err)
	}
	n := &Network{Network: net}
	if withData {
		inputs := make([]float32, 3*4*2)
		for i := range inputs {
			inputs[i] = float32(i)
		}
		n.Data = nnet.NewData(2, []int{4, 2, 1}, []int32{0, 1, 1}, inputs)
	}
	return n
}

func newTestServer(t *testing.T, net *Network, opts Options) *httptest.Server {
	tmpl, err := NewTemplates()
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewRouter(tmpl, net, opts))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestNetworkPage(t *testing.T) {
	srv := newTestServer(t, newTestNetwork(t, false), Options{})
	resp, body := get(t, srv, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %s", resp.Status)
	}
	for _, expect := range []string{"wavelet_input", "(248, 16, 1)", "(82, 16, 32)", "(6)", "252230", "<svg"} {
		if !strings.Contains(body, expect) {
			t.Errorf("network page missing %q", expect)
		}
	}
}

func TestConfigJSON(t *testing.T) {
	srv := newTestServer(t, newTestNetwork(t, false), Options{})
	resp, body := get(t, srv, "/network/config")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %s", resp.Status)
	}
	var conf nnet.Config
	if err := json.Unmarshal([]byte(body), &conf); err != nil {
		t.Fatal(err)
	}
	net, err := nnet.New(conf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if net.NumParams() != 252230 {
		t.Errorf("got %d params", net.NumParams())
	}
}

func TestDataPage(t *testing.T) {
	srv := newTestServer(t, newTestNetwork(t, false), Options{})
	if resp, _ := get(t, srv, "/data"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("no data: status %s", resp.Status)
	}
	if resp, _ := get(t, srv, "/img/0"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("no data image: status %s", resp.Status)
	}

	srv = newTestServer(t, newTestNetwork(t, true), Options{})
	resp, body := get(t, srv, "/data")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %s", resp.Status)
	}
	for _, expect := range []string{`src="/img/2"`, "<svg", "[4 2 1]"} {
		if !strings.Contains(body, expect) {
			t.Errorf("data page missing %q", expect)
		}
	}
	resp, _ = get(t, srv, "/img/1")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("image: status %s type %s", resp.Status, resp.Header.Get("Content-Type"))
	}
	if resp, _ = get(t, srv, "/img/3"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("out of range image: status %s", resp.Status)
	}
}

func TestImageNaN(t *testing.T) {
	net := newTestNetwork(t, true)
	net.Data.Inputs[8] = float32(math.NaN())
	srv := newTestServer(t, net, Options{})
	resp, _ := get(t, srv, "/img/1")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("image: status %s type %s", resp.Status, resp.Header.Get("Content-Type"))
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, newTestNetwork(t, false), Options{User: "user", Pass: "secret"})
	if resp, _ := get(t, srv, "/network"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no auth: status %s", resp.Status)
	}

	req, _ := http.NewRequest("GET", srv.URL+"/network", nil)
	req.SetBasicAuth("user", "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password: status %s", resp.Status)
	}

	req.SetBasicAuth("user", "secret")
	if resp, err = http.DefaultClient.Do(req); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %s", resp.Status)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	req, _ = http.NewRequest("GET", srv.URL+"/network/config", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if resp, err = http.DefaultClient.Do(req); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("session cookie: status %s", resp.Status)
	}
}
