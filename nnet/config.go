package nnet

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"reflect"
	"strconv"
	"strings"
)

// Directory used to resolve relative config, data and weight file names.
var DataDir = dataDir()

func dataDir() string {
	if dir := os.Getenv("WAVENET_DATA"); dir != "" {
		return dir
	}
	return "data"
}

// Input placeholder definition: shape excludes the batch dimension.
type Input struct {
	Name  string
	Shape []int
}

// Network configuration settings
type Config struct {
	DataSet    string
	RandSeed   int64
	DebugLevel int
	Input      Input
	Layers     []LayerConfig
}

// Resolve file name relative to DataDir unless it is an absolute or explicit relative path.
func FilePath(name string) string {
	if path.IsAbs(name) || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		return name
	}
	return path.Join(DataDir, name)
}

// Load network from json file under DataDir
func LoadConfig(name string) (c Config, err error) {
	var f *os.File
	if f, err = os.Open(FilePath(name)); err != nil {
		return
	}
	defer f.Close()
	fmt.Println("loading network config from", name)
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err = dec.Decode(&c); err != nil {
		err = fmt.Errorf("decode config %s: %w", name, err)
	}
	return
}

// Append layers to the config struct
func (c Config) AddLayers(layers ...ConfigLayer) Config {
	c.Layers = append([]LayerConfig{}, c.Layers...)
	for _, l := range layers {
		c.Layers = append(c.Layers, l.Marshal())
	}
	return c
}

// Save config to JSON file under DataDir, writing to a temp file first
func (c Config) Save(name string) error {
	filePath := FilePath(name)
	tmpPath := path.Join(path.Dir(filePath), "."+path.Base(filePath))
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	fmt.Println("saving network config to", name)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filePath)
}

// Names of the scalar config fields.
func (c Config) Fields() []string {
	st := reflect.TypeOf(c)
	var fld []string
	for i := 0; i < st.NumField(); i++ {
		switch st.Field(i).Type.Kind() {
		case reflect.Struct, reflect.Slice:
		default:
			fld = append(fld, st.Field(i).Name)
		}
	}
	return fld
}

func (c Config) Get(key string) interface{} {
	s := reflect.ValueOf(c)
	return s.FieldByName(key).Interface()
}

func (c Config) String() string {
	str := []string{"== Config =="}
	for _, key := range c.Fields() {
		str = append(str, fmt.Sprintf("%-14s: %v", key, c.Get(key)))
	}
	str = append(str, fmt.Sprintf("%-14s: %s %v", "Input", c.Input.Name, c.Input.Shape))
	if c.Layers != nil {
		str = append(str, "== Layers ==")
		for i, layer := range c.Layers {
			str = append(str, fmt.Sprintf("%2d: %s", i, layer))
		}
	}
	return strings.Join(str, "\n")
}

// Set scalar field from string value
func (c Config) SetString(key, val string) (Config, error) {
	s := reflect.ValueOf(&c).Elem()
	f := s.FieldByName(key)
	if !f.IsValid() {
		return c, fmt.Errorf("invalid config field: %s", key)
	}
	var err error
	switch f.Type().Kind() {
	case reflect.Int, reflect.Int64:
		var x int64
		if x, err = strconv.ParseInt(val, 10, 64); err == nil {
			f.SetInt(x)
		}
	case reflect.String:
		f.SetString(val)
	default:
		return c, fmt.Errorf("invalid type for SetString: %v", f.Type().Kind())
	}
	return c, err
}
