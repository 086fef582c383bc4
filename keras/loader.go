package keras

import (
	"github.com/skyhookml/netviz/netviz"
	"github.com/skyhookml/netviz/summary"

	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const InspectScript = "keras_inspect.py"

var (
	zipMagic  = []byte("PK\x03\x04")
	hdf5Magic = []byte("\x89HDF\r\n\x1a\n")
)

// Loader reads Keras models. Config-only formats are parsed natively; HDF5
// files go through a python helper that has TensorFlow available.
type Loader struct {
	// Python interpreter used to run the helper scripts.
	Python string
	// Directory containing keras_inspect.py.
	ScriptDir string
	// Assumed input, used for parameter counting when the config has none.
	Input netviz.InputSpec
}

func (l Loader) LoadDeclarative(path string) (summary.DeclarativeModel, error) {
	switch netviz.Ext(path) {
	case "keras":
		return l.loadArchive(path)
	case "json":
		return l.loadConfigFile(path)
	}

	header, err := readHeader(path, len(hdf5Magic))
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(header, hdf5Magic):
		return l.loadHDF5(path)
	case bytes.HasPrefix(header, zipMagic):
		return l.loadArchive(path)
	}
	return nil, fmt.Errorf("%s is neither an HDF5 file nor a Keras archive", filepath.Base(path))
}

func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header := make([]byte, n)
	k, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, errors.Wrapf(err, "reading header of %s", filepath.Base(path))
	}
	return header[:k], nil
}

func (l Loader) fromConfig(data []byte) (*Model, error) {
	mc, err := ParseModelConfig(data)
	if err != nil {
		return nil, err
	}
	total, err := countConfigParams(mc, l.Input.DeclarativeShape())
	if err != nil {
		return nil, err
	}
	return &Model{
		ModelName:   mc.Name,
		TotalParams: total,
		LayerList:   buildLayers(mc, nil),
	}, nil
}

func (l Loader) loadConfigFile(path string) (summary.DeclarativeModel, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.fromConfig(data)
}

// Keras 3 archives store the model config as config.json next to the weights.
func (l Loader) loadArchive(path string) (summary.DeclarativeModel, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening keras archive")
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "config.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening config.json")
		}
		data, err := ioutil.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrap(err, "reading config.json")
		}
		klog.V(1).Infof("[keras] read %s config from archive %s", humanize.Bytes(uint64(len(data))), filepath.Base(path))
		return l.fromConfig(data)
	}
	return nil, fmt.Errorf("keras archive has no config.json")
}

// Output of keras_inspect.py.
type inspectResult struct {
	Name         string            `json:"name"`
	TotalParams  uint64            `json:"total_params"`
	Config       json.RawMessage   `json:"config"`
	OutputShapes map[string][]*int `json:"output_shapes"`
}

func (l Loader) loadHDF5(path string) (summary.DeclarativeModel, error) {
	cmd, err := netviz.Command(
		"keras-inspect", netviz.CommandOptions{NoStdin: true, OnlyDebug: true},
		l.Python, filepath.Join(l.ScriptDir, InspectScript), path,
	)
	if err != nil {
		return nil, err
	}
	output, readErr := ioutil.ReadAll(cmd.Stdout())
	if err := cmd.Wait(); err != nil {
		if cmdErr, ok := err.(netviz.CmdError); ok {
			return nil, fmt.Errorf("%s", cmdErr.LastLine())
		}
		return nil, err
	}
	if readErr != nil {
		return nil, errors.Wrap(readErr, "reading keras_inspect output")
	}

	var result inspectResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, errors.Wrap(err, "decoding keras_inspect output")
	}
	mc, err := ParseModelConfig(result.Config)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]netviz.Shape)
	for name, dims := range result.OutputShapes {
		if dims != nil {
			stored[name] = shapeFromNullable(dims)
		}
	}
	name := result.Name
	if name == "" {
		name = mc.Name
	}
	return &Model{
		ModelName:   name,
		TotalParams: result.TotalParams,
		LayerList:   buildLayers(mc, stored),
	}, nil
}
