package keras

import (
	"github.com/skyhookml/netviz/netviz"
	"github.com/skyhookml/netviz/summary"

	"archive/zip"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mnistConfig = `{"module": "keras", "class_name": "Sequential", "config": {"name": "mnist", "layers": [
	{"module": "keras.layers", "class_name": "InputLayer", "config": {"batch_shape": [null, 28, 28, 1], "name": "input_layer"}},
	{"module": "keras.layers", "class_name": "Conv2D", "config": {"name": "conv2d", "filters": 32, "kernel_size": [3, 3], "strides": [1, 1], "padding": "valid", "data_format": "channels_last", "use_bias": true},
	 "build_config": {"input_shape": [null, 28, 28, 1]}},
	{"module": "keras.layers", "class_name": "MaxPooling2D", "config": {"name": "max_pooling2d", "pool_size": [2, 2], "strides": [2, 2], "padding": "valid"},
	 "build_config": {"input_shape": [null, 26, 26, 32]}},
	{"module": "keras.layers", "class_name": "Flatten", "config": {"name": "flatten"}},
	{"module": "keras.layers", "class_name": "Dense", "config": {"name": "dense", "units": 10, "activation": "softmax"}}
]}}`

var mnistLayers = []netviz.LayerRecord{
	{Name: "input", Type: "InputLayer", OutputShape: "(None, 128, 128, 1)"},
	{Name: "conv2d", Type: "Conv2D", OutputShape: "(None, 26, 26, 32)"},
	{Name: "max_pooling2d", Type: "MaxPooling2D", OutputShape: "(None, 13, 13, 32)"},
	{Name: "flatten", Type: "Flatten", OutputShape: "(None, 5408)"},
	{Name: "dense", Type: "Dense", OutputShape: "(None, 10)"},
}

func writeArchive(t *testing.T, dir string, files map[string]string) string {
	path := filepath.Join(dir, "model.keras")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadArchive(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, map[string]string{
		"metadata.json": `{"keras_version": "3.3.3"}`,
		"config.json":   mnistConfig,
	})
	loader := Loader{Input: netviz.DefaultInputSpec}
	model, err := loader.LoadDeclarative(path)
	require.NoError(t, err)
	assert.Equal(t, "mnist", model.Name())
	assert.Equal(t, uint64(320+54090), model.CountParams())
	// the InputLayer of a Sequential model is not one of its layers
	require.Len(t, model.Layers(), 4)
	_, isStatic := model.Layers()[0].(summary.HasStaticShape)
	assert.True(t, isStatic)

	d := summary.Declarative{Loader: loader, Input: netviz.DefaultInputSpec}
	result, err := d.Summarize(path, "model.keras")
	require.NoError(t, err)
	assert.Equal(t, mnistLayers, result.Layers)
}

func TestLoadArchiveWithoutConfig(t *testing.T) {
	path := writeArchive(t, t.TempDir(), map[string]string{"metadata.json": "{}"})
	_, err := Loader{}.LoadDeclarative(path)
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	// Keras 2 style: no InputLayer, batch_input_shape on the first layer
	config := `{"class_name": "Sequential", "config": {"name": "sequential_1", "layers": [
		{"class_name": "Dense", "config": {"name": "dense", "units": 6, "batch_input_shape": [null, 4]}},
		{"class_name": "Dense", "config": {"name": "dense_1", "units": 2, "use_bias": false}}
	]}}`
	require.NoError(t, ioutil.WriteFile(path, []byte(config), 0644))
	model, err := Loader{Input: netviz.DefaultInputSpec}.LoadDeclarative(path)
	require.NoError(t, err)
	assert.Equal(t, "sequential_1", model.Name())
	assert.Equal(t, uint64(4*6+6+6*2), model.CountParams())
	assert.Len(t, model.Layers(), 2)
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.h5")
	require.NoError(t, ioutil.WriteFile(path, []byte("this is not a model"), 0644))
	d := summary.Declarative{Loader: Loader{}, Input: netviz.DefaultInputSpec}
	result, err := d.Summarize(path, "model.h5")
	assert.Nil(t, result)
	assert.Equal(t, netviz.KindLoad, netviz.ErrorKind(err))
}

// fakeInspector installs a shell script in place of keras_inspect.py.
func fakeInspector(t *testing.T, script string) Loader {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, InspectScript), []byte(script), 0644))
	return Loader{Python: "sh", ScriptDir: dir, Input: netviz.DefaultInputSpec}
}

func writeHDF5(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "model.h5")
	require.NoError(t, ioutil.WriteFile(path, append(append([]byte{}, hdf5Magic...), 0, 0, 0, 0), 0644))
	return path
}

func TestLoadHDF5(t *testing.T) {
	loader := fakeInspector(t, "cat <<'EOF'\n"+
		`{"name": "mnist", "total_params": 54410, "config": `+mnistConfig+`,`+
		`"output_shapes": {"conv2d": [null, 26, 26, 32], "max_pooling2d": [null, 13, 13, 32], "flatten": [null, 5408], "dense": [null, 10]}}`+
		"\nEOF\n")
	d := summary.Declarative{Loader: loader, Input: netviz.DefaultInputSpec}
	result, err := d.Summarize(writeHDF5(t), "mnist.h5")
	require.NoError(t, err)
	assert.Equal(t, "mnist", result.ModelName)
	assert.Equal(t, uint64(54410), result.TotalParams)
	assert.Equal(t, mnistLayers, result.Layers)
}

func TestLoadHDF5Failure(t *testing.T) {
	loader := fakeInspector(t, "echo 'Unable to open file (truncated file)' >&2\nexit 1\n")
	_, err := loader.LoadDeclarative(writeHDF5(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated file")
}

func TestLoadConfigZeroStride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"class_name": "Sequential", "config": {"name": "broken", "layers": [
		{"class_name": "InputLayer", "config": {"batch_shape": [null, 28, 28, 1], "name": "input_layer"}},
		{"class_name": "MaxPooling2D", "config": {"name": "pool", "pool_size": [2, 2], "strides": [0, 0]}}
	]}}`), 0644))
	d := summary.Declarative{Loader: Loader{Input: netviz.DefaultInputSpec}, Input: netviz.DefaultInputSpec}
	result, err := d.Summarize(path, "model.json")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, netviz.KindLoad, netviz.ErrorKind(err))
	assert.Contains(t, err.Error(), "strides must be positive")
}
