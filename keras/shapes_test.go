package keras

import (
	"github.com/skyhookml/netviz/netviz"

	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t *testing.T, js string) LayerParams {
	var p LayerParams
	require.NoError(t, json.Unmarshal([]byte(js), &p))
	return p
}

func TestConvShapes(t *testing.T) {
	in := netviz.Shape{netviz.UnknownDim, 28, 28, 1}

	out, err := OutputShape("Conv2D", params(t, `{"filters": 32, "kernel_size": [3, 3], "padding": "valid"}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 26, 26, 32)", out.String())

	out, err = OutputShape("Conv2D", params(t, `{"filters": 16, "kernel_size": 5, "strides": 2, "padding": "same"}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 14, 14, 16)", out.String())

	out, err = OutputShape("Conv2DTranspose", params(t, `{"filters": 8, "kernel_size": 3, "strides": 2, "padding": "valid"}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 57, 57, 8)", out.String())

	_, err = OutputShape("Conv2D", params(t, `{"filters": 4, "kernel_size": 3}`), netviz.NewShape(1, 10))
	assert.Error(t, err)

	_, err = OutputShape("Conv2D", params(t, `{"filters": 4, "kernel_size": 3, "data_format": "channels_first"}`), in)
	assert.Error(t, err)
}

func TestPoolAndFlattenShapes(t *testing.T) {
	in := netviz.Shape{netviz.UnknownDim, 26, 26, 32}

	out, err := OutputShape("MaxPooling2D", params(t, `{"pool_size": [2, 2]}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 13, 13, 32)", out.String())

	out, err = OutputShape("AveragePooling2D", params(t, `{"pool_size": 3, "strides": 1, "padding": "same"}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 26, 26, 32)", out.String())

	out, err = OutputShape("Flatten", LayerParams{}, netviz.Shape{netviz.UnknownDim, 13, 13, 32})
	require.NoError(t, err)
	assert.Equal(t, "(None, 5408)", out.String())

	out, err = OutputShape("GlobalAveragePooling2D", LayerParams{}, in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 32)", out.String())
}

func TestDenseAndMiscShapes(t *testing.T) {
	out, err := OutputShape("Dense", params(t, `{"units": 10}`), netviz.Shape{netviz.UnknownDim, 5408})
	require.NoError(t, err)
	assert.Equal(t, "(None, 10)", out.String())

	out, err = OutputShape("Dropout", params(t, `{"rate": 0.5}`), netviz.Shape{netviz.UnknownDim, 10})
	require.NoError(t, err)
	assert.Equal(t, "(None, 10)", out.String())

	out, err = OutputShape("Reshape", params(t, `{"target_shape": [-1, 4]}`), netviz.Shape{netviz.UnknownDim, 16})
	require.NoError(t, err)
	assert.Equal(t, "(None, 4, 4)", out.String())

	out, err = OutputShape("ZeroPadding2D", params(t, `{"padding": [[1, 2], [3, 4]]}`), netviz.Shape{netviz.UnknownDim, 8, 8, 3})
	require.NoError(t, err)
	assert.Equal(t, "(None, 11, 15, 3)", out.String())

	out, err = OutputShape("UpSampling2D", params(t, `{"size": [2, 2]}`), netviz.Shape{netviz.UnknownDim, 8, 8, 3})
	require.NoError(t, err)
	assert.Equal(t, "(None, 16, 16, 3)", out.String())

	_, err = OutputShape("MyCustomLayer", LayerParams{}, netviz.Shape{netviz.UnknownDim, 8})
	assert.Error(t, err)
}

func TestCountLayerParams(t *testing.T) {
	assert.Equal(t, uint64(320), countLayerParams("Conv2D", params(t, `{"filters": 32, "kernel_size": [3, 3]}`), netviz.Shape{netviz.UnknownDim, 28, 28, 1}))
	assert.Equal(t, uint64(54090), countLayerParams("Dense", params(t, `{"units": 10}`), netviz.Shape{netviz.UnknownDim, 5408}))
	assert.Equal(t, uint64(50), countLayerParams("Dense", params(t, `{"units": 10, "use_bias": false}`), netviz.Shape{netviz.UnknownDim, 5}))
	assert.Equal(t, uint64(128), countLayerParams("BatchNormalization", LayerParams{}, netviz.Shape{netviz.UnknownDim, 32}))
	assert.Equal(t, uint64(0), countLayerParams("Flatten", LayerParams{}, netviz.Shape{netviz.UnknownDim, 32}))
}

func TestRejectsNonPositiveWindows(t *testing.T) {
	in := netviz.Shape{netviz.UnknownDim, 28, 28, 1}
	for class, js := range map[string]string{
		"MaxPooling2D": `{"pool_size": [2, 2], "strides": [0, 0]}`,
		"Conv2D":       `{"filters": 8, "kernel_size": 0}`,
		"Conv1D":       `{"filters": 8, "kernel_size": 3, "dilation_rate": -1}`,
		"UpSampling2D": `{"size": [2, 0]}`,
		"Dense":        `{"units": -3}`,
	} {
		_, err := OutputShape(class, params(t, js), in)
		assert.Error(t, err, class)
	}
}

func TestDepthwiseShapes(t *testing.T) {
	in := netviz.Shape{netviz.UnknownDim, 28, 28, 8}
	out, err := OutputShape("DepthwiseConv2D", params(t, `{"kernel_size": 3, "depth_multiplier": 2}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 26, 26, 16)", out.String())

	out, err = OutputShape("SeparableConv2D", params(t, `{"filters": 16, "kernel_size": 3, "padding": "same"}`), in)
	require.NoError(t, err)
	assert.Equal(t, "(None, 28, 28, 16)", out.String())
}

func TestCountSeparableParams(t *testing.T) {
	in := netviz.Shape{netviz.UnknownDim, 28, 28, 8}
	// depthwise 3*3*8, pointwise 8*16, bias 16
	assert.Equal(t, uint64(216), countLayerParams("SeparableConv2D", params(t, `{"filters": 16, "kernel_size": [3, 3]}`), in))
	assert.Equal(t, uint64(72+128), countLayerParams("SeparableConv2D", params(t, `{"filters": 16, "kernel_size": [3, 3], "use_bias": false}`), in))
	// 3*3*8*2 weights plus one bias per output channel
	assert.Equal(t, uint64(160), countLayerParams("DepthwiseConv2D", params(t, `{"kernel_size": 3, "depth_multiplier": 2}`), in))
}

func TestNullStridesUsePoolSize(t *testing.T) {
	out, err := OutputShape("MaxPooling2D", params(t, `{"pool_size": [2, 2], "strides": null}`), netviz.Shape{netviz.UnknownDim, 26, 26, 32})
	require.NoError(t, err)
	assert.Equal(t, "(None, 13, 13, 32)", out.String())
}
