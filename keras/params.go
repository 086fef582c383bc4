package keras

import (
	"github.com/skyhookml/netviz/netviz"
)

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// countLayerParams returns the number of weights (trainable or not) a layer
// of the given class creates when built on input shape in.
// Classes without weights, or inputs with unknown channel extents, count zero.
// p must have passed validate.
func countLayerParams(class string, p LayerParams, in netviz.Shape) uint64 {
	if class == "Embedding" {
		return uint64(p.InputDim) * uint64(p.OutputDim)
	}
	if len(in) == 0 {
		return 0
	}
	channels := in[len(in)-1]
	if channels < 0 {
		return 0
	}
	cin := uint64(channels)
	var bias uint64
	switch class {
	case "Dense":
		if boolOr(p.UseBias, true) {
			bias = uint64(p.Units)
		}
		return cin*uint64(p.Units) + bias
	case "Conv1D", "Conv2D", "Conv3D", "Conv2DTranspose", "Convolution2D":
		kernel := uint64(1)
		for i := 0; i < len(in)-2; i++ {
			kernel *= uint64(p.KernelSize.get(i, 1))
		}
		if boolOr(p.UseBias, true) {
			bias = uint64(p.Filters)
		}
		return kernel*cin*uint64(p.Filters) + bias
	case "DepthwiseConv2D", "SeparableConv2D":
		kernel := uint64(1)
		for i := 0; i < len(in)-2; i++ {
			kernel *= uint64(p.KernelSize.get(i, 1))
		}
		inner := cin * uint64(depthMultiplier(p))
		depthwise := kernel * inner
		if class == "DepthwiseConv2D" {
			if boolOr(p.UseBias, true) {
				bias = inner
			}
			return depthwise + bias
		}
		if boolOr(p.UseBias, true) {
			bias = uint64(p.Filters)
		}
		return depthwise + inner*uint64(p.Filters) + bias
	case "BatchNormalization":
		// moving mean and variance are always present
		n := 2 * cin
		if boolOr(p.Center, true) {
			n += cin
		}
		if boolOr(p.Scale, true) {
			n += cin
		}
		return n
	case "LayerNormalization":
		var n uint64
		if boolOr(p.Center, true) {
			n += cin
		}
		if boolOr(p.Scale, true) {
			n += cin
		}
		return n
	case "PReLU":
		return netviz.Shape(in[1:]).NumElements()
	}
	return 0
}
