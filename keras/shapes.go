package keras

import (
	"github.com/skyhookml/netviz/netviz"

	"encoding/json"
	"fmt"
)

type shapeFunc func(p LayerParams, in netviz.Shape) (netviz.Shape, error)

var shapeRules = map[string]shapeFunc{
	"InputLayer":             identityShape,
	"Dropout":                identityShape,
	"SpatialDropout1D":       identityShape,
	"SpatialDropout2D":       identityShape,
	"GaussianNoise":          identityShape,
	"Activation":             identityShape,
	"ReLU":                   identityShape,
	"LeakyReLU":              identityShape,
	"PReLU":                  identityShape,
	"ELU":                    identityShape,
	"Softmax":                identityShape,
	"BatchNormalization":     identityShape,
	"LayerNormalization":     identityShape,
	"Rescaling":              identityShape,
	"Dense":                  denseShape,
	"Embedding":              embeddingShape,
	"Flatten":                flattenShape,
	"Reshape":                reshapeShape,
	"Conv1D":                 convShape(1, false),
	"Conv2D":                 convShape(2, false),
	"Conv3D":                 convShape(3, false),
	"Conv2DTranspose":        convShape(2, true),
	"SeparableConv2D":        convShape(2, false),
	"DepthwiseConv2D":        depthwiseShape,
	"MaxPooling1D":           poolShape(1),
	"MaxPooling2D":           poolShape(2),
	"MaxPooling3D":           poolShape(3),
	"AveragePooling1D":       poolShape(1),
	"AveragePooling2D":       poolShape(2),
	"AveragePooling3D":       poolShape(3),
	"GlobalMaxPooling1D":     globalPoolShape,
	"GlobalMaxPooling2D":     globalPoolShape,
	"GlobalAveragePooling1D": globalPoolShape,
	"GlobalAveragePooling2D": globalPoolShape,
	"ZeroPadding2D":          zeroPaddingShape,
	"UpSampling2D":           upSamplingShape,
}

// Aliases used by older Keras versions.
func init() {
	shapeRules["MaxPool2D"] = shapeRules["MaxPooling2D"]
	shapeRules["AvgPool2D"] = shapeRules["AveragePooling2D"]
	shapeRules["Convolution2D"] = shapeRules["Conv2D"]
}

// OutputShape applies the shape rule of the given layer class.
func OutputShape(class string, p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	rule := shapeRules[class]
	if rule == nil {
		return nil, fmt.Errorf("no shape rule for layer class %s", class)
	}
	if p.DataFormat == "channels_first" {
		return nil, fmt.Errorf("data_format channels_first is not supported")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return rule(p, in)
}

// validate rejects window, stride and size values no layer can be built with.
func (p LayerParams) validate() error {
	windows := []struct {
		key    string
		values intTuple
	}{
		{"kernel_size", p.KernelSize},
		{"strides", p.Strides},
		{"pool_size", p.PoolSize},
		{"dilation_rate", p.DilationRate},
		{"size", p.Size},
	}
	for _, w := range windows {
		for _, v := range w.values {
			if v <= 0 {
				return fmt.Errorf("%s must be positive, got %v", w.key, []int(w.values))
			}
		}
	}
	if p.Units < 0 || p.Filters < 0 || p.DepthMultiplier < 0 || p.InputDim < 0 || p.OutputDim < 0 {
		return fmt.Errorf("negative layer size in %s", p.Name)
	}
	return nil
}

func depthMultiplier(p LayerParams) int {
	if p.DepthMultiplier == 0 {
		return 1
	}
	return p.DepthMultiplier
}

func identityShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	return in.Clone(), nil
}

func denseShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	if len(in) < 2 {
		return nil, fmt.Errorf("Dense expects rank >= 2, got %v", in)
	}
	out := in.Clone()
	out[len(out)-1] = netviz.Dim(p.Units)
	return out, nil
}

func embeddingShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	out := in.Clone()
	return append(out, netviz.Dim(p.OutputDim)), nil
}

func flattenShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	if len(in) < 1 {
		return nil, fmt.Errorf("Flatten expects a batch axis")
	}
	flat := netviz.Dim(1)
	for _, d := range in[1:] {
		if d < 0 {
			flat = netviz.UnknownDim
			break
		}
		flat *= d
	}
	return netviz.Shape{in[0], flat}, nil
}

func reshapeShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	if len(in) < 1 {
		return nil, fmt.Errorf("Reshape expects a batch axis")
	}
	out := netviz.Shape{in[0]}
	known := netviz.Dim(1)
	wildcard := -1
	for i, d := range p.TargetShape {
		if d == -1 {
			if wildcard >= 0 {
				return nil, fmt.Errorf("Reshape target %v has more than one -1", p.TargetShape)
			}
			wildcard = i
		} else {
			known *= netviz.Dim(d)
		}
		out = append(out, netviz.Dim(d))
	}
	if wildcard >= 0 {
		total := netviz.Shape(in[1:]).NumElements()
		if total == 0 || known == 0 || netviz.Dim(total)%known != 0 {
			out[wildcard+1] = netviz.UnknownDim
		} else {
			out[wildcard+1] = netviz.Dim(total) / known
		}
	}
	return out, nil
}

func paddingMode(p LayerParams) (string, error) {
	if len(p.Padding) == 0 {
		return "valid", nil
	}
	var mode string
	if err := json.Unmarshal(p.Padding, &mode); err != nil {
		return "", fmt.Errorf("unexpected padding %s", string(p.Padding))
	}
	if mode != "valid" && mode != "same" && mode != "causal" {
		return "", fmt.Errorf("unsupported padding %q", mode)
	}
	return mode, nil
}

// Output length of a sliding window along one axis.
func windowLength(n netviz.Dim, kernel, stride, dilation int, mode string) netviz.Dim {
	if n < 0 {
		return netviz.UnknownDim
	}
	if mode == "same" || mode == "causal" {
		return (n + netviz.Dim(stride) - 1) / netviz.Dim(stride)
	}
	effective := netviz.Dim((kernel-1)*dilation + 1)
	if n < effective {
		return 0
	}
	return (n-effective)/netviz.Dim(stride) + 1
}

// Output length of a transposed convolution along one axis.
func transposedLength(n netviz.Dim, kernel, stride int, mode string) netviz.Dim {
	if n < 0 {
		return netviz.UnknownDim
	}
	if mode == "same" {
		return n * netviz.Dim(stride)
	}
	return (n-1)*netviz.Dim(stride) + netviz.Dim(kernel)
}

func convShape(rank int, transposed bool) shapeFunc {
	return func(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
		if len(in) != rank+2 {
			return nil, fmt.Errorf("expected rank %d input, got %v", rank+2, in)
		}
		mode, err := paddingMode(p)
		if err != nil {
			return nil, err
		}
		out := netviz.Shape{in[0]}
		for i := 0; i < rank; i++ {
			kernel := p.KernelSize.get(i, 1)
			stride := p.Strides.get(i, 1)
			if transposed {
				out = append(out, transposedLength(in[i+1], kernel, stride, mode))
			} else {
				out = append(out, windowLength(in[i+1], kernel, stride, p.DilationRate.get(i, 1), mode))
			}
		}
		return append(out, netviz.Dim(p.Filters)), nil
	}
}

// DepthwiseConv2D keeps the spatial arithmetic of Conv2D but multiplies channels.
func depthwiseShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	out, err := convShape(2, false)(p, in)
	if err != nil {
		return nil, err
	}
	channels := in[len(in)-1]
	if channels >= 0 {
		channels *= netviz.Dim(depthMultiplier(p))
	}
	out[len(out)-1] = channels
	return out, nil
}

func poolShape(rank int) shapeFunc {
	return func(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
		if len(in) != rank+2 {
			return nil, fmt.Errorf("expected rank %d input, got %v", rank+2, in)
		}
		mode, err := paddingMode(p)
		if err != nil {
			return nil, err
		}
		out := netviz.Shape{in[0]}
		for i := 0; i < rank; i++ {
			pool := p.PoolSize.get(i, 2)
			stride := p.Strides.get(i, pool)
			out = append(out, windowLength(in[i+1], pool, stride, 1, mode))
		}
		return append(out, in[len(in)-1]), nil
	}
}

func globalPoolShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	if len(in) < 3 {
		return nil, fmt.Errorf("global pooling expects rank >= 3, got %v", in)
	}
	if p.KeepDims {
		out := netviz.Shape{in[0]}
		for range in[1 : len(in)-1] {
			out = append(out, 1)
		}
		return append(out, in[len(in)-1]), nil
	}
	return netviz.Shape{in[0], in[len(in)-1]}, nil
}

// ZeroPadding2D padding may be an int, a pair, or ((top, bottom), (left, right)).
func zeroPaddingShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	if len(in) != 4 {
		return nil, fmt.Errorf("ZeroPadding2D expects rank 4, got %v", in)
	}
	var pads [2]int
	var scalar int
	var pair []int
	var nested [][]int
	switch {
	case len(p.Padding) == 0:
		pads = [2]int{2, 2}
	case json.Unmarshal(p.Padding, &scalar) == nil:
		pads = [2]int{2 * scalar, 2 * scalar}
	case json.Unmarshal(p.Padding, &pair) == nil && len(pair) == 2:
		pads = [2]int{2 * pair[0], 2 * pair[1]}
	case json.Unmarshal(p.Padding, &nested) == nil && len(nested) == 2 && len(nested[0]) == 2 && len(nested[1]) == 2:
		pads = [2]int{nested[0][0] + nested[0][1], nested[1][0] + nested[1][1]}
	default:
		return nil, fmt.Errorf("unexpected padding %s", string(p.Padding))
	}
	out := in.Clone()
	for i := 0; i < 2; i++ {
		if out[i+1] >= 0 {
			out[i+1] += netviz.Dim(pads[i])
		}
	}
	return out, nil
}

func upSamplingShape(p LayerParams, in netviz.Shape) (netviz.Shape, error) {
	if len(in) != 4 {
		return nil, fmt.Errorf("UpSampling2D expects rank 4, got %v", in)
	}
	out := in.Clone()
	for i := 0; i < 2; i++ {
		if out[i+1] >= 0 {
			out[i+1] *= netviz.Dim(p.Size.get(i, 2))
		}
	}
	return out, nil
}
