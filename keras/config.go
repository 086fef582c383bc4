package keras

import (
	"github.com/skyhookml/netviz/netviz"

	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Model config as written by model.to_json() / config.json in .keras archives.
type ModelConfig struct {
	ClassName string
	Name      string
	Layers    []LayerConfig
}

type LayerConfig struct {
	ClassName string
	Name      string
	Params    LayerParams
	// Input shape recorded when the layer was built (Keras 3 only).
	BuildInputShape netviz.Shape
}

// Subset of layer config keys used for shape inference and parameter counting.
type LayerParams struct {
	Name         string          `json:"name"`
	Units        int             `json:"units"`
	Filters      int             `json:"filters"`
	KernelSize   intTuple        `json:"kernel_size"`
	Strides      intTuple        `json:"strides"`
	PoolSize     intTuple        `json:"pool_size"`
	DilationRate intTuple        `json:"dilation_rate"`
	Size         intTuple        `json:"size"`
	Padding      json.RawMessage `json:"padding"`
	DataFormat   string          `json:"data_format"`
	UseBias      *bool           `json:"use_bias"`
	Center       *bool           `json:"center"`
	Scale        *bool           `json:"scale"`
	TargetShape  []int           `json:"target_shape"`
	InputDim     int             `json:"input_dim"`
	OutputDim    int             `json:"output_dim"`
	KeepDims     bool            `json:"keepdims"`
	// DepthwiseConv2D and SeparableConv2D only.
	DepthMultiplier int `json:"depth_multiplier"`
	// Keras 2 uses batch_input_shape, Keras 3 uses batch_shape.
	BatchInputShape []*int `json:"batch_input_shape"`
	BatchShape      []*int `json:"batch_shape"`
}

// intTuple accepts either a scalar or a list of ints.
type intTuple []int

func (t *intTuple) UnmarshalJSON(data []byte) error {
	var scalar int
	if string(data) == "null" {
		*t = nil
		return nil
	}
	if err := json.Unmarshal(data, &scalar); err == nil {
		*t = intTuple{scalar}
		return nil
	}
	var list []int
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected int or list of ints, got %s", string(data))
	}
	*t = list
	return nil
}

// get returns the i-th element, repeating a scalar and using def when unset.
func (t intTuple) get(i int, def int) int {
	if len(t) == 0 {
		return def
	}
	if i < len(t) {
		return t[i]
	}
	return t[len(t)-1]
}

func (p LayerParams) batchShape() netviz.Shape {
	dims := p.BatchShape
	if dims == nil {
		dims = p.BatchInputShape
	}
	return shapeFromNullable(dims)
}

func shapeFromNullable(dims []*int) netviz.Shape {
	if dims == nil {
		return nil
	}
	shape := make(netviz.Shape, len(dims))
	for i, d := range dims {
		if d == nil {
			shape[i] = netviz.UnknownDim
		} else {
			shape[i] = netviz.Dim(*d)
		}
	}
	return shape
}

type rawLayer struct {
	ClassName   string          `json:"class_name"`
	Name        string          `json:"name"`
	Config      json.RawMessage `json:"config"`
	BuildConfig *struct {
		InputShape []*int `json:"input_shape"`
	} `json:"build_config"`
}

// ParseModelConfig decodes a Keras model config. Sequential, Functional and
// Model configs are supported, as well as the pre-2.2 Sequential layout where
// config is the layer list itself.
func ParseModelConfig(data []byte) (*ModelConfig, error) {
	var raw struct {
		ClassName string          `json:"class_name"`
		Config    json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding model config")
	}
	if raw.ClassName == "" {
		return nil, fmt.Errorf("model config has no class_name")
	}

	var body struct {
		Name   string     `json:"name"`
		Layers []rawLayer `json:"layers"`
	}
	if len(raw.Config) > 0 && raw.Config[0] == '[' {
		if err := json.Unmarshal(raw.Config, &body.Layers); err != nil {
			return nil, errors.Wrap(err, "decoding layer list")
		}
	} else if err := json.Unmarshal(raw.Config, &body); err != nil {
		return nil, errors.Wrap(err, "decoding model body")
	}

	mc := &ModelConfig{
		ClassName: raw.ClassName,
		Name:      body.Name,
	}
	for i, rl := range body.Layers {
		lc := LayerConfig{ClassName: rl.ClassName, Name: rl.Name}
		if len(rl.Config) > 0 {
			if err := json.Unmarshal(rl.Config, &lc.Params); err != nil {
				return nil, errors.Wrapf(err, "decoding config of layer %d (%s)", i, rl.ClassName)
			}
		}
		if lc.Name == "" {
			lc.Name = lc.Params.Name
		}
		if rl.BuildConfig != nil {
			lc.BuildInputShape = shapeFromNullable(rl.BuildConfig.InputShape)
		}
		mc.Layers = append(mc.Layers, lc)
	}
	if mc.Name == "" {
		mc.Name = "sequential"
	}
	return mc, nil
}

func (mc *ModelConfig) IsSequential() bool {
	return mc.ClassName == "Sequential"
}
