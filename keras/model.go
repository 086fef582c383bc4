package keras

import (
	"github.com/skyhookml/netviz/netviz"
	"github.com/skyhookml/netviz/summary"

	"github.com/pkg/errors"
)

// Layer built from a config entry. Its output shape is computed on demand.
type Layer struct {
	Config LayerConfig
}

func (l *Layer) Name() string      { return l.Config.Name }
func (l *Layer) ClassName() string { return l.Config.ClassName }

func (l *Layer) ComputeOutputShape(in netviz.Shape) (netviz.Shape, error) {
	return OutputShape(l.Config.ClassName, l.Config.Params, in)
}

// Layer whose output shape was stored with the model or fixed when it was built.
type StaticLayer struct {
	*Layer
	Shape netviz.Shape
}

func (l *StaticLayer) OutputShape() (netviz.Shape, bool) {
	return l.Shape, l.Shape != nil
}

type Model struct {
	ModelName   string
	TotalParams uint64
	LayerList   []summary.Layer
}

func (m *Model) Name() string            { return m.ModelName }
func (m *Model) CountParams() uint64     { return m.TotalParams }
func (m *Model) Layers() []summary.Layer { return m.LayerList }

// buildLayers converts config entries into summary layers. storedShapes holds
// output shapes reported by the framework, keyed by layer name.
// Sequential models do not list their InputLayer as a layer.
func buildLayers(mc *ModelConfig, storedShapes map[string]netviz.Shape) []summary.Layer {
	var layers []summary.Layer
	for _, lc := range mc.Layers {
		if lc.ClassName == "InputLayer" && mc.IsSequential() {
			continue
		}
		layer := &Layer{Config: lc}
		if shape := storedShapes[lc.Name]; shape != nil {
			layers = append(layers, &StaticLayer{layer, shape})
			continue
		}
		if lc.BuildInputShape != nil {
			if shape, err := layer.ComputeOutputShape(lc.BuildInputShape); err == nil {
				layers = append(layers, &StaticLayer{layer, shape})
				continue
			}
		}
		layers = append(layers, layer)
	}
	return layers
}

// countConfigParams walks the layers in order, threading shapes the same way
// the model would be built, and sums the weights each layer creates.
// A layer with impossible window or size values fails the whole model.
func countConfigParams(mc *ModelConfig, fallback netviz.Shape) (uint64, error) {
	for _, lc := range mc.Layers {
		if err := lc.Params.validate(); err != nil {
			return 0, errors.Wrapf(err, "layer %s (%s)", lc.Name, lc.ClassName)
		}
	}
	current := fallback
	for _, lc := range mc.Layers {
		if shape := lc.Params.batchShape(); shape != nil {
			current = shape
			break
		}
	}
	var total uint64
	for _, lc := range mc.Layers {
		in := current
		if lc.BuildInputShape != nil {
			in = lc.BuildInputShape
		} else if shape := lc.Params.batchShape(); shape != nil {
			in = shape
		}
		if in == nil {
			continue
		}
		total += countLayerParams(lc.ClassName, lc.Params, in)
		out, err := OutputShape(lc.ClassName, lc.Params, in)
		if err != nil {
			current = nil
		} else {
			current = out
		}
	}
	return total, nil
}
