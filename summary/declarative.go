package summary

import (
	"github.com/skyhookml/netviz/netviz"

	"k8s.io/klog/v2"
)

// Name and type of the synthetic record that leads every declarative summary.
const (
	InputRecordName = "input"
	InputRecordType = "InputLayer"
)

type Declarative struct {
	Loader DeclarativeLoader
	Input  netviz.InputSpec
}

func (d Declarative) Summarize(path string, filename string) (*netviz.ModelSummary, error) {
	model, err := d.Loader.LoadDeclarative(path)
	if err != nil {
		return nil, &netviz.LoadError{Filename: filename, Err: err}
	}

	// Models loaded without their training signature may not know their input
	// shape, so we seed the walk with the assumed input.
	current := d.Input.DeclarativeShape()
	layers := []netviz.LayerRecord{{
		Name:        InputRecordName,
		Type:        InputRecordType,
		OutputShape: current.String(),
	}}

	for _, layer := range model.Layers() {
		record := netviz.LayerRecord{
			Name: layer.Name(),
			Type: layer.ClassName(),
		}
		var shape netviz.Shape
		var known bool
		if static, ok := layer.(HasStaticShape); ok {
			shape, known = static.OutputShape()
		}
		if !known {
			if inferrer, ok := layer.(RequiresShapeInference); ok && current != nil {
				inferred, err := inferrer.ComputeOutputShape(current)
				if err != nil {
					klog.V(1).Infof("[declarative] %s: cannot infer output of %s (%s): %v", filename, layer.Name(), layer.ClassName(), err)
				} else {
					shape, known = inferred, true
				}
			}
		}
		if known {
			record.OutputShape = shape.String()
			current = shape
		} else {
			current = nil
		}
		layers = append(layers, record)
	}

	return &netviz.ModelSummary{
		ModelName:     model.Name(),
		ModelFilename: filename,
		TotalParams:   model.CountParams(),
		Layers:        layers,
	}, nil
}
