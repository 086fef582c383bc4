package summary

import (
	"github.com/skyhookml/netviz/netviz"

	"fmt"
	"io"
)

type Imperative struct {
	Loader ImperativeLoader
	Input  netviz.InputSpec
}

func (im Imperative) Summarize(path string, filename string) (*netviz.ModelSummary, error) {
	obj, err := im.Loader.LoadImperative(path)
	if err != nil {
		return nil, &netviz.LoadError{Filename: filename, Err: err}
	}
	// loaders may keep framework resources alive behind the object
	if closer, ok := obj.(io.Closer); ok {
		defer closer.Close()
	}
	net, ok := obj.(Network)
	if !ok {
		return nil, &netviz.TypeMismatchError{Filename: filename, TypeName: typeName(obj)}
	}

	if err := net.Eval(); err != nil {
		return nil, &netviz.InferenceError{Filename: filename, Err: err}
	}

	// an empty summary still lists zero layers, not null
	recorder := layerRecorder{layers: []netviz.LayerRecord{}}
	layers, err := recorder.run(net, im.Input.ImperativeShape())
	if err != nil {
		return nil, &netviz.InferenceError{Filename: filename, Err: err}
	}

	return &netviz.ModelSummary{
		ModelName:     net.ClassName(),
		ModelFilename: filename,
		TotalParams:   CountParams(net),
		Layers:        layers,
	}, nil
}

// layerRecorder collects one record per observed leaf output, in firing order.
type layerRecorder struct {
	layers []netviz.LayerRecord
	// per presented type, used for Keras-style record names
	counts map[string]int
}

func (r *layerRecorder) observe(className string, output netviz.Shape) {
	if IsSkipped(className) {
		return
	}
	layerType := NormalizeLayerType(className)
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	name := snakeCase(layerType)
	if n := r.counts[layerType]; n > 0 {
		name = fmt.Sprintf("%s_%d", name, n)
	}
	r.counts[layerType]++
	r.layers = append(r.layers, netviz.LayerRecord{
		Name:        name,
		Type:        layerType,
		OutputShape: output.ChannelsLast().String(),
	})
}

// run attaches the recorder to every leaf, executes one forward pass, and
// always detaches before returning.
func (r *layerRecorder) run(net Network, input netviz.Shape) ([]netviz.LayerRecord, error) {
	leaves := Leaves(net)
	handles := make([]Handle, 0, len(leaves))
	defer func() {
		for _, h := range handles {
			h.Remove()
		}
	}()
	for _, leaf := range leaves {
		handles = append(handles, net.Observe(leaf, r.observe))
	}

	if err := net.Forward(input); err != nil {
		return nil, err
	}
	return r.layers, nil
}

func typeName(obj interface{}) string {
	if named, ok := obj.(interface{ TypeName() string }); ok {
		return named.TypeName()
	}
	if obj == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", obj)
}
