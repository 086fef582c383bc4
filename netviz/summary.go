package netviz

// Presentational summary of one uploaded model.
// It is built fresh for every request and never stored.
type ModelSummary struct {
	ModelName     string        `json:"model_name"`
	ModelFilename string        `json:"model_filename"`
	TotalParams   uint64        `json:"total_params"`
	Layers        []LayerRecord `json:"layers"`
}

type LayerRecord struct {
	Name string `json:"name"`
	// Layer type in Keras vocabulary, e.g. "Dense" or "Conv2D".
	Type string `json:"type"`
	// Tuple representation of the output shape, empty if it could not be determined.
	OutputShape string `json:"output_shape,omitempty"`
}

// The assumed input of a model whose signature is not known: a single-channel
// square image. Height and width come from the server configuration.
type InputSpec struct {
	Height int
	Width  int
}

var DefaultInputSpec = InputSpec{Height: 128, Width: 128}

// Channels-last shape with an unknown batch axis, used to seed declarative summaries.
func (spec InputSpec) DeclarativeShape() Shape {
	return Shape{UnknownDim, Dim(spec.Height), Dim(spec.Width), 1}
}

// Channels-first shape with batch 1, used for the synthetic forward pass.
func (spec InputSpec) ImperativeShape() Shape {
	return Shape{1, 1, Dim(spec.Height), Dim(spec.Width)}
}
