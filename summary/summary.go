// Package summary turns loaded models into presentational summaries.
//
// The framework runtimes are reached only through the capability interfaces
// below, so the summarizers can run against fakes.
package summary

import (
	"github.com/skyhookml/netviz/netviz"
)

// Declarative models keep their layer graph as metadata.

type DeclarativeLoader interface {
	LoadDeclarative(path string) (DeclarativeModel, error)
}

type DeclarativeModel interface {
	Name() string
	CountParams() uint64
	// Layers in declared order.
	Layers() []Layer
}

type Layer interface {
	Name() string
	ClassName() string
}

// Implemented by layers whose output shape was stored with the model.
type HasStaticShape interface {
	OutputShape() (netviz.Shape, bool)
}

// Implemented by layers that can compute their output shape from an input shape.
type RequiresShapeInference interface {
	ComputeOutputShape(input netviz.Shape) (netviz.Shape, error)
}

// Imperative models can only be observed by running them.

type ImperativeLoader interface {
	// LoadImperative returns whatever object was deserialized from the file.
	// Only values implementing Network can be summarized.
	LoadImperative(path string) (interface{}, error)
}

type Module interface {
	ClassName() string
	Children() []Module
	// Shapes of the learnable parameter tensors owned directly by this module.
	Parameters() []netviz.Shape
}

// Listener receives the output of an observed module during a forward pass.
type Listener func(className string, output netviz.Shape)

type Handle interface {
	Remove()
}

type Network interface {
	Module
	// Eval switches off training-only behavior such as dropout.
	Eval() error
	// Observe attaches l to module m until the returned handle is removed.
	Observe(m Module, l Listener) Handle
	// Forward runs the network once on a synthetic tensor of the given shape,
	// calling listeners synchronously as observed modules complete.
	Forward(input netviz.Shape) error
}

// Leaves returns the modules without children under m, depth-first in
// declaration order. m itself is returned if it has no children.
func Leaves(m Module) []Module {
	children := m.Children()
	if len(children) == 0 {
		return []Module{m}
	}
	var leaves []Module
	for _, child := range children {
		leaves = append(leaves, Leaves(child)...)
	}
	return leaves
}

// CountParams sums the element counts of every parameter in the module tree.
func CountParams(m Module) uint64 {
	var total uint64
	for _, p := range m.Parameters() {
		total += p.NumElements()
	}
	for _, child := range m.Children() {
		total += CountParams(child)
	}
	return total
}
