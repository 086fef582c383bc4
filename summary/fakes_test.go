package summary

import (
	"github.com/skyhookml/netviz/netviz"

	"fmt"
)

// Declarative fakes.

type fakeLayer struct {
	name  string
	class string
}

func (l fakeLayer) Name() string      { return l.name }
func (l fakeLayer) ClassName() string { return l.class }

type staticLayer struct {
	fakeLayer
	shape netviz.Shape
}

func (l staticLayer) OutputShape() (netviz.Shape, bool) { return l.shape, l.shape != nil }

// inferLayer appends the given units as a new last axis after dropping the last one.
type inferLayer struct {
	fakeLayer
	units int
	err   error
}

func (l inferLayer) ComputeOutputShape(input netviz.Shape) (netviz.Shape, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := input.Clone()
	out[len(out)-1] = netviz.Dim(l.units)
	return out, nil
}

type fakeModel struct {
	name   string
	params uint64
	layers []Layer
}

func (m fakeModel) Name() string        { return m.name }
func (m fakeModel) CountParams() uint64 { return m.params }
func (m fakeModel) Layers() []Layer     { return m.layers }

type fakeDeclarativeLoader struct {
	model DeclarativeModel
	err   error
}

func (l fakeDeclarativeLoader) LoadDeclarative(path string) (DeclarativeModel, error) {
	return l.model, l.err
}

// Imperative fakes.

type fakeModule struct {
	class    string
	params   []netviz.Shape
	children []Module
	// output shape reported when this module fires
	output netviz.Shape
}

func (m *fakeModule) ClassName() string          { return m.class }
func (m *fakeModule) Children() []Module         { return m.children }
func (m *fakeModule) Parameters() []netviz.Shape { return m.params }

type fakeHandle struct {
	net    *fakeNetwork
	module Module
}

func (h fakeHandle) Remove() {
	delete(h.net.listeners, h.module)
}

// fakeNetwork fires its leaves in the order given by firing.
type fakeNetwork struct {
	fakeModule
	firing     []*fakeModule
	listeners  map[Module]Listener
	evaluated  bool
	forwardErr error
	// fail after this many modules fired, if forwardErr is set
	failAfter int
	forwarded int
	lastInput netviz.Shape
}

func (n *fakeNetwork) Eval() error {
	n.evaluated = true
	return nil
}

func (n *fakeNetwork) Observe(m Module, l Listener) Handle {
	if n.listeners == nil {
		n.listeners = make(map[Module]Listener)
	}
	n.listeners[m] = l
	return fakeHandle{n, m}
}

func (n *fakeNetwork) Forward(input netviz.Shape) error {
	n.forwarded++
	n.lastInput = input
	for i, m := range n.firing {
		if n.forwardErr != nil && i == n.failAfter {
			return n.forwardErr
		}
		if l := n.listeners[m]; l != nil {
			l(m.class, m.output)
		}
	}
	if n.forwardErr != nil {
		return n.forwardErr
	}
	return nil
}

type fakeImperativeLoader struct {
	obj interface{}
	err error
}

func (l fakeImperativeLoader) LoadImperative(path string) (interface{}, error) {
	return l.obj, l.err
}

var errBroken = fmt.Errorf("broken")

type closingNetwork struct {
	*fakeNetwork
	closed int
}

func (n *closingNetwork) Close() error {
	n.closed++
	return nil
}
