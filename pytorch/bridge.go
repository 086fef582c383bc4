package pytorch

import (
	"github.com/skyhookml/netviz/netviz"
	"github.com/skyhookml/netviz/summary"

	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// conn is one side of a conversation with the bridge process.
type conn struct {
	w     io.Writer
	r     io.Reader
	close func() error
	abort func() error
}

func (c *conn) roundTrip(req Request) (Response, error) {
	if err := netviz.WriteJsonData(req, c.w); err != nil {
		return Response{}, errors.Wrapf(err, "sending %s request to bridge", req.Type)
	}
	return c.recv()
}

func (c *conn) recv() (Response, error) {
	var resp Response
	if err := netviz.ReadJsonData(c.r, &resp); err != nil {
		return resp, errors.Wrap(err, "reading from bridge")
	}
	return resp, nil
}

// Object is a deserialized value that is not a module, e.g. a bare state dict.
type Object struct {
	Name string
}

func (o *Object) TypeName() string { return o.Name }

// openModel asks the bridge to deserialize path. On success the returned
// *Network owns c; otherwise c is closed.
func openModel(c *conn, path string) (interface{}, error) {
	resp, err := c.roundTrip(Request{Type: RequestLoad, Path: path})
	if err != nil {
		// the exit status usually says more than the broken pipe
		if abortErr := c.abort(); abortErr != nil {
			return nil, abortErr
		}
		return nil, err
	}
	switch resp.Type {
	case ResponseModule:
		if resp.Module == nil {
			c.close()
			return nil, fmt.Errorf("bridge sent an empty module tree")
		}
		return newNetwork(c, resp.Module), nil
	case ResponseObject:
		c.close()
		return &Object{Name: resp.TypeName}, nil
	case ResponseError:
		c.close()
		return nil, fmt.Errorf("%s", resp.Message)
	}
	c.close()
	return nil, fmt.Errorf("unexpected %q response to load", resp.Type)
}

type module struct {
	info     *ModuleInfo
	children []summary.Module
}

func buildModule(info *ModuleInfo, index map[string]*module) *module {
	m := &module{info: info}
	index[info.Path] = m
	for _, child := range info.Children {
		m.children = append(m.children, buildModule(child, index))
	}
	return m
}

func (m *module) ClassName() string          { return m.info.Class }
func (m *module) Children() []summary.Module { return m.children }

func (m *module) Parameters() []netviz.Shape {
	shapes := make([]netviz.Shape, len(m.info.Params))
	for i, dims := range m.info.Params {
		shapes[i] = netviz.NewShape(dims...)
	}
	return shapes
}

type observer struct {
	id       int
	listener summary.Listener
}

// Network is a module tree living in the bridge process.
// Listeners are kept on the Go side; only their paths are sent to the bridge.
type Network struct {
	*module
	conn      *conn
	index     map[string]*module
	observers map[string][]observer
	nextID    int
	closed    bool
}

func newNetwork(c *conn, root *ModuleInfo) *Network {
	index := make(map[string]*module)
	return &Network{
		module:    buildModule(root, index),
		conn:      c,
		index:     index,
		observers: make(map[string][]observer),
	}
}

func (n *Network) Eval() error {
	resp, err := n.conn.roundTrip(Request{Type: RequestEval})
	if err != nil {
		return err
	}
	if resp.Type == ResponseError {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

type handle struct {
	net  *Network
	path string
	id   int
}

func (h handle) Remove() {
	obs := h.net.observers[h.path]
	for i, o := range obs {
		if o.id == h.id {
			obs = append(obs[:i], obs[i+1:]...)
			break
		}
	}
	if len(obs) == 0 {
		delete(h.net.observers, h.path)
	} else {
		h.net.observers[h.path] = obs
	}
}

func (n *Network) Observe(m summary.Module, l summary.Listener) summary.Handle {
	// a childless root is its own leaf
	if net, ok := m.(*Network); ok && net == n {
		m = n.module
	}
	mod, ok := m.(*module)
	if !ok || n.index[mod.info.Path] != mod {
		panic(fmt.Errorf("module %s does not belong to this network", m.ClassName()))
	}
	n.nextID++
	n.observers[mod.info.Path] = append(n.observers[mod.info.Path], observer{n.nextID, l})
	return handle{n, mod.info.Path, n.nextID}
}

// NumObservers counts the listeners currently attached.
func (n *Network) NumObservers() int {
	var count int
	for _, obs := range n.observers {
		count += len(obs)
	}
	return count
}

func (n *Network) Forward(input netviz.Shape) error {
	var paths []string
	for path := range n.observers {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	if err := netviz.WriteJsonData(Request{Type: RequestForward, Shape: input.Ints(), Paths: paths}, n.conn.w); err != nil {
		return errors.Wrap(err, "sending forward request to bridge")
	}
	for {
		resp, err := n.conn.recv()
		if err != nil {
			if abortErr := n.abort(); abortErr != nil {
				return abortErr
			}
			return err
		}
		switch resp.Type {
		case ResponseOutput:
			shape := netviz.NewShape(resp.Shape...)
			for _, o := range n.observers[resp.Path] {
				o.listener(resp.Class, shape)
			}
		case ResponseDone:
			return nil
		case ResponseError:
			return fmt.Errorf("%s", resp.Message)
		default:
			return fmt.Errorf("unexpected %q response during forward pass", resp.Type)
		}
	}
}

func (n *Network) abort() error {
	if n.closed {
		return nil
	}
	n.closed = true
	return n.conn.abort()
}

// Close stops the bridge process.
func (n *Network) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	return n.conn.close()
}
