package pytorch

// Packets exchanged with torch_bridge.py over stdin/stdout.
// Each packet is a length-prefixed JSON object (see netviz.WriteJsonData).

const (
	RequestLoad    = "load"
	RequestEval    = "eval"
	RequestForward = "forward"

	ResponseModule = "module"
	ResponseObject = "object"
	ResponseOK     = "ok"
	ResponseOutput = "output"
	ResponseDone   = "done"
	ResponseError  = "error"
)

type Request struct {
	Type string
	// for load
	Path string `json:",omitempty"`
	// for forward: input shape and the module paths to observe
	Shape []int    `json:",omitempty"`
	Paths []string `json:",omitempty"`
}

type ModuleInfo struct {
	// Dotted path from the root module, "" for the root itself.
	Path     string
	Class    string
	Params   [][]int
	Children []*ModuleInfo
}

type Response struct {
	Type string
	// for module
	Module *ModuleInfo `json:",omitempty"`
	// for object
	TypeName string `json:",omitempty"`
	// for output
	Path  string `json:",omitempty"`
	Class string `json:",omitempty"`
	Shape []int  `json:",omitempty"`
	// for error: "load", "eval" or "inference"
	Kind    string `json:",omitempty"`
	Message string `json:",omitempty"`
}
