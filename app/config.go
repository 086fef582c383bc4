package app

import (
	"github.com/skyhookml/netviz/netviz"
)

// Global config object, set by cmd/netviz/main.go
var Config = struct {
	// sqlite3 file holding the asset catalog.
	DBPath string
	// Directory where uploaded GLB assets are stored.
	ContentDir string
	// Python interpreter with TensorFlow and PyTorch installed, and the
	// directory containing keras_inspect.py and torch_bridge.py.
	Python    string
	ScriptDir string
	// Assumed model input: models are not asked for their real input signature.
	Input netviz.InputSpec
	// Origins allowed to call the API from a browser.
	AllowedOrigins []string
	// Largest accepted upload, in bytes.
	MaxUploadBytes int64
}{
	DBPath:         "./netviz.sqlite3",
	ContentDir:     "./content",
	Python:         "python3",
	ScriptDir:      "./python",
	Input:          netviz.DefaultInputSpec,
	AllowedOrigins: []string{"http://localhost", "http://localhost:3000"},
	MaxUploadBytes: 512 << 20,
}
