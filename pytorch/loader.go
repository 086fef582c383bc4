package pytorch

import (
	"github.com/skyhookml/netviz/netviz"

	"fmt"
	"path/filepath"
)

const BridgeScript = "torch_bridge.py"

// Loader deserializes PyTorch files inside a torch_bridge.py process.
// Each loaded Network owns its process until it is closed.
type Loader struct {
	Python    string
	ScriptDir string
}

func (l Loader) LoadImperative(path string) (interface{}, error) {
	cmd, err := netviz.Command(
		"torch-bridge", netviz.CommandOptions{},
		l.Python, filepath.Join(l.ScriptDir, BridgeScript),
	)
	if err != nil {
		return nil, err
	}
	c := &conn{
		w: cmd.Stdin(),
		r: cmd.Stdout(),
		// closing stdin tells the bridge to exit
		close: func() error { return bridgeExit(cmd.Wait()) },
		// used when the stream is broken and the bridge may never read its stdin
		abort: func() error { return bridgeExit(cmd.Kill()) },
	}
	return openModel(c, path)
}

func bridgeExit(err error) error {
	if cmdErr, ok := err.(netviz.CmdError); ok {
		return fmt.Errorf("bridge exited: %s", cmdErr.LastLine())
	}
	return err
}
