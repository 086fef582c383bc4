package netviz

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func JsonMarshal(x interface{}) []byte {
	bytes, err := json.Marshal(x)
	if err != nil {
		panic(err)
	}
	return bytes
}

func JsonResponse(w http.ResponseWriter, x interface{}) {
	JsonResponseStatus(w, http.StatusOK, x)
}

func JsonResponseStatus(w http.ResponseWriter, status int, x interface{}) {
	bytes := JsonMarshal(x)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bytes)
}

// Length-prefixed JSON packets, used to talk to python helper processes.
func WriteJsonData(x interface{}, w io.Writer) error {
	bytes := JsonMarshal(x)
	blen := make([]byte, 4)
	binary.BigEndian.PutUint32(blen, uint32(len(bytes)))
	if _, err := w.Write(blen); err != nil {
		return err
	}
	_, err := w.Write(bytes)
	return err
}

func ReadJsonData(r io.Reader, x interface{}) error {
	blen := make([]byte, 4)
	if _, err := io.ReadFull(r, blen); err != nil {
		return err
	}
	bytes := make([]byte, binary.BigEndian.Uint32(blen))
	if _, err := io.ReadFull(r, bytes); err != nil {
		return err
	}
	return json.Unmarshal(bytes, x)
}

// Like filepath.Ext but doesn't include the ".", and is lowercase.
func Ext(fname string) string {
	ext := filepath.Ext(fname)
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	return strings.ToLower(ext)
}

func FileExists(fname string) bool {
	_, err := os.Stat(fname)
	return err == nil
}

// Cmd wraps a helper subprocess whose stderr is forwarded to the log.
type Cmd struct {
	prefix string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	// if not nil, means printStderr will send last line(s) it got before exiting
	stderrCh chan []string
	closed   bool
}

func (cmd *Cmd) Stdin() io.WriteCloser {
	return cmd.stdin
}

func (cmd *Cmd) Stdout() io.ReadCloser {
	return cmd.stdout
}

type CmdError struct {
	ExitError error
	Lines     []string
}

func (e CmdError) Error() string {
	var linesPart string
	if len(e.Lines) > 0 {
		linesPart = fmt.Sprintf(" (%s)", e.Lines[len(e.Lines)-1])
	}
	return fmt.Sprintf("exit error: %v", e.ExitError) + linesPart
}

// LastLine returns the last stderr line, which for python helpers is normally
// the exception message.
func (e CmdError) LastLine() string {
	if len(e.Lines) == 0 {
		return e.ExitError.Error()
	}
	return e.Lines[len(e.Lines)-1]
}

func (cmd *Cmd) Wait() error {
	if cmd.closed {
		return fmt.Errorf("[%s] closed twice", cmd.prefix)
	}
	cmd.closed = true
	if cmd.stdin != nil {
		cmd.stdin.Close()
	}
	var lastLines []string
	if cmd.stderrCh != nil {
		lastLines = <-cmd.stderrCh
	}
	err := cmd.cmd.Wait()
	if err != nil {
		myerr := CmdError{
			ExitError: err,
			Lines:     lastLines,
		}
		klog.Warningf("[%s] %v", cmd.prefix, myerr.Error())
		return myerr
	}
	return nil
}

// Kill terminates the process and reaps it. The returned error is the same
// as Wait's, so the last stderr lines are kept.
func (cmd *Cmd) Kill() error {
	if cmd.closed {
		return nil
	}
	if cmd.cmd.Process != nil {
		cmd.cmd.Process.Kill()
	}
	return cmd.Wait()
}

func (cmd *Cmd) printStderr(opts CommandOptions) {
	rd := bufio.NewReader(cmd.stderr)
	var lastLines []string
	for {
		line, err := rd.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\n")
			lastLines = []string{line}
			if !opts.OnlyDebug || klog.V(2).Enabled() {
				klog.Infof("[%s] %s", cmd.prefix, line)
			}
		}
		if err != nil {
			break
		}
	}
	cmd.stderrCh <- lastLines
}

type CommandOptions struct {
	NoStdin bool
	// Whether to only print stderr if verbose logging is on.
	OnlyDebug bool
}

func Command(prefix string, opts CommandOptions, command string, args ...string) (*Cmd, error) {
	klog.V(1).Infof("[%s] %s %v", prefix, command, args)
	cmd := exec.Command(command, args...)
	mycmd := &Cmd{
		prefix: prefix,
		cmd:    cmd,
	}
	var err error
	if !opts.NoStdin {
		mycmd.stdin, err = cmd.StdinPipe()
		if err != nil {
			return nil, errors.Wrapf(err, "[%s] stdin pipe", prefix)
		}
	}
	mycmd.stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "[%s] stdout pipe", prefix)
	}
	mycmd.stderr, err = cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "[%s] stderr pipe", prefix)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "[%s] starting %s", prefix, command)
	}
	mycmd.stderrCh = make(chan []string, 1)
	go mycmd.printStderr(opts)
	return mycmd, nil
}
