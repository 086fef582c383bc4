// netviz-summarize prints the layer summary of a Keras or PyTorch model file,
// the same summary the netviz server returns.
package main

import (
	"github.com/skyhookml/netviz/keras"
	"github.com/skyhookml/netviz/netviz"
	"github.com/skyhookml/netviz/pytorch"
	"github.com/skyhookml/netviz/summary"

	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagFramework = flag.String("framework", "", "keras or pytorch; guessed from the file extension if empty")
	flagPython    = flag.String("python", "python3", "python interpreter with tensorflow and torch installed")
	flagScripts   = flag.String("scripts", "./python", "directory containing the python helper scripts")
	flagHeight    = flag.Int("input-height", netviz.DefaultInputSpec.Height, "height of the assumed model input")
	flagWidth     = flag.Int("input-width", netviz.DefaultInputSpec.Width, "width of the assumed model input")
	flagJSON      = flag.Bool("json", false, "print the summary as JSON instead of a table")
)

type summarizer interface {
	Summarize(path string, filename string) (*netviz.ModelSummary, error)
}

// guessFramework maps a model file extension to a framework name.
func guessFramework(fname string) (string, error) {
	switch netviz.Ext(fname) {
	case "h5", "hdf5", "keras", "json":
		return "keras", nil
	case "pt", "pth", "bin":
		return "pytorch", nil
	}
	return "", errors.Errorf("cannot guess framework of %s, use -framework", fname)
}

func newSummarizer(framework string, input netviz.InputSpec) (summarizer, error) {
	switch framework {
	case "keras", "tensorflow":
		return summary.Declarative{
			Loader: keras.Loader{Python: *flagPython, ScriptDir: *flagScripts, Input: input},
			Input:  input,
		}, nil
	case "pytorch", "torch":
		return summary.Imperative{
			Loader: pytorch.Loader{Python: *flagPython, ScriptDir: *flagScripts},
			Input:  input,
		}, nil
	}
	return nil, errors.Errorf("unknown framework %q", framework)
}

func renderSummary(s *netviz.ModelSummary) string {
	title := titleStyle.Render(fmt.Sprintf("%s (%s)", s.ModelName, s.ModelFilename))
	footer := fmt.Sprintf("Total params: %s", humanize.Comma(int64(s.TotalParams)))
	return lipgloss.JoinVertical(lipgloss.Left, title, layerTable(s.Layers).Render(), footer)
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <model file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	defer klog.Flush()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	fname := flag.Arg(0)

	framework := *flagFramework
	if framework == "" {
		var err error
		framework, err = guessFramework(fname)
		if err != nil {
			klog.Exitf("%v", err)
		}
	}
	s, err := newSummarizer(framework, netviz.InputSpec{Height: *flagHeight, Width: *flagWidth})
	if err != nil {
		klog.Exitf("%v", err)
	}
	if fi, err := os.Stat(fname); err != nil {
		klog.Exitf("%v", err)
	} else {
		klog.V(1).Infof("[summarize] %s model %s (%s)", framework, fname, humanize.Bytes(uint64(fi.Size())))
	}

	result, err := s.Summarize(fname, filepath.Base(fname))
	if err != nil {
		klog.Exitf("[%s] %v", netviz.ErrorKind(err), err)
	}
	if *flagJSON {
		fmt.Println(string(netviz.JsonMarshal(result)))
		return
	}
	fmt.Println(renderSummary(result))
}
