package app

import (
	"github.com/skyhookml/netviz/keras"
	"github.com/skyhookml/netviz/netviz"
	"github.com/skyhookml/netviz/pytorch"
	"github.com/skyhookml/netviz/summary"

	"net/http"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

// Summarizer turns a model file on disk into a summary. filename is the name
// the client uploaded it under.
type Summarizer interface {
	Summarize(path string, filename string) (*netviz.ModelSummary, error)
}

// Constructors for the two summarizers, replaced in tests.
var newDeclarative = func() Summarizer {
	return summary.Declarative{
		Loader: keras.Loader{
			Python:    Config.Python,
			ScriptDir: Config.ScriptDir,
			Input:     Config.Input,
		},
		Input: Config.Input,
	}
}

var newImperative = func() Summarizer {
	return summary.Imperative{
		Loader: pytorch.Loader{
			Python:    Config.Python,
			ScriptDir: Config.ScriptDir,
		},
		Input: Config.Input,
	}
}

func handleSummarize(label string, newSummarizer func() Summarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		HandleUpload(w, r, func(fname string, origName string) {
			klog.Infof("[%s] summarizing %s", label, origName)
			s, err := newSummarizer().Summarize(fname, origName)
			if err != nil {
				klog.Warningf("[%s] summarizing %s failed: %v", label, origName, err)
				status := http.StatusUnprocessableEntity
				if netviz.ErrorKind(err) == "" {
					status = http.StatusInternalServerError
				}
				errorResponse(w, status, err)
				return
			}
			klog.Infof(
				"[%s] %s: model %s with %d layers, %s params",
				label, origName, s.ModelName, len(s.Layers), humanize.Comma(int64(s.TotalParams)),
			)
			broadcast("summary", s)
			netviz.JsonResponse(w, s)
		})
	}
}

func init() {
	Router.HandleFunc("/tensorflow", handleSummarize("tensorflow", func() Summarizer {
		return newDeclarative()
	})).Methods("POST")
	Router.HandleFunc("/pytorch", handleSummarize("pytorch", func() Summarizer {
		return newImperative()
	})).Methods("POST")
}
