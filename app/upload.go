package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// HandleUpload copies the multipart "file" field to a temporary file carrying
// the original extension, and passes it to f along with the client's filename.
// The temporary file is removed once f returns. Errors materializing the
// upload are answered with status 400; otherwise f writes the response.
func HandleUpload(w http.ResponseWriter, r *http.Request, f func(fname string, origName string)) {
	if Config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, Config.MaxUploadBytes)
	}
	err := func() error {
		file, fh, err := r.FormFile("file")
		if err != nil {
			return fmt.Errorf("error processing upload: %v", err)
		}
		defer file.Close()
		// write file to a temporary file on disk with same extension
		ext := filepath.Ext(fh.Filename)
		tmpfile, err := os.CreateTemp("", fmt.Sprintf("netviz-*%s", ext))
		if err != nil {
			return fmt.Errorf("error processing upload: %v", err)
		}
		defer os.Remove(tmpfile.Name())
		if _, err := io.Copy(tmpfile, file); err != nil {
			tmpfile.Close()
			return fmt.Errorf("error processing upload: %v", err)
		}
		if err := tmpfile.Close(); err != nil {
			return fmt.Errorf("error processing upload: %v", err)
		}
		f(tmpfile.Name(), filepath.Base(fh.Filename))
		return nil
	}()
	if err != nil {
		klog.Warningf("[upload %s] error: %v", r.URL.Path, err)
		errorResponse(w, http.StatusBadRequest, err)
	}
}
