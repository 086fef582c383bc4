package app

import (
	"github.com/skyhookml/netviz/netviz"

	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func serveAsset(w http.ResponseWriter, r *http.Request, asset *DBAsset) {
	w.Header().Set("Content-Type", netviz.GLBMimeType)
	http.ServeFile(w, r, asset.Fname())
}

func init() {
	Router.HandleFunc("/assets", func(w http.ResponseWriter, r *http.Request) {
		netviz.JsonResponse(w, ListAssets())
	}).Methods("GET")

	Router.HandleFunc("/assets", func(w http.ResponseWriter, r *http.Request) {
		HandleUpload(w, r, func(fname string, origName string) {
			asset, err := NewAsset(fname, origName)
			if err != nil {
				klog.Warningf("[assets] rejecting %s: %v", origName, err)
				status := http.StatusInternalServerError
				var invalid InvalidAssetError
				if errors.As(err, &invalid) {
					status = http.StatusBadRequest
				}
				errorResponse(w, status, err)
				return
			}
			klog.Infof(
				"[assets] stored %s as %s (%s, %d meshes, %d textures)",
				origName, asset.ID, humanize.Bytes(uint64(asset.Size)), asset.Info.Meshes, len(asset.Info.Textures),
			)
			broadcast("asset", asset)
			netviz.JsonResponse(w, asset)
		})
	}).Methods("POST")

	Router.HandleFunc("/assets/latest", func(w http.ResponseWriter, r *http.Request) {
		asset := GetLatestAsset()
		if asset == nil {
			errorResponse(w, http.StatusNotFound, errors.New("no GLB files have been uploaded"))
			return
		}
		serveAsset(w, r, asset)
	}).Methods("GET")

	Router.HandleFunc("/assets/{id}", func(w http.ResponseWriter, r *http.Request) {
		asset := GetAsset(mux.Vars(r)["id"])
		if asset == nil {
			errorResponse(w, http.StatusNotFound, errors.New("no such asset"))
			return
		}
		serveAsset(w, r, asset)
	}).Methods("GET")
}
