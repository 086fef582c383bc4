package app

import (
	"github.com/skyhookml/netviz/netviz"

	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type DBAsset struct{ netviz.Asset }

// Returned by NewAsset when the upload is not a usable GLB file.
type InvalidAssetError struct{ error }

const AssetQuery = "SELECT id, filename, size, modified, info FROM assets"

func assetListHelper(rows *Rows) []*DBAsset {
	assets := []*DBAsset{}
	for rows.Next() {
		var asset DBAsset
		var modified int64
		var infoRaw string
		rows.Scan(&asset.ID, &asset.Filename, &asset.Size, &modified, &infoRaw)
		asset.Modified = time.Unix(0, modified)
		if err := json.Unmarshal([]byte(infoRaw), &asset.Info); err != nil {
			klog.Warningf("[assets] bad info for asset %s: %v", asset.ID, err)
		}
		assets = append(assets, &asset)
	}
	return assets
}

// ListAssets returns the catalog, most recently modified first.
func ListAssets() []*DBAsset {
	rows := db.Query(AssetQuery + " ORDER BY modified DESC, id")
	return assetListHelper(rows)
}

func GetAsset(id string) *DBAsset {
	rows := db.Query(AssetQuery+" WHERE id = ?", id)
	assets := assetListHelper(rows)
	if len(assets) == 1 {
		return assets[0]
	} else {
		return nil
	}
}

func GetLatestAsset() *DBAsset {
	rows := db.Query(AssetQuery + " ORDER BY modified DESC, id LIMIT 1")
	assets := assetListHelper(rows)
	if len(assets) == 1 {
		return assets[0]
	} else {
		return nil
	}
}

// NewAsset validates the GLB at fname, moves it into the content directory and
// records it in the catalog.
func NewAsset(fname string, origName string) (*DBAsset, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	info, err := netviz.ParseGLB(data)
	if err != nil {
		return nil, InvalidAssetError{errors.Wrapf(err, "invalid GLB %s", origName)}
	}

	asset := &DBAsset{netviz.Asset{
		ID:       uuid.New().String(),
		Filename: origName,
		Size:     int64(len(data)),
		Modified: time.Now(),
		Info:     info,
	}}
	if err := os.WriteFile(asset.Fname(), data, 0644); err != nil {
		return nil, errors.Wrap(err, "storing asset")
	}
	db.Exec(
		"INSERT INTO assets (id, filename, size, modified, info) VALUES (?, ?, ?, ?, ?)",
		asset.ID, asset.Filename, asset.Size, asset.Modified.UnixNano(), string(netviz.JsonMarshal(asset.Info)),
	)
	return asset, nil
}

func (asset *DBAsset) Fname() string {
	return filepath.Join(Config.ContentDir, fmt.Sprintf("%s.glb", asset.ID))
}

func (asset *DBAsset) Delete() {
	db.Exec("DELETE FROM assets WHERE id = ?", asset.ID)
	os.Remove(asset.Fname())
}
