package app

import (
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// InitDB opens the catalog database, creating the schema if needed, and makes
// sure the content directory exists.
func InitDB(fname string) error {
	sdb, err := OpenDatabase(fname)
	if err != nil {
		return errors.Wrapf(err, "opening database %s", fname)
	}
	if db != nil {
		db.Close()
	}
	db = sdb

	db.Exec(`CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		filename TEXT,
		size INTEGER,
		-- unix nanoseconds
		modified INTEGER,
		-- JSON-encoded GLBInfo
		info TEXT DEFAULT '{}'
	)`)

	if err := os.MkdirAll(Config.ContentDir, 0755); err != nil {
		return errors.Wrapf(err, "creating content directory %s", Config.ContentDir)
	}

	// drop catalog rows whose file was removed behind our back
	for _, asset := range ListAssets() {
		if _, err := os.Stat(asset.Fname()); os.IsNotExist(err) {
			klog.Warningf("[db] asset %s (%s) is missing on disk, removing it", asset.ID, asset.Filename)
			asset.Delete()
		}
	}
	return nil
}
