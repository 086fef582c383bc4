package netviz

import (
	"time"
)

// A GLB file uploaded to the asset side channel.
type Asset struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Info     GLBInfo   `json:"info"`
}

const GLBMimeType = "model/gltf-binary"
