package netviz

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rubenfonseca/fastimage"
	"golang.org/x/image/webp"
)

const (
	glbMagic     uint32 = 0x46546C67 // "glTF"
	glbVersion   uint32 = 2
	glbChunkJSON uint32 = 0x4E4F534A
	glbChunkBIN  uint32 = 0x004E4942
	glbHeaderLen        = 12
)

// Texture embedded in the BIN chunk of a GLB file.
type GLBTexture struct {
	MimeType string `json:"mime_type"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Metadata extracted from a GLB asset.
type GLBInfo struct {
	Version   int          `json:"version"`
	Generator string       `json:"generator,omitempty"`
	Meshes    int          `json:"meshes"`
	Nodes     int          `json:"nodes"`
	Images    int          `json:"images"`
	Textures  []GLBTexture `json:"textures,omitempty"`
}

type gltfDocument struct {
	Asset struct {
		Version   string `json:"version"`
		Generator string `json:"generator"`
	} `json:"asset"`
	Meshes      []json.RawMessage `json:"meshes"`
	Nodes       []json.RawMessage `json:"nodes"`
	Images      []struct {
		BufferView *int   `json:"bufferView"`
		MimeType   string `json:"mimeType"`
		URI        string `json:"uri"`
	} `json:"images"`
	BufferViews []struct {
		Buffer     int `json:"buffer"`
		ByteOffset int `json:"byteOffset"`
		ByteLength int `json:"byteLength"`
	} `json:"bufferViews"`
}

// ParseGLB validates the binary glTF container and summarizes its contents.
func ParseGLB(data []byte) (GLBInfo, error) {
	var info GLBInfo
	if len(data) < glbHeaderLen {
		return info, fmt.Errorf("file too short for a GLB header")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return info, fmt.Errorf("missing glTF magic")
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != glbVersion {
		return info, fmt.Errorf("unsupported GLB version %d", version)
	}
	length := binary.LittleEndian.Uint32(data[8:12])
	if int(length) != len(data) {
		return info, fmt.Errorf("GLB header declares %d bytes but file has %d", length, len(data))
	}
	info.Version = int(version)

	var jsonChunk, binChunk []byte
	offset := glbHeaderLen
	for offset+8 <= len(data) {
		chunkLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		start := offset + 8
		if chunkLen < 0 || start+chunkLen > len(data) {
			return info, fmt.Errorf("chunk at offset %d overruns file", offset)
		}
		switch chunkType {
		case glbChunkJSON:
			if jsonChunk == nil {
				jsonChunk = data[start : start+chunkLen]
			}
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = data[start : start+chunkLen]
			}
		}
		offset = start + chunkLen
	}
	if jsonChunk == nil {
		return info, fmt.Errorf("GLB has no JSON chunk")
	}

	var doc gltfDocument
	if err := json.Unmarshal(bytes.TrimRight(jsonChunk, " \x00"), &doc); err != nil {
		return info, errors.Wrap(err, "decoding GLB JSON chunk")
	}
	info.Generator = doc.Asset.Generator
	info.Meshes = len(doc.Meshes)
	info.Nodes = len(doc.Nodes)
	info.Images = len(doc.Images)

	for _, img := range doc.Images {
		if img.BufferView == nil || binChunk == nil {
			continue
		}
		idx := *img.BufferView
		if idx < 0 || idx >= len(doc.BufferViews) {
			return info, fmt.Errorf("image refers to missing bufferView %d", idx)
		}
		view := doc.BufferViews[idx]
		if view.Buffer != 0 {
			continue
		}
		if view.ByteOffset < 0 || view.ByteLength < 0 ||
			view.ByteOffset > len(binChunk) || view.ByteLength > len(binChunk)-view.ByteOffset {
			return info, fmt.Errorf("bufferView %d (offset %d, length %d) is outside the %d byte BIN chunk", idx, view.ByteOffset, view.ByteLength, len(binChunk))
		}
		raw := binChunk[view.ByteOffset : view.ByteOffset+view.ByteLength]
		tex := inspectTexture(img.MimeType, bytes.NewReader(raw))
		info.Textures = append(info.Textures, tex)
	}
	return info, nil
}

func inspectTexture(mimeType string, r io.Reader) GLBTexture {
	tex := GLBTexture{MimeType: mimeType, Format: "unknown"}
	if mimeType == "image/webp" {
		cfg, err := webp.DecodeConfig(r)
		if err == nil {
			tex.Format = "webp"
			tex.Width, tex.Height = cfg.Width, cfg.Height
		}
		return tex
	}
	imageType, size, err := fastimage.DetectImageTypeFromReader(r)
	if err != nil || size == nil {
		return tex
	}
	switch imageType {
	case fastimage.PNG:
		tex.Format = "png"
	case fastimage.JPEG:
		tex.Format = "jpeg"
	case fastimage.GIF:
		tex.Format = "gif"
	case fastimage.BMP:
		tex.Format = "bmp"
	case fastimage.TIFF:
		tex.Format = "tiff"
	}
	tex.Width, tex.Height = int(size.Width), int(size.Height)
	return tex
}
