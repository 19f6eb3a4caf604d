// Package sceneimport turns FBX (binary or ASCII) and glTF/GLB asset
// buffers into a resolved in-memory scene graph: node hierarchy,
// meshes, materials, skeletons, morph targets and keyframe animation.
package sceneimport

import (
	"bytes"
	"context"

	"github.com/mogaika/sceneimport/config"
	"github.com/mogaika/sceneimport/fbx"
	"github.com/mogaika/sceneimport/gltf"
	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// Format of a sniffed input buffer.
type Format string

const (
	FormatUnknown   Format = ""
	FormatFBXBinary Format = "fbx-binary"
	FormatFBXASCII  Format = "fbx-ascii"
	FormatGLB       Format = "glb"
	FormatGLTF      Format = "gltf"
)

// Options configure one import. The zero value works for
// self-contained assets.
type Options struct {
	// Fetcher resolves external references (buffer uris, texture
	// files) relative to the asset.
	Fetcher importer.Fetcher
	// Log receives parse traces and degraded-resource warnings.
	Log      *utils.Logger
	Settings *config.Settings

	// Plugins and Decoders extend the glTF importer, see gltf package.
	Plugins  []gltf.Plugin
	Decoders []importer.PayloadDecoder
}

// Detect sniffs the buffer's format by magic. FBX ASCII has no magic,
// it is recognized by its leading comment or a "FBXHeaderExtension"
// record near the start.
func Detect(data []byte) Format {
	switch {
	case fbx.IsBinary(data):
		return FormatFBXBinary
	case gltf.IsGLB(data):
		return FormatGLB
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimLeft(head, " \t\r\n")
	switch {
	case len(head) > 0 && head[0] == '{':
		return FormatGLTF
	case bytes.HasPrefix(head, []byte(";")) || bytes.Contains(head, []byte("FBXHeaderExtension")):
		return FormatFBXASCII
	}
	return FormatUnknown
}

// Load sniffs the format and dispatches to the matching importer.
func Load(ctx context.Context, data []byte, opts Options) (*scene.Scene, error) {
	settings := config.DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}

	switch format := Detect(data); format {
	case FormatFBXBinary, FormatFBXASCII:
		imp := fbx.NewImporter()
		imp.Fetcher = opts.Fetcher
		imp.Log = opts.Log
		imp.Settings = settings
		return imp.Load(ctx, data)
	case FormatGLB, FormatGLTF:
		imp := gltf.NewImporter()
		imp.Fetcher = opts.Fetcher
		imp.Log = opts.Log
		imp.Settings = settings
		imp.Plugins = opts.Plugins
		imp.Decoders = opts.Decoders
		return imp.Load(ctx, data)
	default:
		return nil, importer.Formatf("sceneimport", "unrecognized asset format")
	}
}
