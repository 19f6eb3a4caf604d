package gltf

import (
	"encoding/json"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
)

// Plugin is the base of the closed set of extension roles. A plugin
// implements one or more of the capability interfaces below; dispatch
// walks the registered plugins in order and the first non-nil result
// wins, falling through to the built-in implementation. A plugin
// returning an error counts as declined, never as a fatal parse error.
type Plugin interface {
	Name() string
}

// MeshLoader replaces mesh resolution, e.g. for Draco-compressed
// primitives. Returning (nil, nil) declines.
type MeshLoader interface {
	Plugin
	LoadMesh(pc *ParseContext, index int, mesh *Mesh) (*scene.Geometry, error)
}

// TextureLoader replaces texture resolution, e.g. for KTX2/Basis
// sources. Returning (nil, nil) declines.
type TextureLoader interface {
	Plugin
	LoadTexture(pc *ParseContext, index int, texture *DocTexture) (*scene.Texture, error)
}

// NodeLoader augments node construction for node-level extensions.
// Returning (nil, nil) declines.
type NodeLoader interface {
	Plugin
	LoadNode(pc *ParseContext, index int, node *DocNode) (*scene.Node, error)
}

// MaterialExtender handles a named material extension the built-in
// passes do not cover. Returning handled=false declines and the
// extension stays on the material as opaque raw JSON.
type MaterialExtender interface {
	Plugin
	ExtendMaterial(pc *ParseContext, name string, raw json.RawMessage, mat *scene.Material) (handled bool, err error)
}

// AnimationLoader replaces whole-animation resolution. Returning
// (nil, nil) declines.
type AnimationLoader interface {
	Plugin
	LoadAnimation(pc *ParseContext, index int, animation *Animation) (*scene.Clip, error)
}

func (pc *ParseContext) pluginMesh(index int, mesh *Mesh) *scene.Geometry {
	for _, p := range pc.imp.Plugins {
		loader, ok := p.(MeshLoader)
		if !ok {
			continue
		}
		geo, err := loader.LoadMesh(pc, index, mesh)
		if err != nil {
			pc.warnf("plugin %s declined mesh %d: %v", p.Name(), index, err)
			continue
		}
		if geo != nil {
			return geo
		}
	}
	return nil
}

func (pc *ParseContext) pluginTexture(index int, texture *DocTexture) *scene.Texture {
	for _, p := range pc.imp.Plugins {
		loader, ok := p.(TextureLoader)
		if !ok {
			continue
		}
		tex, err := loader.LoadTexture(pc, index, texture)
		if err != nil {
			pc.warnf("plugin %s declined texture %d: %v", p.Name(), index, err)
			continue
		}
		if tex != nil {
			return tex
		}
	}
	return nil
}

func (pc *ParseContext) pluginNode(index int, node *DocNode) *scene.Node {
	for _, p := range pc.imp.Plugins {
		loader, ok := p.(NodeLoader)
		if !ok {
			continue
		}
		n, err := loader.LoadNode(pc, index, node)
		if err != nil {
			pc.warnf("plugin %s declined node %d: %v", p.Name(), index, err)
			continue
		}
		if n != nil {
			return n
		}
	}
	return nil
}

func (pc *ParseContext) pluginMaterialExtension(name string, raw json.RawMessage, mat *scene.Material) bool {
	for _, p := range pc.imp.Plugins {
		extender, ok := p.(MaterialExtender)
		if !ok {
			continue
		}
		handled, err := extender.ExtendMaterial(pc, name, raw, mat)
		if err != nil {
			pc.warnf("plugin %s declined material extension %s: %v", p.Name(), name, err)
			continue
		}
		if handled {
			return true
		}
	}
	return false
}

func (pc *ParseContext) pluginAnimation(index int, animation *Animation) *scene.Clip {
	for _, p := range pc.imp.Plugins {
		loader, ok := p.(AnimationLoader)
		if !ok {
			continue
		}
		clip, err := loader.LoadAnimation(pc, index, animation)
		if err != nil {
			pc.warnf("plugin %s declined animation %d: %v", p.Name(), index, err)
			continue
		}
		if clip != nil {
			return clip
		}
	}
	return nil
}

// Decoder finds a registered payload decoder for the named codec, for
// plugins resolving compressed payloads.
func (pc *ParseContext) Decoder(codec string) (importer.PayloadDecoder, bool) {
	for _, d := range pc.imp.Decoders {
		if d.Decodes(codec) {
			return d, true
		}
	}
	return nil, false
}
