package gltf

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// texture resolves texture i: plugin loaders first (KTX2/Basis), then
// the built-in image source (bufferView slice, data uri, or Fetcher).
// Returns (nil, nil) when the source is missing or undecodable, the
// material assembles without the map.
func (pc *ParseContext) texture(i int) (*scene.Texture, error) {
	v, err := pc.cache.resolve(pc.ctx, key("texture", i), func() (interface{}, error) {
		if i < 0 || i >= len(pc.doc.Textures) {
			return nil, importer.Structuralf(key("texture", i), "index out of range (%d defined)", len(pc.doc.Textures))
		}
		texture := &pc.doc.Textures[i]

		if tex := pc.pluginTexture(i, texture); tex != nil {
			return tex, nil
		}

		if texture.Source == nil {
			pc.warnf("texture %d has no source image", i)
			return (*scene.Texture)(nil), nil
		}

		tex := scene.NewTexture(texture.Name)
		raw, uri, err := pc.imageBytes(*texture.Source)
		if err != nil {
			pc.warnf("texture %d image failed: %v", i, err)
			return (*scene.Texture)(nil), nil
		}
		tex.Raw = raw
		tex.URI = uri
		if tex.Name == "" {
			tex.Name = pc.doc.Images[*texture.Source].Name
		}
		tex.MimeType = pc.doc.Images[*texture.Source].MimeType

		if pc.imp.Settings.DecodeImages {
			img, format, err := utils.DecodeImage(raw, uri)
			if err != nil {
				pc.warnf("texture %d decode failed: %v", i, err)
			} else {
				tex.Image = img
				if tex.MimeType == "" {
					tex.MimeType = utils.MimeForFormat(format)
				}
			}
		}

		pc.applySampler(tex, texture.Sampler)
		return tex, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*scene.Texture), nil
}

func (pc *ParseContext) imageBytes(i int) ([]byte, string, error) {
	if i < 0 || i >= len(pc.doc.Images) {
		return nil, "", importer.Structuralf(key("image", i), "index out of range (%d defined)", len(pc.doc.Images))
	}
	img := &pc.doc.Images[i]

	switch {
	case img.BufferView != nil:
		raw, err := pc.bufferView(*img.BufferView)
		return raw, "", err
	case strings.HasPrefix(img.URI, "data:"):
		raw, err := decodeDataURI(img.URI)
		return raw, "", err
	case img.URI != "":
		if pc.imp.Fetcher == nil {
			return nil, img.URI, errors.Errorf("external image %q but no fetcher", img.URI)
		}
		raw, err := pc.imp.Fetcher.Fetch(pc.ctx, img.URI)
		return raw, img.URI, err
	}
	return nil, "", errors.Errorf("image %d has neither uri nor bufferView", i)
}

// applySampler copies wrap/filter state, keeping the scene defaults
// (repeat) when the texture has no sampler.
func (pc *ParseContext) applySampler(tex *scene.Texture, samplerIndex *int) {
	if samplerIndex == nil || *samplerIndex < 0 || *samplerIndex >= len(pc.doc.Samplers) {
		return
	}
	s := &pc.doc.Samplers[*samplerIndex]
	if s.WrapS != 0 {
		tex.WrapS = scene.WrapMode(s.WrapS)
	}
	if s.WrapT != 0 {
		tex.WrapT = scene.WrapMode(s.WrapT)
	}
	tex.MagFilter = int32(s.MagFilter)
	tex.MinFilter = int32(s.MinFilter)
}
