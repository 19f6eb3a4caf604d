package gltf

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/sceneimport/importer"
)

// buffer resolves buffer bytes: the GLB BIN chunk for buffer 0 without
// a uri, an inline data uri, or the Fetcher.
func (pc *ParseContext) buffer(i int) ([]byte, error) {
	v, err := pc.cache.resolve(pc.ctx, key("buffer", i), func() (interface{}, error) {
		if i < 0 || i >= len(pc.doc.Buffers) {
			return nil, importer.Structuralf(key("buffer", i), "index out of range (%d defined)", len(pc.doc.Buffers))
		}
		buf := &pc.doc.Buffers[i]

		var raw []byte
		switch {
		case buf.URI == "":
			if i != 0 || pc.bin == nil {
				return nil, importer.Structuralf(key("buffer", i), "no uri and no binary chunk")
			}
			raw = pc.bin
		case strings.HasPrefix(buf.URI, "data:"):
			var err error
			if raw, err = decodeDataURI(buf.URI); err != nil {
				return nil, importer.Structuralf(key("buffer", i), "bad data uri: %v", err)
			}
		default:
			if pc.imp.Fetcher == nil {
				return nil, importer.Structuralf(key("buffer", i), "external uri %q but no fetcher", buf.URI)
			}
			var err error
			if raw, err = pc.imp.Fetcher.Fetch(pc.ctx, buf.URI); err != nil {
				return nil, errors.Wrapf(err, "Failed to fetch buffer %q", buf.URI)
			}
		}

		if len(raw) < buf.ByteLength {
			return nil, importer.Structuralf(key("buffer", i), "declared %d bytes, got %d", buf.ByteLength, len(raw))
		}
		return raw[:buf.ByteLength], nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// bufferView resolves a view to its byte slice within the parent
// buffer, bounds-checked.
func (pc *ParseContext) bufferView(i int) ([]byte, error) {
	v, err := pc.cache.resolve(pc.ctx, key("bufferview", i), func() (interface{}, error) {
		if i < 0 || i >= len(pc.doc.BufferViews) {
			return nil, importer.Structuralf(key("bufferview", i), "index out of range (%d defined)", len(pc.doc.BufferViews))
		}
		view := &pc.doc.BufferViews[i]

		raw, err := pc.buffer(view.Buffer)
		if err != nil {
			return nil, err
		}
		if view.ByteOffset+view.ByteLength > len(raw) {
			return nil, importer.Structuralf(key("bufferview", i),
				"range [%d:%d] exceeds buffer size %d", view.ByteOffset, view.ByteOffset+view.ByteLength, len(raw))
		}
		return raw[view.ByteOffset : view.ByteOffset+view.ByteLength], nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errors.Errorf("data uri has no payload")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	return []byte(payload), nil
}
