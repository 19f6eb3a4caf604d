package gltf

import (
	"encoding/binary"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/utils"
)

const (
	glbMagic     = 0x46546c67 // "glTF"
	glbChunkJSON = 0x4e4f534a // "JSON"
	glbChunkBIN  = 0x004e4942 // "BIN\0"
)

// IsGLB reports whether the buffer starts with the binary container
// magic. Anything else is treated as a JSON candidate.
func IsGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic
}

// ParseGLB splits a binary container into its JSON and BIN chunks. The
// BIN chunk is optional and returned as a sub-slice, not a copy.
func ParseGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	r := utils.NewReader(data)

	magic, err := r.Uint32()
	if err != nil {
		return nil, nil, err
	}
	if magic != glbMagic {
		return nil, nil, importer.Formatf("glb", "bad magic 0x%08x", magic)
	}
	version, err := r.Uint32()
	if err != nil {
		return nil, nil, err
	}
	if version != 2 {
		return nil, nil, importer.Formatf("glb", "unsupported container version %d", version)
	}
	total, err := r.Uint32()
	if err != nil {
		return nil, nil, err
	}
	if int(total) > len(data) {
		return nil, nil, importer.Structuralf("glb", "declared length %d exceeds buffer size %d", total, len(data))
	}

	for r.Pos() < int(total) {
		chunkLen, err := r.Uint32()
		if err != nil {
			return nil, nil, err
		}
		chunkType, err := r.Uint32()
		if err != nil {
			return nil, nil, err
		}
		chunk, err := r.Bytes(int(chunkLen))
		if err != nil {
			return nil, nil, importer.Structuralf("glb", "chunk 0x%08x truncated: %v", chunkType, err)
		}

		switch chunkType {
		case glbChunkJSON:
			if jsonChunk == nil {
				jsonChunk = chunk
			}
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = chunk
			}
		default:
			// unknown chunks must be skipped per the container spec
		}
	}

	if jsonChunk == nil {
		return nil, nil, importer.Structuralf("glb", "container has no JSON chunk")
	}
	return jsonChunk, binChunk, nil
}
