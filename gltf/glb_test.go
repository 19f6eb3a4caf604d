package gltf

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildGLB(version uint32, chunks ...[2]interface{}) []byte {
	var body bytes.Buffer
	for _, c := range chunks {
		data := c[1].([]byte)
		binary.Write(&body, binary.LittleEndian, uint32(len(data)))
		binary.Write(&body, binary.LittleEndian, c[0].(uint32))
		body.Write(data)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(glbMagic))
	binary.Write(&out, binary.LittleEndian, version)
	binary.Write(&out, binary.LittleEndian, uint32(12+body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestParseGLB(t *testing.T) {
	jsonChunk := []byte(`{"asset":{"version":"2.0"}}`)
	binChunk := []byte{1, 2, 3, 4}
	data := buildGLB(2,
		[2]interface{}{uint32(glbChunkJSON), jsonChunk},
		[2]interface{}{uint32(glbChunkBIN), binChunk},
	)

	if !IsGLB(data) {
		t.Fatal("magic not recognized")
	}
	j, b, err := ParseGLB(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(j, jsonChunk) || !bytes.Equal(b, binChunk) {
		t.Errorf("chunks = %q / %v", j, b)
	}
}

func TestParseGLBSkipsUnknownChunks(t *testing.T) {
	jsonChunk := []byte(`{}`)
	data := buildGLB(2,
		[2]interface{}{uint32(0x12345678), []byte("vendor stuff")},
		[2]interface{}{uint32(glbChunkJSON), jsonChunk},
	)

	j, b, err := ParseGLB(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(j, jsonChunk) || b != nil {
		t.Errorf("chunks = %q / %v", j, b)
	}
}

func TestParseGLBErrors(t *testing.T) {
	if _, _, err := ParseGLB(buildGLB(1, [2]interface{}{uint32(glbChunkJSON), []byte("{}")})); err == nil {
		t.Error("container version 1 should be rejected")
	}
	if _, _, err := ParseGLB(buildGLB(2, [2]interface{}{uint32(glbChunkBIN), []byte{0}})); err == nil {
		t.Error("container without JSON chunk should be rejected")
	}

	truncated := buildGLB(2, [2]interface{}{uint32(glbChunkJSON), []byte("{}")})
	truncated[8] = 200 // declared total past the buffer
	if _, _, err := ParseGLB(truncated); err == nil {
		t.Error("declared length past buffer should be rejected")
	}
}
