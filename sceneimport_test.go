package sceneimport

import (
	"context"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"fbx binary", "Kaydara FBX Binary  \x00\x1a\x00xxxxxxxx", FormatFBXBinary},
		{"glb", "glTF\x02\x00\x00\x00\x0c\x00\x00\x00", FormatGLB},
		{"gltf json", `{"asset":{"version":"2.0"}}`, FormatGLTF},
		{"gltf json with leading whitespace", "\n\t {\"asset\":{}}", FormatGLTF},
		{"fbx ascii comment", "; FBX 7.4.0 project file\nFBXHeaderExtension: {\n}", FormatFBXASCII},
		{"fbx ascii no comment", "FBXHeaderExtension: {\n\tFBXVersion: 7400\n}", FormatFBXASCII},
		{"garbage", "\x89PNG\r\n\x1a\n", FormatUnknown},
		{"empty", "", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect([]byte(tt.data)); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDispatchesGLTF(t *testing.T) {
	data := []byte(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0]}],
		"nodes": [{"name": "root", "children": [1]}, {"name": "child"}]
	}`)

	s, err := Load(context.Background(), data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(s.Nodes))
	}
	if s.Nodes[0].Name != "root" || s.Nodes[1].Name != "child" {
		t.Errorf("names = %q, %q", s.Nodes[0].Name, s.Nodes[1].Name)
	}
	if len(s.Roots) != 1 || s.Roots[0] != 0 {
		t.Errorf("roots = %v", s.Roots)
	}
	if s.Nodes[1].Parent != 0 {
		t.Errorf("child parent = %d", s.Nodes[1].Parent)
	}
}

func TestLoadRejectsUnknown(t *testing.T) {
	if _, err := Load(context.Background(), []byte("not an asset"), Options{}); err == nil {
		t.Error("unknown format should fail")
	}
}
