package gltf

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/sceneimport/importer"
)

// Document is the deserialized glTF 2.0 JSON, the read-only source of
// truth for a whole parse. Extensions everywhere stay raw JSON so
// unknown ones survive as opaque passthrough data.
type Document struct {
	Asset Asset `json:"asset"`

	Scene  *int    `json:"scene,omitempty"`
	Scenes []Scene `json:"scenes,omitempty"`

	Nodes       []DocNode     `json:"nodes,omitempty"`
	Meshes      []Mesh        `json:"meshes,omitempty"`
	Accessors   []Accessor    `json:"accessors,omitempty"`
	BufferViews []BufferView  `json:"bufferViews,omitempty"`
	Buffers     []Buffer      `json:"buffers,omitempty"`
	Materials   []DocMaterial `json:"materials,omitempty"`
	Textures    []DocTexture  `json:"textures,omitempty"`
	Images      []Image       `json:"images,omitempty"`
	Samplers    []Sampler     `json:"samplers,omitempty"`
	Skins       []DocSkin     `json:"skins,omitempty"`
	Animations  []Animation   `json:"animations,omitempty"`
	Cameras     []DocCamera   `json:"cameras,omitempty"`

	ExtensionsUsed     []string                   `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string                   `json:"extensionsRequired,omitempty"`
	Extensions         map[string]json.RawMessage `json:"extensions,omitempty"`
}

type Asset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
}

type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

type DocNode struct {
	Name string `json:"name,omitempty"`

	Children []int `json:"children,omitempty"`

	// Either a full matrix or decomposed TRS, never both.
	Matrix      []float64 `json:"matrix,omitempty"`
	Translation []float64 `json:"translation,omitempty"`
	Rotation    []float64 `json:"rotation,omitempty"` // xyzw
	Scale       []float64 `json:"scale,omitempty"`

	Mesh    *int      `json:"mesh,omitempty"`
	Skin    *int      `json:"skin,omitempty"`
	Camera  *int      `json:"camera,omitempty"`
	Weights []float64 `json:"weights,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Primitives []Primitive `json:"primitives"`
	Weights    []float64   `json:"weights,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

type Primitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

type Accessor struct {
	BufferView    *int    `json:"bufferView,omitempty"`
	ByteOffset    int     `json:"byteOffset,omitempty"`
	ComponentType int     `json:"componentType"`
	Normalized    bool    `json:"normalized,omitempty"`
	Count         int     `json:"count"`
	Type          string  `json:"type"`
	Sparse        *Sparse `json:"sparse,omitempty"`
	Name          string  `json:"name,omitempty"`
}

type Sparse struct {
	Count   int           `json:"count"`
	Indices SparseIndices `json:"indices"`
	Values  SparseValues  `json:"values"`
}

type SparseIndices struct {
	BufferView    int `json:"bufferView"`
	ByteOffset    int `json:"byteOffset,omitempty"`
	ComponentType int `json:"componentType"`
}

type SparseValues struct {
	BufferView int `json:"bufferView"`
	ByteOffset int `json:"byteOffset,omitempty"`
}

type BufferView struct {
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	ByteStride *int   `json:"byteStride,omitempty"`
	Target     int    `json:"target,omitempty"`
	Name       string `json:"name,omitempty"`
}

type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

type DocMaterial struct {
	Name string `json:"name,omitempty"`

	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *NormalTextureInfo    `json:"normalTexture,omitempty"`
	OcclusionTexture     *OcclusionTextureInfo `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *TextureInfo          `json:"emissiveTexture,omitempty"`
	EmissiveFactor       []float64             `json:"emissiveFactor,omitempty"`

	AlphaMode   string   `json:"alphaMode,omitempty"`
	AlphaCutoff *float64 `json:"alphaCutoff,omitempty"`
	DoubleSided bool     `json:"doubleSided,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

type PBRMetallicRoughness struct {
	BaseColorFactor          []float64    `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float64     `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float64     `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *TextureInfo `json:"metallicRoughnessTexture,omitempty"`
}

type TextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

type NormalTextureInfo struct {
	Index    int      `json:"index"`
	TexCoord int      `json:"texCoord,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
}

type OcclusionTextureInfo struct {
	Index    int      `json:"index"`
	TexCoord int      `json:"texCoord,omitempty"`
	Strength *float64 `json:"strength,omitempty"`
}

type DocTexture struct {
	Name    string `json:"name,omitempty"`
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

type Image struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type Sampler struct {
	MagFilter int `json:"magFilter,omitempty"`
	MinFilter int `json:"minFilter,omitempty"`
	WrapS     int `json:"wrapS,omitempty"`
	WrapT     int `json:"wrapT,omitempty"`
}

type DocSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

type Animation struct {
	Name     string             `json:"name,omitempty"`
	Channels []AnimationChannel `json:"channels"`
	Samplers []AnimationSampler `json:"samplers"`
}

type AnimationChannel struct {
	Sampler int             `json:"sampler"`
	Target  AnimationTarget `json:"target"`
}

type AnimationTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

type AnimationSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

type DocCamera struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`

	Perspective  *CameraPerspective  `json:"perspective,omitempty"`
	Orthographic *CameraOrthographic `json:"orthographic,omitempty"`
}

type CameraPerspective struct {
	YFov        float64  `json:"yfov"`
	AspectRatio *float64 `json:"aspectRatio,omitempty"`
	ZNear       float64  `json:"znear"`
	ZFar        *float64 `json:"zfar,omitempty"`
}

type CameraOrthographic struct {
	XMag  float64 `json:"xmag"`
	YMag  float64 `json:"ymag"`
	ZNear float64 `json:"znear"`
	ZFar  float64 `json:"zfar"`
}

// KHR_lights_punctual document-level extension payload.
type lightsPunctualExt struct {
	Lights []PunctualLight `json:"lights"`
}

type PunctualLight struct {
	Name      string    `json:"name,omitempty"`
	Type      string    `json:"type"`
	Color     []float64 `json:"color,omitempty"`
	Intensity *float64  `json:"intensity,omitempty"`
	Range     *float64  `json:"range,omitempty"`
	Spot      *struct {
		InnerConeAngle *float64 `json:"innerConeAngle,omitempty"`
		OuterConeAngle *float64 `json:"outerConeAngle,omitempty"`
	} `json:"spot,omitempty"`
}

// ParseDocument deserializes the JSON chunk and checks the asset
// version. Only major version 2 is supported.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal gltf json")
	}
	if doc.Asset.Version == "" {
		return nil, importer.Formatf("gltf", "missing asset.version")
	}
	if major := strings.SplitN(doc.Asset.Version, ".", 2)[0]; major != "2" {
		return nil, importer.Formatf("gltf", "unsupported version %q", doc.Asset.Version)
	}
	return &doc, nil
}
