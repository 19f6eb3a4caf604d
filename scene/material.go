package scene

import (
	"encoding/json"
	"image"
)

// MaterialType tags which shading model the parameter bag targets.
// Extension passes may upgrade Standard to Physical but never the other
// way around.
type MaterialType string

const (
	MaterialStandard MaterialType = "standard"
	MaterialPhysical MaterialType = "physical"
	MaterialUnlit    MaterialType = "unlit"
	MaterialPhong    MaterialType = "phong"
	MaterialLambert  MaterialType = "lambert"
)

type AlphaMode string

const (
	AlphaOpaque AlphaMode = "OPAQUE"
	AlphaMask   AlphaMode = "MASK"
	AlphaBlend  AlphaMode = "BLEND"
)

// TextureSlot references a scene texture from a material channel.
type TextureSlot struct {
	Texture   int32
	UVChannel int
	// Scalar strength for channels that carry one (normalScale,
	// occlusion strength).
	Scale float32
}

// Material is a tagged parameter bag. Importers write well-known keys
// ("baseColor", "metallic", "roughness", "diffuse", "clearcoat", ...)
// and consumers pick the ones their shading model understands.
type Material struct {
	Name string
	Type MaterialType

	Scalars  map[string]float32
	Colors   map[string][4]float32
	Textures map[string]TextureSlot

	DoubleSided bool
	AlphaMode   AlphaMode
	AlphaCutoff float32

	// Unknown extensions, retained as raw JSON instead of dropped.
	Extensions map[string]json.RawMessage
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:        name,
		Type:        MaterialStandard,
		Scalars:     make(map[string]float32),
		Colors:      make(map[string][4]float32),
		Textures:    make(map[string]TextureSlot),
		AlphaMode:   AlphaOpaque,
		AlphaCutoff: 0.5,
	}
}

type WrapMode int32

const (
	WrapRepeat         WrapMode = 10497
	WrapClampToEdge    WrapMode = 33071
	WrapMirroredRepeat WrapMode = 33648
)

// Texture holds the raw image payload and the sampler state it should
// be bound with. Image is nil when decoding is disabled or failed.
type Texture struct {
	Name string
	URI  string

	Raw      []byte
	MimeType string
	Image    image.Image

	WrapS, WrapT         WrapMode
	MagFilter, MinFilter int32
}

func NewTexture(name string) *Texture {
	return &Texture{
		Name:  name,
		WrapS: WrapRepeat,
		WrapT: WrapRepeat,
	}
}
