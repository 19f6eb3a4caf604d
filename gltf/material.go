package gltf

import (
	"encoding/json"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
)

// material resolves material i: base PBR pass, then the known
// KHR_materials_* extension passes in registration order, then plugin
// extenders. The first pass that wants the physical type wins the type
// decision, overlapping scalars are last-applied-wins. Unhandled
// extensions stay on the material as opaque raw JSON. Texture slots
// hold document texture indices here, remapped during assembly.
func (pc *ParseContext) material(i int) (*scene.Material, error) {
	v, err := pc.cache.resolve(pc.ctx, key("material", i), func() (interface{}, error) {
		if i < 0 || i >= len(pc.doc.Materials) {
			return nil, importer.Structuralf(key("material", i), "index out of range (%d defined)", len(pc.doc.Materials))
		}
		src := &pc.doc.Materials[i]

		mat := scene.NewMaterial(src.Name)
		pc.applyPBRPass(mat, src)

		for _, pass := range materialExtensionPasses {
			raw, ok := src.Extensions[pass.name]
			if !ok {
				continue
			}
			if err := pass.apply(mat, raw); err != nil {
				pc.warnf("material %d extension %s malformed: %v", i, pass.name, err)
				continue
			}
			if pass.physical && mat.Type == scene.MaterialStandard {
				mat.Type = scene.MaterialPhysical
			}
		}

		for name, raw := range src.Extensions {
			if knownMaterialExtension(name) {
				continue
			}
			if pc.pluginMaterialExtension(name, raw, mat) {
				continue
			}
			if mat.Extensions == nil {
				mat.Extensions = make(map[string]json.RawMessage)
			}
			mat.Extensions[name] = raw
		}
		return mat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*scene.Material), nil
}

func (pc *ParseContext) applyPBRPass(mat *scene.Material, src *DocMaterial) {
	mat.DoubleSided = src.DoubleSided
	switch src.AlphaMode {
	case "MASK":
		mat.AlphaMode = scene.AlphaMask
		if src.AlphaCutoff != nil {
			mat.AlphaCutoff = float32(*src.AlphaCutoff)
		}
	case "BLEND":
		mat.AlphaMode = scene.AlphaBlend
	}

	pbr := src.PBRMetallicRoughness
	if pbr == nil {
		pbr = &PBRMetallicRoughness{}
	}

	mat.Colors["baseColor"] = color4(pbr.BaseColorFactor, [4]float32{1, 1, 1, 1})
	mat.Scalars["metallic"] = floatOr(pbr.MetallicFactor, 1)
	mat.Scalars["roughness"] = floatOr(pbr.RoughnessFactor, 1)
	setSlot(mat, "baseColor", pbr.BaseColorTexture)
	setSlot(mat, "metallicRoughness", pbr.MetallicRoughnessTexture)

	if src.NormalTexture != nil {
		mat.Textures["normal"] = scene.TextureSlot{
			Texture:   int32(src.NormalTexture.Index),
			UVChannel: src.NormalTexture.TexCoord,
			Scale:     floatOr(src.NormalTexture.Scale, 1),
		}
	}
	if src.OcclusionTexture != nil {
		mat.Textures["occlusion"] = scene.TextureSlot{
			Texture:   int32(src.OcclusionTexture.Index),
			UVChannel: src.OcclusionTexture.TexCoord,
			Scale:     floatOr(src.OcclusionTexture.Strength, 1),
		}
	}
	if src.EmissiveTexture != nil || src.EmissiveFactor != nil {
		mat.Colors["emissive"] = color4(src.EmissiveFactor, [4]float32{0, 0, 0, 1})
		setSlot(mat, "emissive", src.EmissiveTexture)
	}
}

type materialPass struct {
	name     string
	physical bool
	apply    func(mat *scene.Material, raw json.RawMessage) error
}

// materialExtensionPasses in registration order, which decides the
// material type when several passes are present.
var materialExtensionPasses = []materialPass{
	{"KHR_materials_unlit", false, func(mat *scene.Material, raw json.RawMessage) error {
		mat.Type = scene.MaterialUnlit
		return nil
	}},
	{"KHR_materials_clearcoat", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			ClearcoatFactor           *float64     `json:"clearcoatFactor"`
			ClearcoatRoughnessFactor  *float64     `json:"clearcoatRoughnessFactor"`
			ClearcoatTexture          *TextureInfo `json:"clearcoatTexture"`
			ClearcoatRoughnessTexture *TextureInfo `json:"clearcoatRoughnessTexture"`
			ClearcoatNormalTexture    *TextureInfo `json:"clearcoatNormalTexture"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["clearcoat"] = floatOr(ext.ClearcoatFactor, 0)
		mat.Scalars["clearcoatRoughness"] = floatOr(ext.ClearcoatRoughnessFactor, 0)
		setSlot(mat, "clearcoat", ext.ClearcoatTexture)
		setSlot(mat, "clearcoatRoughness", ext.ClearcoatRoughnessTexture)
		setSlot(mat, "clearcoatNormal", ext.ClearcoatNormalTexture)
		return nil
	}},
	{"KHR_materials_transmission", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			TransmissionFactor  *float64     `json:"transmissionFactor"`
			TransmissionTexture *TextureInfo `json:"transmissionTexture"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["transmission"] = floatOr(ext.TransmissionFactor, 0)
		setSlot(mat, "transmission", ext.TransmissionTexture)
		return nil
	}},
	{"KHR_materials_sheen", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			SheenColorFactor     []float64    `json:"sheenColorFactor"`
			SheenRoughnessFactor *float64     `json:"sheenRoughnessFactor"`
			SheenColorTexture    *TextureInfo `json:"sheenColorTexture"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Colors["sheenColor"] = color4(ext.SheenColorFactor, [4]float32{0, 0, 0, 1})
		mat.Scalars["sheenRoughness"] = floatOr(ext.SheenRoughnessFactor, 0)
		setSlot(mat, "sheenColor", ext.SheenColorTexture)
		return nil
	}},
	{"KHR_materials_specular", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			SpecularFactor       *float64     `json:"specularFactor"`
			SpecularColorFactor  []float64    `json:"specularColorFactor"`
			SpecularTexture      *TextureInfo `json:"specularTexture"`
			SpecularColorTexture *TextureInfo `json:"specularColorTexture"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["specular"] = floatOr(ext.SpecularFactor, 1)
		mat.Colors["specularColor"] = color4(ext.SpecularColorFactor, [4]float32{1, 1, 1, 1})
		setSlot(mat, "specular", ext.SpecularTexture)
		setSlot(mat, "specularColor", ext.SpecularColorTexture)
		return nil
	}},
	{"KHR_materials_iridescence", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			IridescenceFactor           *float64 `json:"iridescenceFactor"`
			IridescenceIor              *float64 `json:"iridescenceIor"`
			IridescenceThicknessMinimum *float64 `json:"iridescenceThicknessMinimum"`
			IridescenceThicknessMaximum *float64 `json:"iridescenceThicknessMaximum"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["iridescence"] = floatOr(ext.IridescenceFactor, 0)
		mat.Scalars["iridescenceIOR"] = floatOr(ext.IridescenceIor, 1.3)
		mat.Scalars["iridescenceThicknessMin"] = floatOr(ext.IridescenceThicknessMinimum, 100)
		mat.Scalars["iridescenceThicknessMax"] = floatOr(ext.IridescenceThicknessMaximum, 400)
		return nil
	}},
	{"KHR_materials_anisotropy", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			AnisotropyStrength *float64 `json:"anisotropyStrength"`
			AnisotropyRotation *float64 `json:"anisotropyRotation"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["anisotropy"] = floatOr(ext.AnisotropyStrength, 0)
		mat.Scalars["anisotropyRotation"] = floatOr(ext.AnisotropyRotation, 0)
		return nil
	}},
	{"KHR_materials_volume", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			ThicknessFactor     *float64  `json:"thicknessFactor"`
			AttenuationDistance *float64  `json:"attenuationDistance"`
			AttenuationColor    []float64 `json:"attenuationColor"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["thickness"] = floatOr(ext.ThicknessFactor, 0)
		if ext.AttenuationDistance != nil {
			mat.Scalars["attenuationDistance"] = float32(*ext.AttenuationDistance)
		}
		mat.Colors["attenuationColor"] = color4(ext.AttenuationColor, [4]float32{1, 1, 1, 1})
		return nil
	}},
	{"KHR_materials_ior", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			Ior *float64 `json:"ior"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["ior"] = floatOr(ext.Ior, 1.5)
		return nil
	}},
	{"KHR_materials_dispersion", true, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			Dispersion *float64 `json:"dispersion"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["dispersion"] = floatOr(ext.Dispersion, 0)
		return nil
	}},
	{"KHR_materials_emissive_strength", false, func(mat *scene.Material, raw json.RawMessage) error {
		var ext struct {
			EmissiveStrength *float64 `json:"emissiveStrength"`
		}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return err
		}
		mat.Scalars["emissiveStrength"] = floatOr(ext.EmissiveStrength, 1)
		return nil
	}},
}

func knownMaterialExtension(name string) bool {
	for _, pass := range materialExtensionPasses {
		if pass.name == name {
			return true
		}
	}
	return false
}

func setSlot(mat *scene.Material, channel string, info *TextureInfo) {
	if info == nil {
		return
	}
	mat.Textures[channel] = scene.TextureSlot{
		Texture:   int32(info.Index),
		UVChannel: info.TexCoord,
		Scale:     1,
	}
}

func floatOr(v *float64, def float32) float32 {
	if v == nil {
		return def
	}
	return float32(*v)
}

func color4(v []float64, def [4]float32) [4]float32 {
	if v == nil {
		return def
	}
	out := def
	for i := 0; i < len(v) && i < 4; i++ {
		out[i] = float32(v[i])
	}
	return out
}
