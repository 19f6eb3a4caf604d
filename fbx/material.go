package fbx

import (
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

func mgl3(x, y, z float64) mgl64.Vec3 { return mgl64.Vec3{x, y, z} }

// texture channel property names to the material parameter bag keys
var textureChannels = map[string]string{
	"DiffuseColor":      "diffuse",
	"SpecularColor":     "specular",
	"EmissiveColor":     "emissive",
	"NormalMap":         "normal",
	"Bump":              "bump",
	"TransparentColor":  "opacity",
	"ShininessExponent": "shininess",
	"ReflectionColor":   "reflection",
	"AmbientColor":      "ambient",
	"DisplacementColor": "displacement",
}

// sortedObjectIDs keeps resource emission order stable between parses
// of the same file.
func (pc *ParseContext) sortedObjectIDs(nodeName string) []int64 {
	ids := make([]int64, 0)
	for id, obj := range pc.objects {
		if obj.Name == nodeName {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (pc *ParseContext) parseTextures() error {
	for _, id := range pc.sortedObjectIDs("Texture") {
		texNode := pc.objects[id]

		tex := scene.NewTexture(pc.objectName(texNode))
		tex.URI = texNode.ChildString("RelativeFilename", texNode.ChildString("FileName", ""))

		props := texNode.Props()
		if props.Int("WrapModeU", 0) == 1 {
			tex.WrapS = scene.WrapClampToEdge
		}
		if props.Int("WrapModeV", 0) == 1 {
			tex.WrapT = scene.WrapClampToEdge
		}

		tex.Raw = pc.embeddedVideoContent(id)
		if tex.Raw == nil && tex.URI != "" && pc.imp.Fetcher != nil {
			raw, err := pc.imp.Fetcher.Fetch(pc.ctx, tex.URI)
			if err != nil {
				// mesh still assembles without the map
				pc.warnf("texture %q fetch failed: %v", tex.URI, err)
			} else {
				tex.Raw = raw
			}
		}

		if tex.Raw != nil && pc.imp.Settings.DecodeImages {
			img, format, err := utils.DecodeImage(tex.Raw, tex.URI)
			if err != nil {
				pc.warnf("texture %q decode failed: %v", tex.Name, err)
			} else {
				tex.Image = img
				tex.MimeType = utils.MimeForFormat(format)
			}
		}

		pc.out.Textures = append(pc.out.Textures, tex)
		pc.textureByID[id] = int32(len(pc.out.Textures) - 1)
	}
	return nil
}

// embeddedVideoContent finds the Content blob of the Video object
// backing a texture.
func (pc *ParseContext) embeddedVideoContent(textureID int64) []byte {
	for _, rel := range pc.connections.ChildrenOf(textureID) {
		video := pc.objects[rel.ID]
		if video == nil || video.Name != "Video" {
			continue
		}
		switch content := video.Get("Content").prop0().(type) {
		case []byte:
			if len(content) > 0 {
				return content
			}
		case string:
			if len(content) > 0 {
				return []byte(content)
			}
		}
	}
	return nil
}

func (pc *ParseContext) parseMaterials() {
	for _, id := range pc.sortedObjectIDs("Material") {
		matNode := pc.objects[id]

		mat := scene.NewMaterial(pc.objectName(matNode))
		props := matNode.Props()

		shading := strings.ToLower(matNode.ChildString("ShadingModel", props.String("ShadingModel", "phong")))
		if shading == "lambert" {
			mat.Type = scene.MaterialLambert
		} else {
			mat.Type = scene.MaterialPhong
		}

		if c, ok := props["DiffuseColor"]; ok {
			v := c.Vec3(mgl3(1, 1, 1))
			mat.Colors["diffuse"] = [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), 1}
		} else if c, ok := props["Diffuse"]; ok {
			v := c.Vec3(mgl3(1, 1, 1))
			mat.Colors["diffuse"] = [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), 1}
		}
		if c, ok := props["SpecularColor"]; ok {
			v := c.Vec3(mgl3(0, 0, 0))
			mat.Colors["specular"] = [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), 1}
		}
		if c, ok := props["EmissiveColor"]; ok {
			v := c.Vec3(mgl3(0, 0, 0))
			f := float32(props.Float("EmissiveFactor", 1))
			mat.Colors["emissive"] = [4]float32{float32(v[0]) * f, float32(v[1]) * f, float32(v[2]) * f, 1}
		}
		mat.Scalars["shininess"] = float32(props.Float("Shininess", 20))

		opacity := props.Float("Opacity", 1)
		if props.Has("TransparencyFactor") && !props.Has("Opacity") {
			opacity = 1 - props.Float("TransparencyFactor", 0)
		}
		mat.Scalars["opacity"] = float32(opacity)
		if opacity < 1 {
			mat.AlphaMode = scene.AlphaBlend
		}

		for _, rel := range pc.connections.ChildrenOf(id) {
			channel, ok := textureChannels[rel.Property]
			if !ok {
				continue
			}
			texIndex, ok := pc.resolveTextureRef(rel.ID)
			if !ok {
				continue
			}
			mat.Textures[channel] = scene.TextureSlot{Texture: texIndex, Scale: 1}
		}

		pc.out.Materials = append(pc.out.Materials, mat)
		pc.materialByID[id] = int32(len(pc.out.Materials) - 1)
	}
}

// resolveTextureRef follows LayeredTexture indirection down to a
// concrete texture. Only the first layer is kept.
func (pc *ParseContext) resolveTextureRef(id int64) (int32, bool) {
	if index, ok := pc.textureByID[id]; ok {
		return index, true
	}
	obj := pc.objects[id]
	if obj != nil && obj.Name == "LayeredTexture" {
		pc.warnf("layered texture %d flattened to its first layer", id)
		for _, rel := range pc.connections.ChildrenOf(id) {
			if index, ok := pc.textureByID[rel.ID]; ok {
				return index, true
			}
		}
	}
	return 0, false
}
