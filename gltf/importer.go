package gltf

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mogaika/sceneimport/config"
	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// Importer parses glTF JSON or GLB buffers into a scene graph. A single
// instance is not safe for concurrent Load calls: the resolution cache
// is scoped per parse, but plugin registration is not synchronized.
type Importer struct {
	// Fetcher resolves buffer and image uris. Optional, without it only
	// data uris and the GLB BIN chunk load.
	Fetcher importer.Fetcher
	// Log receives parse traces and degraded-resource warnings.
	Log      *utils.Logger
	Settings config.Settings

	// Plugins intercept standard load calls, see plugins.go.
	Plugins []Plugin
	// Decoders handle compressed payloads (draco, ktx2, meshopt) for
	// plugins that need them.
	Decoders []importer.PayloadDecoder
}

func NewImporter() *Importer {
	return &Importer{Settings: config.DefaultSettings()}
}

func (imp *Importer) Register(p Plugin) {
	imp.Plugins = append(imp.Plugins, p)
}

// ParseContext is the per-parse state threaded through resolution and
// assembly. Resolution (buffers, accessors, meshes, materials,
// textures) runs concurrently behind the memoizing cache; assembly of
// the node arena is synchronous and single-threaded.
type ParseContext struct {
	ctx context.Context
	imp *Importer

	doc *Document
	// GLB BIN chunk backing buffer 0 when it declares no uri
	bin []byte

	cache *resolveCache
	out   *scene.Scene

	// doc index -> scene list index, filled during synchronous assembly
	nodeIndex     []scene.NodeIndex
	geometryIndex map[int]int32
	materialIndex map[int]int32
	textureIndex  map[int]int32

	// doc skin index per node, -1 when unskinned
	skinOfNode []int

	defaultMaterial int32
}

// Load parses one glTF document. ctx bounds the external fetches; the
// decode work itself is not cancellable mid-element.
func (imp *Importer) Load(ctx context.Context, data []byte) (*scene.Scene, error) {
	var jsonChunk, binChunk []byte
	if IsGLB(data) {
		var err error
		jsonChunk, binChunk, err = ParseGLB(data)
		if err != nil {
			return nil, err
		}
	} else {
		jsonChunk = data
	}

	doc, err := ParseDocument(jsonChunk)
	if err != nil {
		return nil, err
	}
	imp.Log.Printf("gltf: version %s, %d nodes, %d meshes", doc.Asset.Version, len(doc.Nodes), len(doc.Meshes))
	if imp.Settings.DumpTree {
		imp.Log.Printf("gltf: document dump:\n%s", utils.SDump(doc))
	}

	pc := &ParseContext{
		ctx:             ctx,
		imp:             imp,
		doc:             doc,
		bin:             binChunk,
		cache:           newResolveCache(),
		out:             scene.NewScene(),
		nodeIndex:       make([]scene.NodeIndex, len(doc.Nodes)),
		geometryIndex:   make(map[int]int32),
		materialIndex:   make(map[int]int32),
		textureIndex:    make(map[int]int32),
		defaultMaterial: -1,
	}

	pc.prefetch()

	if err := pc.assembleNodes(); err != nil {
		return nil, err
	}
	pc.assembleSkins()
	pc.assembleAnimations()

	return pc.out, nil
}

// prefetch resolves every mesh, material and texture concurrently with
// bounded fan-out. Failures are not fatal here: the memoized result is
// re-surfaced when assembly actually needs the resource, so a broken
// mesh only fails the nodes referencing it.
func (pc *ParseContext) prefetch() {
	g, gctx := errgroup.WithContext(pc.ctx)
	if n := pc.imp.Settings.FetchConcurrency; n > 0 {
		g.SetLimit(n)
	}
	saved := pc.ctx
	pc.ctx = gctx

	for i := range pc.doc.Meshes {
		i := i
		g.Go(func() error { pc.mesh(i); return nil })
	}
	for i := range pc.doc.Materials {
		i := i
		g.Go(func() error { pc.material(i); return nil })
	}
	for i := range pc.doc.Textures {
		i := i
		g.Go(func() error { pc.texture(i); return nil })
	}
	g.Wait()
	pc.ctx = saved
}

func (pc *ParseContext) warnf(format string, a ...interface{}) {
	pc.imp.Log.Printf("gltf: warning: "+format, a...)
}

func key(kind string, index int) string {
	return fmt.Sprintf("%s:%d", kind, index)
}

// sceneGeometry places a resolved mesh into the output list, once.
func (pc *ParseContext) sceneGeometry(i int) (int32, error) {
	if index, ok := pc.geometryIndex[i]; ok {
		return index, nil
	}
	geo, err := pc.mesh(i)
	if err != nil {
		return -1, err
	}
	pc.remapGeometryMaterials(geo)
	pc.out.Geometries = append(pc.out.Geometries, geo)
	index := int32(len(pc.out.Geometries) - 1)
	pc.geometryIndex[i] = index
	return index, nil
}

// sceneMaterial places a resolved material into the output list,
// remapping its texture references. Out-of-range indices degrade to a
// synthesized default material.
func (pc *ParseContext) sceneMaterial(i int) int32 {
	if index, ok := pc.materialIndex[i]; ok {
		return index
	}
	if i < 0 || i >= len(pc.doc.Materials) {
		pc.warnf("material index %d out of range (%d defined), substituting default", i, len(pc.doc.Materials))
		return pc.sceneDefaultMaterial()
	}
	mat, err := pc.material(i)
	if err != nil {
		pc.warnf("material %d failed: %v, substituting default", i, err)
		return pc.sceneDefaultMaterial()
	}

	for channel, slot := range mat.Textures {
		texIndex, ok := pc.sceneTexture(int(slot.Texture))
		if !ok {
			delete(mat.Textures, channel)
			continue
		}
		slot.Texture = texIndex
		mat.Textures[channel] = slot
	}

	pc.out.Materials = append(pc.out.Materials, mat)
	index := int32(len(pc.out.Materials) - 1)
	pc.materialIndex[i] = index
	return index
}

func (pc *ParseContext) sceneDefaultMaterial() int32 {
	if pc.defaultMaterial < 0 {
		mat := scene.NewMaterial("default")
		mat.Colors["baseColor"] = [4]float32{1, 1, 1, 1}
		mat.Scalars["metallic"] = 1
		mat.Scalars["roughness"] = 1
		pc.out.Materials = append(pc.out.Materials, mat)
		pc.defaultMaterial = int32(len(pc.out.Materials) - 1)
	}
	return pc.defaultMaterial
}

// sceneTexture places a resolved texture into the output list. A fetch
// or decode failure resolves to no texture, the material still
// assembles without that map.
func (pc *ParseContext) sceneTexture(i int) (int32, bool) {
	if index, ok := pc.textureIndex[i]; ok {
		return index, index >= 0
	}
	tex, err := pc.texture(i)
	if err != nil || tex == nil {
		if err != nil {
			pc.warnf("texture %d failed: %v", i, err)
		}
		pc.textureIndex[i] = -1
		return -1, false
	}
	pc.out.Textures = append(pc.out.Textures, tex)
	index := int32(len(pc.out.Textures) - 1)
	pc.textureIndex[i] = index
	return index, true
}

// remapGeometryMaterials rewrites the document material indices the
// mesh resolver left in the groups into scene material indices.
func (pc *ParseContext) remapGeometryMaterials(geo *scene.Geometry) {
	for gi := range geo.Groups {
		local := geo.Groups[gi].Material
		if local < 0 {
			geo.Groups[gi].Material = pc.sceneDefaultMaterial()
		} else {
			geo.Groups[gi].Material = pc.sceneMaterial(int(local))
		}
	}
}
