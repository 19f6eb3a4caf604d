package fbx

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mogaika/sceneimport/config"
	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// Importer parses FBX (binary or ASCII) buffers into a scene graph.
// One Importer may be reused, but a single instance is not safe for
// concurrent Load calls.
type Importer struct {
	// Fetcher resolves relative texture file names. Optional, without
	// it only embedded media loads.
	Fetcher importer.Fetcher
	// Log receives parse traces and degraded-resource warnings.
	Log      *utils.Logger
	Settings config.Settings
}

func NewImporter() *Importer {
	return &Importer{Settings: config.DefaultSettings()}
}

// ParseContext is the per-parse state threaded through every stage.
// Nothing survives between parses.
type ParseContext struct {
	ctx context.Context
	imp *Importer

	tree        *Node
	version     uint32
	connections ConnectionGraph
	out         *scene.Scene

	objects map[int64]*Node

	nodeByModel  map[int64]scene.NodeIndex
	geometryByID map[int64]int32
	materialByID map[int64]int32
	textureByID  map[int64]int32

	// world-space intermediates used by the transform inheritance
	// formulas, keyed by scene node index
	worldInfo map[scene.NodeIndex]*worldTransform

	geometrySkins  map[int64]*skinData
	geometryMorphs map[int64]*morphData

	nameGen utils.RandomNameGenerator
}

// Load parses one FBX document. The format (binary or ASCII) is picked
// by magic. Parsing is synchronous and single-pass, ctx is only used
// for texture fetches.
func (imp *Importer) Load(ctx context.Context, data []byte) (*scene.Scene, error) {
	var tree *Node
	var version uint32
	var err error
	if IsBinary(data) {
		tree, version, err = ParseBinary(data)
	} else {
		tree, version, err = ParseASCII(data)
	}
	if err != nil {
		return nil, err
	}
	imp.Log.Printf("fbx: parsed tree, version %d", version)
	if imp.Settings.DumpTree {
		imp.Log.Printf("fbx: tree dump:\n%s", utils.SDump(tree))
	}

	pc := &ParseContext{
		ctx:            ctx,
		imp:            imp,
		tree:           tree,
		version:        version,
		connections:    BuildConnections(tree),
		out:            scene.NewScene(),
		objects:        make(map[int64]*Node),
		nodeByModel:    make(map[int64]scene.NodeIndex),
		geometryByID:   make(map[int64]int32),
		materialByID:   make(map[int64]int32),
		textureByID:    make(map[int64]int32),
		worldInfo:      make(map[scene.NodeIndex]*worldTransform),
		geometrySkins:  make(map[int64]*skinData),
		geometryMorphs: make(map[int64]*morphData),
	}
	pc.collectObjects()

	if err := pc.parseTextures(); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse textures")
	}
	pc.parseMaterials()
	pc.parseDeformers()
	if err := pc.parseGeometries(); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse geometries")
	}
	if err := pc.assembleModels(); err != nil {
		return nil, errors.Wrapf(err, "Failed to assemble models")
	}
	pc.bindSkeletons()
	pc.parseAnimations()

	return pc.out, nil
}

func (pc *ParseContext) collectObjects() {
	objects := pc.tree.Get("Objects")
	if objects == nil {
		return
	}
	for _, obj := range objects.Children {
		if id := obj.ID(); id != 0 {
			pc.objects[id] = obj
		}
	}
}

// objectName resolves an object's display name, inventing a stable one
// when the exporter left it blank.
func (pc *ParseContext) objectName(obj *Node) string {
	if name := obj.AttrName(); name != "" {
		return name
	}
	return pc.nameGen.RandomName()
}

func (pc *ParseContext) warnf(format string, a ...interface{}) {
	pc.imp.Log.Printf("fbx: warning: "+format, a...)
}
