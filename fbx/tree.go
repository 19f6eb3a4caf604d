package fbx

import (
	"github.com/mogaika/sceneimport/utils"
)

// Node is one record of the parsed FBX tree. Both the binary and the
// ASCII tokenizer produce this shape, everything downstream is
// format-agnostic.
//
// Properties hold the record's inline values: bool, int16, int32,
// int64, float32, float64, string, []byte and the array types []bool,
// []byte, []int32, []int64, []float32, []float64.
type Node struct {
	Name       string
	Properties []interface{}
	Children   []*Node

	byName map[string][]*Node
}

func NewNode(name string, props ...interface{}) *Node {
	return &Node{Name: name, Properties: props}
}

func (n *Node) AddChild(c *Node) {
	n.Children = append(n.Children, c)
	if n.byName == nil {
		n.byName = make(map[string][]*Node)
	}
	n.byName[c.Name] = append(n.byName[c.Name], c)
}

// Get walks a child path, returning the first match at every level.
func (n *Node) Get(path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur == nil {
			return nil
		}
		childs := cur.byName[name]
		if len(childs) == 0 {
			return nil
		}
		cur = childs[0]
	}
	return cur
}

func (n *Node) GetAll(name string) []*Node {
	if n == nil {
		return nil
	}
	return n.byName[name]
}

// ID returns the numeric object id (first property of an object
// record), or 0 for records that have none.
func (n *Node) ID() int64 {
	if n == nil || len(n.Properties) == 0 {
		return 0
	}
	return Int64Value(n.Properties[0], 0)
}

// AttrName returns the object's display name from the "Class::Name"
// style second property.
func (n *Node) AttrName() string {
	if n == nil || len(n.Properties) < 2 {
		return ""
	}
	_, name := utils.FBXName(StringValue(n.Properties[1], ""))
	return name
}

// AttrType returns the object subtype ("Mesh", "LimbNode", ...).
func (n *Node) AttrType() string {
	if n == nil || len(n.Properties) < 3 {
		return ""
	}
	return StringValue(n.Properties[2], "")
}

func (n *Node) PropInt64(i int, def int64) int64 {
	if n == nil || i >= len(n.Properties) {
		return def
	}
	return Int64Value(n.Properties[i], def)
}

func (n *Node) PropFloat(i int, def float64) float64 {
	if n == nil || i >= len(n.Properties) {
		return def
	}
	return FloatValue(n.Properties[i], def)
}

func (n *Node) PropString(i int, def string) string {
	if n == nil || i >= len(n.Properties) {
		return def
	}
	return StringValue(n.Properties[i], def)
}

// ChildInt64 reads the first property of the named child, a pattern
// FBX uses for scalar settings ("Version: 232").
func (n *Node) ChildInt64(name string, def int64) int64 {
	return n.Get(name).PropInt64(0, def)
}

func (n *Node) ChildFloat(name string, def float64) float64 {
	return n.Get(name).PropFloat(0, def)
}

func (n *Node) ChildString(name string, def string) string {
	return n.Get(name).PropString(0, def)
}

func (n *Node) ChildFloats(name string) []float64 {
	return Float64Slice(n.Get(name).prop0())
}

func (n *Node) ChildInts(name string) []int32 {
	return Int32Slice(n.Get(name).prop0())
}

func (n *Node) prop0() interface{} {
	if n == nil || len(n.Properties) == 0 {
		return nil
	}
	return n.Properties[0]
}

func Int64Value(v interface{}, def int64) int64 {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case float32:
		return int64(t)
	case float64:
		return int64(t)
	}
	return def
}

func FloatValue(v interface{}, def float64) float64 {
	switch t := v.(type) {
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	}
	return def
}

func StringValue(v interface{}, def string) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return utils.BytesToString(t)
	}
	return def
}

func Int32Slice(v interface{}) []int32 {
	switch t := v.(type) {
	case []int32:
		return t
	case []int64:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return out
	case []byte:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return out
	case []float64:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return out
	}
	return nil
}

func Int64Slice(v interface{}) []int64 {
	switch t := v.(type) {
	case []int64:
		return t
	case []int32:
		out := make([]int64, len(t))
		for i, x := range t {
			out[i] = int64(x)
		}
		return out
	case []float64:
		out := make([]int64, len(t))
		for i, x := range t {
			out[i] = int64(x)
		}
		return out
	}
	return nil
}

func Float64Slice(v interface{}) []float64 {
	switch t := v.(type) {
	case []float64:
		return t
	case []float32:
		return utils.FloatArray32to64(t)
	case []int32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out
	case []int64:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out
	}
	return nil
}
