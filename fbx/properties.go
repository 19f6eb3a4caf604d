package fbx

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Property70 is one typed entry of an object's Properties70 block:
// P: "name", "type", "label", "flags", values...
type Property70 struct {
	Name  string
	Type  string
	Label string
	Flags string

	Values []interface{}
}

func (p *Property70) Float(def float64) float64 {
	if p == nil || len(p.Values) == 0 {
		return def
	}
	return FloatValue(p.Values[0], def)
}

func (p *Property70) Int(def int64) int64 {
	if p == nil || len(p.Values) == 0 {
		return def
	}
	return Int64Value(p.Values[0], def)
}

func (p *Property70) String(def string) string {
	if p == nil || len(p.Values) == 0 {
		return def
	}
	return StringValue(p.Values[0], def)
}

func (p *Property70) Vec3(def mgl64.Vec3) mgl64.Vec3 {
	if p == nil || len(p.Values) < 3 {
		return def
	}
	return mgl64.Vec3{
		FloatValue(p.Values[0], def[0]),
		FloatValue(p.Values[1], def[1]),
		FloatValue(p.Values[2], def[2]),
	}
}

// PropertyBag indexes an object's Properties70 entries by name.
type PropertyBag map[string]*Property70

// Props collects the Properties70 (or legacy Properties60) entries of
// an object record.
func (n *Node) Props() PropertyBag {
	bag := make(PropertyBag)
	block := n.Get("Properties70")
	if block == nil {
		block = n.Get("Properties60")
	}
	if block == nil {
		return bag
	}
	for _, p := range block.Children {
		if p.Name != "P" && p.Name != "Property" {
			continue
		}
		if len(p.Properties) < 4 {
			continue
		}
		prop := &Property70{
			Name:   StringValue(p.Properties[0], ""),
			Type:   StringValue(p.Properties[1], ""),
			Label:  StringValue(p.Properties[2], ""),
			Flags:  StringValue(p.Properties[3], ""),
			Values: p.Properties[4:],
		}
		bag[prop.Name] = prop
	}
	return bag
}

func (bag PropertyBag) Has(name string) bool {
	_, ok := bag[name]
	return ok
}

func (bag PropertyBag) Float(name string, def float64) float64 {
	return bag[name].Float(def)
}

func (bag PropertyBag) Int(name string, def int64) int64 {
	return bag[name].Int(def)
}

func (bag PropertyBag) String(name, def string) string {
	return bag[name].String(def)
}

func (bag PropertyBag) Vec3(name string, def mgl64.Vec3) mgl64.Vec3 {
	return bag[name].Vec3(def)
}
