package fbx

import (
	"testing"
)

func buildConnectionTree(triples [][3]interface{}) *Node {
	root := NewNode("")
	connections := NewNode("Connections")
	for _, tr := range triples {
		connections.AddChild(NewNode("C", tr[0], tr[1], tr[2]))
	}
	root.AddChild(connections)
	return root
}

func TestConnectionSymmetry(t *testing.T) {
	triples := [][3]interface{}{
		{"OO", int64(100), int64(200)},
		{"OO", int64(100), int64(300)},
		{"OP", int64(400), int64(200)},
		{"OO", int64(500), int64(100)},
	}
	graph := BuildConnections(buildConnectionTree(triples))

	for _, tr := range triples {
		child, parent := tr[1].(int64), tr[2].(int64)

		if !graph.HasEdge(parent, child) {
			t.Errorf("missing child edge %d -> %d", parent, child)
		}
		found := false
		for _, rel := range graph.ParentsOf(child) {
			if rel.ID == parent {
				found = true
			}
		}
		if !found {
			t.Errorf("missing parent edge %d <- %d", child, parent)
		}
	}

	// symmetry both ways over the whole graph
	for id, set := range graph {
		for _, rel := range set.Children {
			ok := false
			for _, back := range graph.ParentsOf(rel.ID) {
				if back.ID == id {
					ok = true
				}
			}
			if !ok {
				t.Errorf("child edge %d -> %d has no mirror", id, rel.ID)
			}
		}
		for _, rel := range set.Parents {
			ok := false
			for _, back := range graph.ChildrenOf(rel.ID) {
				if back.ID == id {
					ok = true
				}
			}
			if !ok {
				t.Errorf("parent edge %d <- %d has no mirror", id, rel.ID)
			}
		}
	}
}

func TestConnectionProperty(t *testing.T) {
	root := NewNode("")
	connections := NewNode("Connections")
	connections.AddChild(NewNode("C", "OP", int64(7), int64(8), "DiffuseColor"))
	root.AddChild(connections)
	graph := BuildConnections(root)

	// property tags ride along OP edges on both sides
	rels := graph.ChildrenOf(8)
	if len(rels) != 1 || rels[0].ID != 7 || rels[0].Property != "DiffuseColor" {
		t.Fatalf("ChildrenOf(8) = %v", rels)
	}
	parents := graph.ParentsOf(7)
	if len(parents) != 1 || parents[0].Property != "DiffuseColor" {
		t.Fatalf("ParentsOf(7) = %v", parents)
	}
}
