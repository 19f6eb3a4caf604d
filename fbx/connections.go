package fbx

// Relation is one end of an object connection. Property carries the
// "OP" target property name ("DiffuseColor", "Lcl Translation", ...)
// and is empty for plain "OO" object links.
type Relation struct {
	ID       int64
	Property string
}

type ConnectionSet struct {
	Parents  []Relation
	Children []Relation
}

// ConnectionGraph is the bidirectional adjacency built from the flat
// Connections block. Every edge is stored twice, once per direction,
// so lookups in either direction are O(1).
type ConnectionGraph map[int64]*ConnectionSet

func BuildConnections(root *Node) ConnectionGraph {
	graph := make(ConnectionGraph)

	get := func(id int64) *ConnectionSet {
		set, ok := graph[id]
		if !ok {
			set = &ConnectionSet{}
			graph[id] = set
		}
		return set
	}

	block := root.Get("Connections")
	if block == nil {
		return graph
	}
	for _, c := range block.GetAll("C") {
		if len(c.Properties) < 3 {
			continue
		}
		from := c.PropInt64(1, 0) // child object
		to := c.PropInt64(2, 0)   // parent object
		property := ""
		if c.PropString(0, "") == "OP" {
			property = c.PropString(3, "")
		}

		get(to).Children = append(get(to).Children, Relation{ID: from, Property: property})
		get(from).Parents = append(get(from).Parents, Relation{ID: to, Property: property})
	}
	return graph
}

func (g ConnectionGraph) ChildrenOf(id int64) []Relation {
	if set, ok := g[id]; ok {
		return set.Children
	}
	return nil
}

func (g ConnectionGraph) ParentsOf(id int64) []Relation {
	if set, ok := g[id]; ok {
		return set.Parents
	}
	return nil
}

func (g ConnectionGraph) HasEdge(parent, child int64) bool {
	for _, rel := range g.ChildrenOf(parent) {
		if rel.ID == child {
			return true
		}
	}
	return false
}
