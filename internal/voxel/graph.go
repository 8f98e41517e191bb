package voxel

import "fmt"

// Connectivity selects the lattice neighbourhood used when building a graph.
type Connectivity int

const (
	// Face links voxels sharing a face (6 neighbours).
	Face Connectivity = 6
	// Edge links voxels sharing a face or an edge (18 neighbours).
	Edge Connectivity = 18
	// Vertex links voxels sharing a face, edge or corner (26 neighbours).
	Vertex Connectivity = 26
)

// DefaultConnectivity matches the 26-neighbourhood used by the skeletonizer.
const DefaultConnectivity = Vertex

// Offsets returns the neighbour offsets for c.
func (c Connectivity) Offsets() ([]Position, error) {
	var out []Position
	for dz := int64(-1); dz <= 1; dz++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dx := int64(-1); dx <= 1; dx++ {
				nonZero := 0
				for _, d := range [3]int64{dx, dy, dz} {
					if d != 0 {
						nonZero++
					}
				}
				if nonZero == 0 {
					continue
				}
				switch c {
				case Face:
					if nonZero > 1 {
						continue
					}
				case Edge:
					if nonZero > 2 {
						continue
					}
				case Vertex:
				default:
					return nil, fmt.Errorf("unsupported connectivity %d (want 6, 18 or 26)", int(c))
				}
				out = append(out, Position{X: dx, Y: dy, Z: dz})
			}
		}
	}
	return out, nil
}

// Graph is the adjacency structure over occupied voxels. Nodes live in an
// arena addressed by stable int32 indices; the graph is immutable once built
// and safe for concurrent reads.
type Graph struct {
	positions []Position
	index     map[Position]int32
	adj       [][]int32
}

// BuildGraph links every pair of occupied voxels that are neighbours under c.
// Nodes are numbered in (Z, Y, X) order so traversal order is reproducible.
func BuildGraph(occupied Set, c Connectivity) (*Graph, error) {
	offsets, err := c.Offsets()
	if err != nil {
		return nil, err
	}

	sorted := occupied.Sorted()
	g := &Graph{
		positions: sorted,
		index:     make(map[Position]int32, len(sorted)),
		adj:       make([][]int32, len(sorted)),
	}
	for i, p := range sorted {
		g.index[p] = int32(i)
	}

	for i, p := range sorted {
		for _, off := range offsets {
			if j, ok := g.index[p.Add(off)]; ok {
				g.adj[i] = append(g.adj[i], j)
			}
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.positions) }

// Has reports whether p is a node.
func (g *Graph) Has(p Position) bool {
	_, ok := g.index[p]
	return ok
}

// Index returns the arena index of p.
func (g *Graph) Index(p Position) (int32, bool) {
	i, ok := g.index[p]
	return i, ok
}

// Position returns the voxel stored at arena index i.
func (g *Graph) Position(i int32) Position { return g.positions[i] }

// Nodes returns every node as a set.
func (g *Graph) Nodes() Set {
	return NewSet(g.positions...)
}

// Neighbors returns the neighbours of p, or nil when p is not a node.
func (g *Graph) Neighbors(p Position) []Position {
	i, ok := g.index[p]
	if !ok {
		return nil
	}
	out := make([]Position, len(g.adj[i]))
	for k, j := range g.adj[i] {
		out[k] = g.positions[j]
	}
	return out
}

// Degree returns the number of neighbours of p.
func (g *Graph) Degree(p Position) int {
	i, ok := g.index[p]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// Boundary returns the nodes adjacent to the set but not part of it.
func (g *Graph) Boundary(s Set) Set {
	out := make(Set)
	for p := range s {
		i, ok := g.index[p]
		if !ok {
			continue
		}
		for _, j := range g.adj[i] {
			q := g.positions[j]
			if _, in := s[q]; !in {
				out[q] = struct{}{}
			}
		}
	}
	return out
}

// InducedSubgraph restricts the graph to the members of s. Members that are
// not graph nodes are ignored.
func (g *Graph) InducedSubgraph(s Set) *Subgraph {
	sub := &Subgraph{
		g:      g,
		member: make([]bool, len(g.positions)),
	}
	for p := range s {
		if i, ok := g.index[p]; ok {
			sub.member[i] = true
			sub.size++
		}
	}
	return sub
}

// Subgraph is a read-only view of a Graph limited to a node subset.
type Subgraph struct {
	g      *Graph
	member []bool
	size   int
}

// Len returns the number of nodes in the view.
func (s *Subgraph) Len() int { return s.size }

// ConnectedComponents enumerates the components of the view with a
// breadth-first flood fill. Components are returned in order of their
// lowest arena index, which keeps results deterministic.
func (s *Subgraph) ConnectedComponents() []Set {
	if s.size == 0 {
		return nil
	}

	visited := make([]bool, len(s.member))
	queue := make([]int32, 0, 64)
	var components []Set

	for start := range s.member {
		if !s.member[start] || visited[start] {
			continue
		}

		comp := make(Set)
		queue = append(queue[:0], int32(start))
		visited[start] = true

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp[s.g.positions[cur]] = struct{}{}

			for _, nb := range s.g.adj[cur] {
				if s.member[nb] && !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		components = append(components, comp)
	}
	return components
}

// ComponentOf returns the component that contains p, or nil when p is not
// part of the view.
func (s *Subgraph) ComponentOf(p Position) Set {
	start, ok := s.g.index[p]
	if !ok || !s.member[start] {
		return nil
	}

	visited := make(map[int32]bool)
	visited[start] = true
	queue := []int32{start}
	comp := make(Set)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		comp[s.g.positions[cur]] = struct{}{}
		for _, nb := range s.g.adj[cur] {
			if s.member[nb] && !visited[nb] {
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return comp
}
