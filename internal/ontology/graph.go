// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ontology

import (
	"fmt"
	"sort"

	"github.com/pdiddy/topaz/pkg/types"
)

// DanglingPolicy decides what Complete does with an is_a edge whose parent
// is not in the graph.
type DanglingPolicy int

const (
	// DanglingError fails completion with an UnresolvedParentError.
	DanglingError DanglingPolicy = iota

	// DanglingRoot ignores the missing parent. A term left with no
	// resolvable parent is treated as a root.
	DanglingRoot
)

// Option configures a Graph.
type Option func(*Graph)

// WithDanglingPolicy sets how unresolved parents are handled.
func WithDanglingPolicy(p DanglingPolicy) Option {
	return func(g *Graph) { g.policy = p }
}

// Graph is the GO term DAG. It is built single-threaded with Add and
// Complete; after Complete it is safe for concurrent readers.
type Graph struct {
	terms     map[string]*types.Term
	alt       map[string]string // alternate id -> canonical id
	policy    DanglingPolicy
	completed bool
}

// NewGraph returns an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		terms: make(map[string]*types.Term, initialTerms),
		alt:   make(map[string]string),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Add inserts a term. Derived fields (Children, Level, Depth) on t are
// discarded and recomputed by Complete.
func (g *Graph) Add(t types.Term) error {
	if t.ID == "" {
		return ErrMissingID
	}
	if _, ok := g.terms[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTerm, t.ID)
	}

	t.Children = nil
	t.Level, t.Depth = 0, 0
	g.terms[t.ID] = &t
	for _, a := range t.AltIDs {
		g.alt[a] = t.ID
	}
	g.completed = false
	return nil
}

// Len returns the number of terms.
func (g *Graph) Len() int { return len(g.terms) }

// Canonical maps id, which may be an alternate id, to the id of the term it
// names.
func (g *Graph) Canonical(id string) (string, bool) {
	if _, ok := g.terms[id]; ok {
		return id, true
	}
	c, ok := g.alt[id]
	return c, ok
}

// Contains reports whether id (or an alternate id) names a term.
func (g *Graph) Contains(id string) bool {
	_, ok := g.Canonical(id)
	return ok
}

// Get returns the term named by id or one of its alternate ids.
func (g *Graph) Get(id string) (types.Term, bool) {
	t := g.lookup(id)
	if t == nil {
		return types.Term{}, false
	}
	return *t, true
}

// Terms returns all terms sorted by id.
func (g *Graph) Terms() []types.Term {
	out := make([]types.Term, 0, len(g.terms))
	for _, id := range g.sortedIDs() {
		out = append(out, *g.terms[id])
	}
	return out
}

func (g *Graph) lookup(id string) *types.Term {
	if t, ok := g.terms[id]; ok {
		return t
	}
	if c, ok := g.alt[id]; ok {
		return g.terms[c]
	}
	return nil
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.terms))
	for id := range g.terms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Complete builds the children index and computes level and depth for
// every term. It returns an UnresolvedParentError (DanglingError policy) or
// a CycleError without leaving partial results marked complete. Calling it
// again without intervening Adds is a no-op.
func (g *Graph) Complete() error {
	if g.completed {
		return nil
	}

	ids := g.sortedIDs()
	if err := g.buildChildren(ids); err != nil {
		return err
	}

	for _, id := range ids {
		t := g.terms[id]
		t.Level, t.Depth = 0, 0
	}
	for _, id := range ids {
		if err := g.computeLayers(g.terms[id]); err != nil {
			return err
		}
	}

	g.completed = true
	return nil
}

func (g *Graph) buildChildren(ids []string) error {
	for _, id := range ids {
		g.terms[id].Children = nil
	}
	for _, id := range ids {
		t := g.terms[id]
		for _, pid := range t.Parents {
			p := g.lookup(pid)
			if p == nil {
				if g.policy == DanglingError {
					return &UnresolvedParentError{TermID: t.ID, ParentID: pid}
				}
				continue
			}
			p.Children = append(p.Children, t.ID)
		}
	}
	for _, id := range ids {
		sort.Strings(g.terms[id].Children)
	}
	return nil
}

// parentsOf returns the resolvable parents of t, deduplicated after alt-id
// resolution.
func (g *Graph) parentsOf(t *types.Term) []*types.Term {
	out := make([]*types.Term, 0, len(t.Parents))
	for _, pid := range t.Parents {
		p := g.lookup(pid)
		if p == nil {
			continue
		}
		dup := false
		for _, q := range out {
			if q == p {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

type layerFrame struct {
	term    *types.Term
	parents []*types.Term
	next    int
}

// computeLayers fills Level and Depth for start and all of its ancestors
// using an explicit stack. A term is "visiting" while it is on the stack;
// reaching a visiting term again means an is_a cycle.
func (g *Graph) computeLayers(start *types.Term) error {
	if start.Level != 0 {
		return nil
	}

	visiting := map[string]bool{start.ID: true}
	stack := []*layerFrame{{term: start, parents: g.parentsOf(start)}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]

		if f.next < len(f.parents) {
			p := f.parents[f.next]
			f.next++
			if p.Level != 0 {
				continue
			}
			if visiting[p.ID] {
				return &CycleError{TermID: p.ID, Path: cyclePath(stack, p.ID)}
			}
			visiting[p.ID] = true
			stack = append(stack, &layerFrame{term: p, parents: g.parentsOf(p)})
			continue
		}

		level, depth := 1, 1
		if len(f.parents) > 0 {
			minLevel, maxDepth := f.parents[0].Level, f.parents[0].Depth
			for _, p := range f.parents[1:] {
				minLevel = min(minLevel, p.Level)
				maxDepth = max(maxDepth, p.Depth)
			}
			level, depth = minLevel+1, maxDepth+1
		}
		f.term.Level, f.term.Depth = level, depth

		delete(visiting, f.term.ID)
		stack = stack[:len(stack)-1]
	}
	return nil
}

// cyclePath returns the ids from the first frame holding id to the top of
// the stack, closed with id.
func cyclePath(stack []*layerFrame, id string) []string {
	var path []string
	for i, f := range stack {
		if f.term.ID == id {
			for _, fr := range stack[i:] {
				path = append(path, fr.term.ID)
			}
			break
		}
	}
	return append(path, id)
}

// Stats summarizes a completed graph.
type Stats struct {
	Terms      int                    `json:"terms" yaml:"terms"`
	Obsolete   int                    `json:"obsolete" yaml:"obsolete"`
	Roots      int                    `json:"roots" yaml:"roots"`
	MaxDepth   int                    `json:"max_depth" yaml:"max_depth"`
	ByCategory map[types.Category]int `json:"by_category" yaml:"by_category"`
	ByLevel    map[int]int            `json:"by_level" yaml:"by_level"`
}

// Stats counts terms per category and per level. Obsolete terms are
// counted in Obsolete only.
func (g *Graph) Stats() Stats {
	s := Stats{
		ByCategory: make(map[types.Category]int),
		ByLevel:    make(map[int]int),
	}
	for _, t := range g.terms {
		s.Terms++
		if t.Obsolete {
			s.Obsolete++
			continue
		}
		if len(g.parentsOf(t)) == 0 {
			s.Roots++
		}
		s.ByCategory[t.Category]++
		s.ByLevel[t.Level]++
		s.MaxDepth = max(s.MaxDepth, t.Depth)
	}
	return s
}
