package framegraph

import (
	"errors"
	"fmt"
)

// ErrCyclicGraph is returned when the expanded passes form a dependency
// cycle. A cycle is a template configuration bug, never a runtime
// condition: the caller keeps its previous graph and decides what to do.
var ErrCyclicGraph = errors.New("cyclic pass dependency")

// Compile expands the registered templates against a topology snapshot
// into a deterministically sorted pass schedule with derived barriers.
//
// Expansion instantiates each template once per scope instance, in
// registration order. Edges run from a key's writer to every pass that
// touches that key; write-write pairs order by expansion. The sort is
// Kahn's algorithm with the ready set drained in ascending expansion
// order, so identical inputs always produce an identical schedule.
//
// Parameters:
//   - reg: the template registry
//   - ctx: the topology snapshot
//
// Returns:
//   - *Graph: the compiled schedule
//   - error: ErrCyclicGraph if the templates form a dependency cycle
func Compile(reg Registry, ctx *CompileContext) (*Graph, error) {
	passes := expand(reg, ctx)

	edges := buildEdges(passes)

	sorted, err := sortPasses(passes, edges)
	if err != nil {
		return nil, err
	}

	deriveBarriers(sorted, ctx)

	framesInFlight := ctx.FramesInFlight
	if framesInFlight == 0 {
		framesInFlight = 1
	}
	return &Graph{passes: sorted, framesInFlight: framesInFlight}, nil
}

// expand instantiates every template once per active scope instance and
// substitutes references into resolved keys.
func expand(reg Registry, ctx *CompileContext) []*Pass {
	var passes []*Pass
	for _, t := range reg.Templates() {
		count := ctx.instanceCount(t.scope)
		for scopeIndex := uint32(0); scopeIndex < count; scopeIndex++ {
			if t.condition != nil && !t.condition(ctx, scopeIndex) {
				continue
			}
			p := &Pass{
				Template:   t,
				ScopeIndex: scopeIndex,
				declIndex:  len(passes),
			}
			for _, ref := range t.refs {
				key := ResolvedKey{
					Kind:       ref.Kind,
					Offset:     ref.Offset,
					ScopeIndex: scopeIndex,
				}
				if ref.Addressing == AddrFixed {
					key.ScopeIndex = ref.FixedIndex
				}
				if ref.Writes() {
					p.writes = append(p.writes, key)
				}
				if ref.Reads() {
					p.reads = append(p.reads, key)
				}
			}
			passes = append(passes, p)
		}
	}
	return passes
}

// buildEdges derives the conflict partial order: two writers order by
// expansion, a writer precedes its readers. Every rule that fires on a
// pair contributes its edge, so a pair whose conflicts pull in both
// directions produces a cycle and fails the sort instead of silently
// dropping one ordering.
func buildEdges(passes []*Pass) map[int][]int {
	edges := make(map[int][]int)
	seen := make(map[[2]int]bool)
	addEdge := func(from, to int) {
		if seen[[2]int{from, to}] {
			return
		}
		seen[[2]int{from, to}] = true
		edges[from] = append(edges[from], to)
	}

	for i := 0; i < len(passes); i++ {
		for j := i + 1; j < len(passes); j++ {
			a, b := passes[i], passes[j]
			if keysOverlap(a.writes, b.writes) {
				addEdge(i, j)
			}
			if keysOverlap(a.writes, b.reads) {
				addEdge(i, j)
			}
			if keysOverlap(b.writes, a.reads) {
				addEdge(j, i)
			}
		}
	}
	return edges
}

// keysOverlap reports whether the two key sets share any resolved key.
// Key sets are small, a few refs per pass, so the scan beats a map.
func keysOverlap(a, b []ResolvedKey) bool {
	for _, ka := range a {
		for _, kb := range b {
			if ka == kb {
				return true
			}
		}
	}
	return false
}

// sortPasses runs Kahn's algorithm, draining the ready set in ascending
// expansion order for byte-identical schedules across compiles.
func sortPasses(passes []*Pass, edges map[int][]int) ([]*Pass, error) {
	indegree := make([]int, len(passes))
	for _, targets := range edges {
		for _, to := range targets {
			indegree[to]++
		}
	}

	done := make([]bool, len(passes))
	sorted := make([]*Pass, 0, len(passes))
	for len(sorted) < len(passes) {
		next := -1
		for i := range passes {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, fmt.Errorf("%w: %d of %d passes unschedulable", ErrCyclicGraph, len(passes)-len(sorted), len(passes))
		}
		done[next] = true
		sorted = append(sorted, passes[next])
		for _, to := range edges[next] {
			indegree[to]--
		}
	}
	return sorted, nil
}
