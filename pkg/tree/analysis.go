package tree

import (
	"math"
	"slices"

	"github.com/aretw0/shindan/pkg/domain"
)

// Step is one answered question on a path.
type Step struct {
	NodeID      string `json:"node_id"`
	AnswerIndex int    `json:"answer_index"`
	NextID      string `json:"next_id"`
}

// Path is a walk from the entry point to a Result.
type Path struct {
	Steps    []Step `json:"steps"`
	ResultID string `json:"result_id"`
}

// Indices returns the answer indices that replay the path.
func (p Path) Indices() []int {
	idx := make([]int, len(p.Steps))
	for i, s := range p.Steps {
		idx[i] = s.AnswerIndex
	}
	return idx
}

// Reachable returns the IDs reachable from the entry point (entry included), in BFS order.
// Dangling answers are skipped.
func (t *Tree) Reachable() []string {
	visited := map[string]bool{t.entry: true}
	queue := []string{t.entry}
	var order []string

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		order = append(order, currentID)

		q, ok := t.question(currentID)
		if !ok {
			continue
		}
		for _, a := range q.Answers {
			if _, exists := t.nodes[a.NextID]; !exists || visited[a.NextID] {
				continue
			}
			visited[a.NextID] = true
			queue = append(queue, a.NextID)
		}
	}
	return order
}

// Unreachable returns the IDs that cannot be reached from the entry point, in declaration order.
// Validate does not report these; this is a content-quality audit.
func (t *Tree) Unreachable() []string {
	reached := make(map[string]bool, len(t.order))
	for _, id := range t.Reachable() {
		reached[id] = true
	}

	var out []string
	for _, id := range t.order {
		if !reached[id] {
			out = append(out, id)
		}
	}
	return out
}

// Cycles returns every distinct cycle in the graph. Each cycle is rotated so that its
// smallest ID comes first, and the list is sorted for deterministic output.
func (t *Tree) Cycles() [][]string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(t.order))
	seen := make(map[string]bool)
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		stack = append(stack, id)

		if q, ok := t.question(id); ok {
			for _, a := range q.Answers {
				if _, exists := t.nodes[a.NextID]; !exists {
					continue
				}
				switch color[a.NextID] {
				case white:
					visit(a.NextID)
				case grey:
					start := slices.Index(stack, a.NextID)
					cycle := canonicalCycle(stack[start:])
					key := joinKey(cycle)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range t.order {
		if color[id] == white {
			visit(id)
		}
	}

	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles
}

// Depth returns the largest number of questions asked on any walk from the entry point
// to a Result. It returns -1 when a cycle is reachable, since the depth is then unbounded.
// No maximum depth is assumed or enforced.
func (t *Tree) Depth() int {
	const inProgress = -2
	memo := make(map[string]int)

	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := memo[id]; ok {
			if d == inProgress {
				return -1
			}
			return d
		}
		q, ok := t.question(id)
		if !ok {
			memo[id] = 0
			return 0
		}

		memo[id] = inProgress
		best := 0
		for _, a := range q.Answers {
			if _, exists := t.nodes[a.NextID]; !exists {
				continue
			}
			d := depth(a.NextID)
			if d < 0 {
				memo[id] = -1
				return -1
			}
			best = max(best, d)
		}
		memo[id] = best + 1
		return best + 1
	}

	return depth(t.entry)
}

// Paths enumerates every walk from the entry point to a Result.
// Answers that loop back into the current walk, or that dangle, are skipped, so the
// enumeration terminates on any tree.
func (t *Tree) Paths() []Path {
	var paths []Path
	onPath := map[string]bool{}
	var steps []Step

	var walk func(id string)
	walk = func(id string) {
		n := t.nodes[id]
		if r, ok := n.(*domain.Result); ok {
			paths = append(paths, Path{Steps: slices.Clone(steps), ResultID: r.ID})
			return
		}
		q := n.(*domain.Question)

		onPath[id] = true
		for i, a := range q.Answers {
			if _, exists := t.nodes[a.NextID]; !exists || onPath[a.NextID] {
				continue
			}
			steps = append(steps, Step{NodeID: id, AnswerIndex: i, NextID: a.NextID})
			walk(a.NextID)
			steps = steps[:len(steps)-1]
		}
		onPath[id] = false
	}

	walk(t.entry)
	return paths
}

// CountPaths returns the number of walks from the entry point to a Result without
// enumerating them, in O(nodes + answers). It equals len(Paths()) on an acyclic tree.
// Back edges found by the depth-first search are skipped. The count saturates at math.MaxInt.
func (t *Tree) CountPaths() int {
	const inProgress = -1
	memo := make(map[string]int, len(t.order))

	var count func(id string) int
	count = func(id string) int {
		if c, ok := memo[id]; ok {
			return c
		}
		q, ok := t.question(id)
		if !ok {
			memo[id] = 1
			return 1
		}

		memo[id] = inProgress
		total := 0
		for _, a := range q.Answers {
			if _, exists := t.nodes[a.NextID]; !exists {
				continue
			}
			c := count(a.NextID)
			if c == inProgress {
				continue
			}
			if total > math.MaxInt-c {
				total = math.MaxInt
				continue
			}
			total += c
		}
		memo[id] = total
		return total
	}

	return count(t.entry)
}

func canonicalCycle(c []string) []string {
	minIdx := 0
	for i, id := range c {
		if id < c[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(c))
	out = append(out, c[minIdx:]...)
	out = append(out, c[:minIdx]...)
	return out
}

func joinKey(ids []string) string {
	key := ""
	for _, id := range ids {
		key += id + "\x00"
	}
	return key
}
