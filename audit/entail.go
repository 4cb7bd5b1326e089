package audit

import (
	"sweeplogic/knowledge"
)

// DefaultSegmentLimit bounds the unknown squares enumerated per segment.
// Larger segments are skipped rather than explored.
const DefaultSegmentLimit = 18

// EntailmentReport compares what a knowledge base concluded with what its
// observations actually force.
type EntailmentReport struct {
	Segments       int              `json:"segments"`
	Skipped        int              `json:"skipped"`
	Contradictions int              `json:"contradictions"`
	Unsound        []knowledge.Cell `json:"unsound,omitempty"` // concluded but not forced
	Missed         []knowledge.Cell `json:"missed,omitempty"`  // forced but not concluded
}

// Sound reports whether every conclusion checked was forced and the
// observations admitted at least one layout.
func (r EntailmentReport) Sound() bool {
	return len(r.Unsound) == 0 && r.Contradictions == 0
}

// segment is a connected group of unknown squares and the clues over them.
type segment struct {
	unknowns []knowledge.Cell
	rules    []rule
}

type rule struct {
	cells []int // indexes into unknowns
	mines int
}

// Entailed enumerates every mine layout consistent with the recorded
// observations, segment by segment, and checks the knowledge base's mines and
// safe squares against them. Only observations are used as premises, never
// the knowledge base's own conclusions. limit <= 0 means DefaultSegmentLimit.
func Entailed(kb *knowledge.KnowledgeBase, limit int) EntailmentReport {
	if limit <= 0 {
		limit = DefaultSegmentLimit
	}

	var report EntailmentReport
	for _, seg := range createSegments(kb) {
		report.Segments++
		if len(seg.unknowns) > limit {
			report.Skipped++
			continue
		}

		models, mineCounts := solveSegment(seg)
		if models == 0 {
			report.Contradictions++
			continue
		}

		for i, c := range seg.unknowns {
			forcedMine := mineCounts[i] == models
			forcedSafe := mineCounts[i] == 0

			switch {
			case kb.IsMine(c) && !forcedMine:
				report.Unsound = append(report.Unsound, c)
			case kb.IsSafe(c) && !forcedSafe:
				report.Unsound = append(report.Unsound, c)
			case !kb.IsMine(c) && !kb.IsSafe(c) && (forcedMine || forcedSafe):
				report.Missed = append(report.Missed, c)
			}
		}
	}
	return report
}

// createSegments turns each observation into a rule over its unobserved
// neighbors and groups the unknown squares into connected components.
func createSegments(kb *knowledge.KnowledgeBase) []*segment {
	observations := kb.Observations()
	observed := knowledge.NewCellSet()
	for _, o := range observations {
		observed.Add(o.Cell)
	}

	// 1. clue -> unknown neighbors
	type clue struct {
		cells []knowledge.Cell
		mines int
	}
	var clues []clue
	adj := make(map[knowledge.Cell][]knowledge.Cell)
	for _, o := range observations {
		var unknown []knowledge.Cell
		for _, n := range o.Cell.Neighbors(kb.Height(), kb.Width()) {
			if !observed.Has(n) {
				unknown = append(unknown, n)
			}
		}
		if len(unknown) == 0 {
			continue
		}
		clues = append(clues, clue{cells: unknown, mines: o.Count})

		for i := 0; i < len(unknown); i++ {
			if _, ok := adj[unknown[i]]; !ok {
				adj[unknown[i]] = nil
			}
			for j := i + 1; j < len(unknown); j++ {
				adj[unknown[i]] = append(adj[unknown[i]], unknown[j])
				adj[unknown[j]] = append(adj[unknown[j]], unknown[i])
			}
		}
	}

	// 2. connected components, visited in row-major order for stable output
	starts := make(knowledge.CellSet, len(adj))
	for c := range adj {
		starts.Add(c)
	}

	visited := make(knowledge.CellSet)
	var segments []*segment
	for _, start := range starts.Sorted() {
		if visited.Has(start) {
			continue
		}

		seg := &segment{}
		index := make(map[knowledge.Cell]int)
		queue := []knowledge.Cell{start}
		visited.Add(start)

		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]
			index[curr] = len(seg.unknowns)
			seg.unknowns = append(seg.unknowns, curr)

			for _, n := range adj[curr] {
				if !visited.Has(n) {
					visited.Add(n)
					queue = append(queue, n)
				}
			}
		}

		// every clue lies entirely inside one component
		for _, cl := range clues {
			if _, ok := index[cl.cells[0]]; !ok {
				continue
			}
			r := rule{cells: make([]int, len(cl.cells)), mines: cl.mines}
			for i, c := range cl.cells {
				r.cells[i] = index[c]
			}
			seg.rules = append(seg.rules, r)
		}
		segments = append(segments, seg)
	}
	return segments
}

// solveSegment counts the consistent layouts and, per unknown, how many of
// them put a mine there.
func solveSegment(seg *segment) (models int, mineCounts []int) {
	mineCounts = make([]int, len(seg.unknowns))
	config := make([]bool, len(seg.unknowns))
	backtrack(seg, 0, config, &models, mineCounts)
	return models, mineCounts
}

func backtrack(seg *segment, index int, config []bool, models *int, mineCounts []int) {
	if !isValid(seg, config, index) {
		return
	}
	if index == len(seg.unknowns) {
		*models++
		for i, mine := range config {
			if mine {
				mineCounts[i]++
			}
		}
		return
	}

	config[index] = true
	backtrack(seg, index+1, config, models, mineCounts)

	config[index] = false
	backtrack(seg, index+1, config, models, mineCounts)
}

// isValid checks every rule against the first assigned squares: too many
// mines already, or too few squares left to reach the count, fails.
func isValid(seg *segment, config []bool, assigned int) bool {
	for _, r := range seg.rules {
		mines, open := 0, 0
		for _, idx := range r.cells {
			switch {
			case idx >= assigned:
				open++
			case config[idx]:
				mines++
			}
		}
		if mines > r.mines || mines+open < r.mines {
			return false
		}
	}
	return true
}
