package detect

import (
	"sort"

	"github.com/glyphtech/symscan/internal/utils"
)

// Suppress performs greedy non-maximum suppression over parallel box
// and score slices and returns the indices of the kept entries, in
// descending score order. Ties are broken by original index so the
// result is stable across runs.
func Suppress(boxes []utils.Box, scores []float64, iouThreshold float64) []int {
	n := len(boxes)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if scores[order[i]] != scores[order[j]] {
			return scores[order[i]] > scores[order[j]]
		}
		return order[i] < order[j]
	})

	suppressed := make([]bool, n)
	kept := make([]int, 0, n)
	for _, a := range order {
		if suppressed[a] {
			continue
		}
		kept = append(kept, a)
		for _, b := range order {
			if suppressed[b] || a == b {
				continue
			}
			if IoU(boxes[a], boxes[b]) > iouThreshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}

// SuppressDetections applies Suppress to a detection slice and returns
// the surviving detections in descending score order.
func SuppressDetections(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) <= 1 {
		return dets
	}
	boxes := make([]utils.Box, len(dets))
	scores := make([]float64, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
		scores[i] = d.Score
	}
	kept := Suppress(boxes, scores, iouThreshold)
	out := make([]Detection, 0, len(kept))
	for _, i := range kept {
		out = append(out, dets[i])
	}
	return out
}
