package embedding

import (
	"math"
	"sort"
)

// Index is an immutable brute-force nearest-neighbour index over Euclidean
// (L2) distance. Position i in the index corresponds exactly to position i in
// the vector slice it was built from.
type Index struct {
	vectors [][]float32
}

// NewIndex builds an index over vectors. An empty input yields an index whose
// searches return no neighbours.
func NewIndex(vectors [][]float32) *Index {
	items := make([][]float32, len(vectors))
	for i, v := range vectors {
		items[i] = append([]float32(nil), v...)
	}
	return &Index{vectors: items}
}

// Size returns the number of indexed vectors.
func (ix *Index) Size() int {
	return len(ix.vectors)
}

// Search returns the positions of the k nearest vectors to query, ordered by
// ascending L2 distance. Equal distances keep index-build order. Fewer than k
// positions are returned when the index is smaller than k.
func (ix *Index) Search(query []float32, k int) []int {
	if len(ix.vectors) == 0 || len(query) == 0 || k <= 0 {
		return nil
	}

	type hit struct {
		pos  int
		dist float64
	}

	hits := make([]hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = hit{pos: i, dist: l2Distance(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].dist < hits[j].dist
	})

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = hits[i].pos
	}
	return out
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Unmatched tail counts in full so that dimension mismatches rank last
	// rather than spuriously close.
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}
