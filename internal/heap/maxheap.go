// Package heap keeps the k nearest candidates of a query point.
package heap

// Neighbors is a bounded max-heap over (distance, index) pairs. The worst
// kept candidate sits at the root. Ties on distance are broken by index,
// so the kept set does not depend on insertion order.
type Neighbors struct {
	indices   []int32
	distances []float64
	k         int
}

// New returns an empty heap keeping at most k candidates.
func New(k int) *Neighbors {
	k = max(k, 0)
	return &Neighbors{
		indices:   make([]int32, 0, k),
		distances: make([]float64, 0, k),
		k:         k,
	}
}

// Len returns the number of kept candidates.
func (h *Neighbors) Len() int {
	return len(h.indices)
}

// Full reports whether k candidates are kept.
func (h *Neighbors) Full() bool {
	return len(h.indices) == h.k
}

// worse reports whether slot a ranks after slot b.
func (h *Neighbors) worse(a, b int) bool {
	if h.distances[a] != h.distances[b] {
		return h.distances[a] > h.distances[b]
	}
	return h.indices[a] > h.indices[b]
}

func (h *Neighbors) swap(a, b int) {
	h.distances[a], h.distances[b] = h.distances[b], h.distances[a]
	h.indices[a], h.indices[b] = h.indices[b], h.indices[a]
}

// Push offers a candidate and reports whether it was kept.
func (h *Neighbors) Push(idx int32, dist float64) bool {
	if h.k == 0 {
		return false
	}
	if !h.Full() {
		h.indices = append(h.indices, idx)
		h.distances = append(h.distances, dist)
		h.siftUp(len(h.indices) - 1)
		return true
	}
	if dist > h.distances[0] || (dist == h.distances[0] && idx > h.indices[0]) {
		return false
	}
	h.indices[0] = idx
	h.distances[0] = dist
	h.siftDown(0, len(h.indices))
	return true
}

func (h *Neighbors) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.worse(i, parent) {
			return
		}
		h.swap(i, parent)
		i = parent
	}
}

// siftDown restores the heap property within the first n slots.
func (h *Neighbors) siftDown(i, n int) {
	for {
		largest := i
		for _, child := range [2]int{2*i + 1, 2*i + 2} {
			if child < n && h.worse(child, largest) {
				largest = child
			}
		}
		if largest == i {
			return
		}
		h.swap(i, largest)
		i = largest
	}
}

// Sorted empties the heap into ascending (distance, index) order.
// The heap must not be used afterwards.
func (h *Neighbors) Sorted() ([]int32, []float64) {
	for end := len(h.indices) - 1; end > 0; end-- {
		h.swap(0, end)
		h.siftDown(0, end)
	}
	indices, distances := h.indices, h.distances
	h.indices, h.distances = nil, nil
	return indices, distances
}
