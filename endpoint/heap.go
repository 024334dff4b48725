package endpoint

import (
	"container/heap"
	"time"
)

// Element is one endpoint inside the scoring heap. Index tracks the heap
// slot so heap.Fix can reorder after a score update.
type Element struct {
	Endpoint   *Endpoint
	LastUsedAt time.Time
	Score      int
	Index      int
}

func (e *Element) UpdateScore(algo ScoreAlgo) {
	now := time.Now().Unix()
	lastUsedAgo := now - e.LastUsedAt.Unix()
	e.Score = algo.CalculateScore(e.Endpoint, lastUsedAgo)
}

type Heap struct {
	elements []*Element
	algo     ScoreAlgo
}

func NewHeap(elements []*Element, algo ScoreAlgo) *Heap {
	h := &Heap{elements: elements, algo: algo}
	for i, elem := range h.elements {
		elem.Index = i
		elem.UpdateScore(algo)
	}
	heap.Init(h)
	return h
}

func (h *Heap) Len() int { return len(h.elements) }

// Max-heap: higher Score is better
func (h *Heap) Less(i, j int) bool {
	return h.elements[i].Score > h.elements[j].Score
}

func (h *Heap) Swap(i, j int) {
	h.elements[i], h.elements[j] = h.elements[j], h.elements[i]
	h.elements[i].Index = i
	h.elements[j].Index = j
}

func (h *Heap) Push(x any) {
	n := len(h.elements)
	item := x.(*Element)
	item.Index = n
	h.elements = append(h.elements, item)
}

func (h *Heap) Pop() any {
	n := len(h.elements)
	if n == 0 {
		return nil
	}
	item := h.elements[n-1]
	h.elements = h.elements[:n-1]
	return item
}

// Peek returns the current best element without removing it.
func (h *Heap) Peek() *Element {
	if len(h.elements) == 0 {
		return nil
	}
	return h.elements[0]
}

// Fix re-scores one element and restores heap order.
func (h *Heap) Fix(e *Element) {
	e.UpdateScore(h.algo)
	heap.Fix(h, e.Index)
}
