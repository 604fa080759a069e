package utils

import (
	"cmp"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

const (
	defaultQueuePrealloc = 8192
)

// MergeCand is a queued merge candidate. Count is a snapshot taken when the candidate was
// pushed, so an entry may be stale by the time it is popped.
type MergeCand struct {
	Left  string
	Right string
	Count int64
}

// compareCand puts the highest count first; equal counts fall back to the smaller pair.
func compareCand(a, b MergeCand) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Left, b.Left); c != 0 {
		return c
	}
	return cmp.Compare(a.Right, b.Right)
}

// MergeHeap is a max-priority queue of merge candidates ordered by count, then pair.
type MergeHeap struct {
	items *binaryheap.Heap[MergeCand]
}

func NewMergeHeap() *MergeHeap {
	return &MergeHeap{items: binaryheap.NewWith(compareCand)}
}

func (h *MergeHeap) Len() int {
	return h.items.Size()
}

func (h *MergeHeap) Push(c MergeCand) {
	h.items.Push(c)
}

// PushAll adds many candidates at once and heapifies in bulk.
func (h *MergeHeap) PushAll(cs []MergeCand) {
	if len(cs) == 0 {
		return
	}
	h.items.Push(cs...)
}

func (h *MergeHeap) Pop() (MergeCand, bool) {
	return h.items.Pop()
}

// Candidates preallocates a slice sized for seeding a heap.
func Candidates(n int) []MergeCand {
	if n < defaultQueuePrealloc {
		n = defaultQueuePrealloc
	}
	return make([]MergeCand, 0, n)
}
