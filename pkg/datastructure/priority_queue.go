package datastructure

type PriorityQueueNode[T comparable] struct {
	Rank float64
	Item T
}

// MinHeap binary heap priority queue with an index map so DecreaseKey works in
// O(logN).
type MinHeap[T comparable] struct {
	heap    []PriorityQueueNode[T]
	itemPos map[T]int
}

func NewMinHeap[T comparable]() *MinHeap[T] {
	return &MinHeap[T]{
		heap:    make([]PriorityQueueNode[T], 0),
		itemPos: make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.itemPos[h.heap[i].Item] = i
	h.itemPos[h.heap[j].Item] = j
}

// heapifyUp maintains the heap property. swap with the parent while the parent
// rank is bigger. O(logN) tree height.
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].Rank < h.heap[h.parent(index)].Rank {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown maintains the heap property. swap with the smallest child, then
// recurse into that child. O(logN) tree height.
func (h *MinHeap[T]) heapifyDown(index int) {
	smallest := index
	left := h.leftChild(index)
	right := h.rightChild(index)

	if left < len(h.heap) && h.heap[left].Rank < h.heap[smallest].Rank {
		smallest = left
	}
	if right < len(h.heap) && h.heap[right].Rank < h.heap[smallest].Rank {
		smallest = right
	}
	if smallest != index {
		h.swap(index, smallest)
		h.heapifyDown(smallest)
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

// GetMin returns the minimum of the min-heap (index 0) without popping it.
func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, false
	}
	return h.heap[0], true
}

func (h *MinHeap[T]) Insert(node PriorityQueueNode[T]) {
	h.heap = append(h.heap, node)
	index := h.Size() - 1
	h.itemPos[node.Item] = index
	h.heapifyUp(index)
}

// ExtractMin pops the minimum of the min-heap (index 0). O(logN).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, false
	}
	root := h.heap[0]
	delete(h.itemPos, root.Item)

	last := h.Size() - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]
	if !h.isEmpty() {
		h.itemPos[h.heap[0].Item] = 0
		h.heapifyDown(0)
	}
	return root, true
}

// DecreaseKey lowers the rank of an already queued item. Inserts the item when
// it is not in the heap.
func (h *MinHeap[T]) DecreaseKey(node PriorityQueueNode[T]) {
	index, ok := h.itemPos[node.Item]
	if !ok {
		h.Insert(node)
		return
	}
	if node.Rank >= h.heap[index].Rank {
		return
	}
	h.heap[index].Rank = node.Rank
	h.heapifyUp(index)
}
