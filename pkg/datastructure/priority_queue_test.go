package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinHeapExtractOrder(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(PriorityQueueNode[int32]{Rank: 5, Item: 5})
	pq.Insert(PriorityQueueNode[int32]{Rank: 1, Item: 1})
	pq.Insert(PriorityQueueNode[int32]{Rank: 3, Item: 3})
	pq.Insert(PriorityQueueNode[int32]{Rank: 2, Item: 2})
	pq.Insert(PriorityQueueNode[int32]{Rank: 4, Item: 4})

	assert.Equal(t, 5, pq.Size())

	prev := -1.0
	for pq.Size() > 0 {
		node, ok := pq.ExtractMin()
		assert.True(t, ok)
		assert.GreaterOrEqual(t, node.Rank, prev)
		prev = node.Rank
	}

	_, ok := pq.ExtractMin()
	assert.False(t, ok)
}

func TestMinHeapDecreaseKey(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(PriorityQueueNode[int32]{Rank: 10, Item: 7})
	pq.Insert(PriorityQueueNode[int32]{Rank: 5, Item: 8})

	pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 1, Item: 7})

	node, ok := pq.GetMin()
	assert.True(t, ok)
	assert.Equal(t, int32(7), node.Item)
	assert.Equal(t, 1.0, node.Rank)

	// increasing the rank is ignored
	pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 100, Item: 7})
	node, _ = pq.GetMin()
	assert.Equal(t, 1.0, node.Rank)

	// unknown item is inserted
	pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 0.5, Item: 9})
	node, _ = pq.GetMin()
	assert.Equal(t, int32(9), node.Item)
}
