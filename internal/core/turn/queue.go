package turn

import (
	"container/heap"

	"github.com/deepdelve/roguecore/internal/core/ecs"
)

// queue is a min-heap of ActorTime with an id index for upsert and removal.
type queue struct {
	items []ActorTime
	index map[ecs.EntityID]int
}

func newQueue() *queue {
	return &queue{index: make(map[ecs.EntityID]int)}
}

func (q *queue) Len() int           { return len(q.items) }
func (q *queue) Less(i, j int) bool { return q.items[i].before(q.items[j]) }

func (q *queue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.index[q.items[i].ActorID] = i
	q.index[q.items[j].ActorID] = j
}

func (q *queue) Push(x any) {
	at := x.(ActorTime)
	q.index[at.ActorID] = len(q.items)
	q.items = append(q.items, at)
}

func (q *queue) Pop() any {
	n := len(q.items) - 1
	at := q.items[n]
	q.items = q.items[:n]
	delete(q.index, at.ActorID)
	return at
}

func (q *queue) upsert(at ActorTime) {
	if i, ok := q.index[at.ActorID]; ok {
		q.items[i] = at
		heap.Fix(q, i)
		return
	}
	heap.Push(q, at)
}

func (q *queue) remove(id ecs.EntityID) bool {
	i, ok := q.index[id]
	if !ok {
		return false
	}
	heap.Remove(q, i)
	return true
}

func (q *queue) get(id ecs.EntityID) (ActorTime, bool) {
	i, ok := q.index[id]
	if !ok {
		return ActorTime{}, false
	}
	return q.items[i], true
}

func (q *queue) peek() (ActorTime, bool) {
	if len(q.items) == 0 {
		return ActorTime{}, false
	}
	return q.items[0], true
}
