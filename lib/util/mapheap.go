// Package util
//
// This file provides a keyed priority queue used to order pending deadlines.
//
// The implementation combines a binary heap with a hash map so that the
// earliest deadline can be found in O(1), and a single entry can be removed
// by its key in O(log n). The manual scheduler of the timer package keeps one
// item per pending timer: the key is the timer id, the priority is the
// deadline. Canceling a timer is a RemoveByKey, firing due timers is a loop of
// Peek and PopMin.
//
// Ordering:
//   - Items are ordered by Priority (min-heap)
//   - Items with equal Priority are ordered by Key, so keys handed out in
//     increasing order pop in insertion order
//
// Concurrency Considerations:
//   - Note: This implementation is not thread-safe
//   - For concurrent use, external synchronization should be applied
//
// Example usage:
//
//	// Create a new queue
//	deadlines := NewMapHeap()
//
//	// Add items with ids and deadlines
//	deadlines.AddItem(1, 1500)
//	deadlines.AddItem(2, 900)
//
//	// Cancel a specific item
//	deadlines.RemoveByKey(1)
//
//	// Process items in priority order
//	for deadlines.Len() > 0 {
//	    next := deadlines.PopMin()
//	    // ...
//	}
package util

import (
	"container/heap"
	"strconv"
)

// Item is a single entry of the MapHeap
type Item struct {
	Key      uint64 // Unique identifier for the item
	Priority uint64 // Priority used for ordering in the heap (lower first)
	index    int    // Index in the heap, maintained by heap package
}

func (i *Item) String() string {
	return "{Key: " + strconv.FormatUint(i.Key, 10) + ", Priority: " + strconv.FormatUint(i.Priority, 10) + "}"
}

// MapHeap implements a min priority queue with key-based access
type MapHeap struct {
	items    []*Item          // The actual heap slice
	itemsMap map[uint64]*Item // Map for O(1) access by key
}

// NewMapHeap creates a new, initialized queue
func NewMapHeap() *MapHeap {
	mh := &MapHeap{
		items:    make([]*Item, 0),
		itemsMap: make(map[uint64]*Item),
	}
	heap.Init(mh)
	return mh
}

// Len returns the number of items in the queue (part of heap.Interface)
func (mh *MapHeap) Len() int { return len(mh.items) }

// Less compares items by priority, then by key (part of heap.Interface)
func (mh *MapHeap) Less(i, j int) bool {
	if mh.items[i].Priority == mh.items[j].Priority {
		return mh.items[i].Key < mh.items[j].Key
	}
	return mh.items[i].Priority < mh.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (mh *MapHeap) Swap(i, j int) {
	mh.items[i], mh.items[j] = mh.items[j], mh.items[i]
	mh.items[i].index = i
	mh.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface, use AddItem instead)
func (mh *MapHeap) Push(x interface{}) {
	n := len(mh.items)
	item := x.(*Item)
	item.index = n
	mh.items = append(mh.items, item)
	mh.itemsMap[item.Key] = item
}

// Pop removes and returns the last item (part of heap.Interface, use PopMin instead)
func (mh *MapHeap) Pop() interface{} {
	old := mh.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // Avoid memory leak
	item.index = -1 // For safety
	mh.items = old[:n-1]
	delete(mh.itemsMap, item.Key)
	return item
}

// AddItem adds a new item to the queue or updates the priority of an existing one
func (mh *MapHeap) AddItem(key, priority uint64) {
	// Check if item already exists
	if item, exists := mh.itemsMap[key]; exists {
		item.Priority = priority
		heap.Fix(mh, item.index)
		return
	}

	heap.Push(mh, &Item{
		Key:      key,
		Priority: priority,
	})
}

// RemoveByKey removes an item by its key and returns its priority
func (mh *MapHeap) RemoveByKey(key uint64) (uint64, bool) {
	item, exists := mh.itemsMap[key]
	if !exists {
		return 0, false
	}

	heap.Remove(mh, item.index)
	return item.Priority, true
}

// Peek returns the minimum item without removing it
func (mh *MapHeap) Peek() (*Item, bool) {
	if len(mh.items) == 0 {
		return nil, false
	}
	return mh.items[0], true
}

// PopMin removes and returns the minimum item, nil if the queue is empty
func (mh *MapHeap) PopMin() *Item {
	if len(mh.items) == 0 {
		return nil
	}
	return heap.Pop(mh).(*Item)
}

// Contains checks if a key exists in the queue
func (mh *MapHeap) Contains(key uint64) bool {
	_, exists := mh.itemsMap[key]
	return exists
}

// GetByKey retrieves an item by its key without removing it
func (mh *MapHeap) GetByKey(key uint64) (*Item, bool) {
	item, exists := mh.itemsMap[key]
	return item, exists
}
