package util

import (
	"sort"
	"testing"
)

// TestNewMapHeap tests the creation of a new MapHeap
func TestNewMapHeap(t *testing.T) {
	mh := NewMapHeap()

	if mh == nil {
		t.Fatal("NewMapHeap() returned nil")
	}

	if mh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", mh.Len())
	}

	if len(mh.itemsMap) != 0 {
		t.Errorf("New heap's map should be empty, but has %d items", len(mh.itemsMap))
	}

	if mh.PopMin() != nil {
		t.Error("PopMin on empty heap should return nil")
	}
}

// TestAddItem tests adding items to the heap
func TestAddItem(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 50)

	if mh.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", mh.Len())
	}

	for _, key := range []uint64{1, 2, 3} {
		if !mh.Contains(key) {
			t.Errorf("Heap should contain key %d", key)
		}
	}

	// min heap, so the lowest priority should be first
	item, exists := mh.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}

	if item.Key != 3 || item.Priority != 50 {
		t.Errorf("Expected min item to be (3,50), got %s", item)
	}
}

// TestUpdateItem tests updating existing items
func TestUpdateItem(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(1, 300)

	item, exists := mh.GetByKey(1)
	if !exists {
		t.Fatal("Item with key 1 should exist")
	}

	if item.Priority != 300 {
		t.Errorf("Item with key 1 should have priority 300, got %d", item.Priority)
	}

	min, _ := mh.Peek()
	if min.Key != 2 {
		t.Errorf("Min item should now be key 2, got %d", min.Key)
	}
}

// TestRemoveByKey tests removing items by key
func TestRemoveByKey(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 300)

	priority, exists := mh.RemoveByKey(2)
	if !exists {
		t.Fatal("RemoveByKey should return true for existing key")
	}

	if priority != 200 {
		t.Errorf("RemoveByKey should return priority 200, got %d", priority)
	}

	if mh.Len() != 2 {
		t.Errorf("Heap should have 2 items after removal, has %d", mh.Len())
	}

	if mh.Contains(2) {
		t.Error("Heap should not contain key 2 after removal")
	}

	if _, exists = mh.RemoveByKey(99); exists {
		t.Error("RemoveByKey should return false for non-existent key")
	}
}

// TestPopOrder tests if items are popped in correct order
func TestPopOrder(t *testing.T) {
	mh := NewMapHeap()

	items := []struct {
		key      uint64
		priority uint64
	}{
		{5, 50},
		{3, 30},
		{1, 10},
		{4, 40},
		{2, 20},
	}

	for _, item := range items {
		mh.AddItem(item.key, item.priority)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].priority < items[j].priority
	})

	for i, expected := range items {
		item := mh.PopMin()
		if item == nil {
			t.Fatalf("Heap empty after %d items, expected %d items", i, len(items))
		}
		if item.Key != expected.key || item.Priority != expected.priority {
			t.Errorf("Pop %d: expected (%d,%d), got %s", i, expected.key, expected.priority, item)
		}
	}

	if mh.Len() != 0 {
		t.Errorf("Heap should be empty after popping all items, has %d items", mh.Len())
	}
}

// TestEqualPriorityOrder tests that equal priorities pop in key order
func TestEqualPriorityOrder(t *testing.T) {
	mh := NewMapHeap()

	for _, key := range []uint64{7, 3, 9, 1, 5} {
		mh.AddItem(key, 42)
	}

	expected := []uint64{1, 3, 5, 7, 9}
	for i, key := range expected {
		item := mh.PopMin()
		if item.Key != key {
			t.Errorf("Pop %d: expected key %d, got %d", i, key, item.Key)
		}
	}
}

// TestGetByKey tests retrieving items by key
func TestGetByKey(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)

	item, exists := mh.GetByKey(1)
	if !exists {
		t.Fatal("GetByKey should find existing key")
	}

	if item.Key != 1 || item.Priority != 100 {
		t.Errorf("GetByKey returned incorrect item: expected (1,100), got %s", item)
	}

	if _, exists = mh.GetByKey(99); exists {
		t.Error("GetByKey should return exists=false for non-existent key")
	}
}

// TestLargeNumberOfItems tests heap order with many interleaved removals
func TestLargeNumberOfItems(t *testing.T) {
	mh := NewMapHeap()

	const n = 1000
	for i := uint64(0); i < n; i++ {
		// spread priorities so insertion order differs from heap order
		mh.AddItem(i, (i*7919)%n)
	}

	// remove every third item
	for i := uint64(0); i < n; i += 3 {
		mh.RemoveByKey(i)
	}

	var last uint64
	count := 0
	for mh.Len() > 0 {
		item := mh.PopMin()
		if count > 0 && item.Priority < last {
			t.Fatalf("Heap order violated: %d after %d", item.Priority, last)
		}
		last = item.Priority
		count++
	}

	if expected := n - (n+2)/3; count != expected {
		t.Errorf("Expected %d items, got %d", expected, count)
	}
}
