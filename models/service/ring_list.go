package service

import (
	"sync"
)

// RingList is a circular list of strings with a set capacity. The
// alert publisher uses it to remember which violations it has
// already announced, so that the same tampering found on every sweep
// produces one alert rather than one per sweep.
//
// RingList is safe to share across goroutines.
type RingList struct {
	capacity int
	index    int
	items    []string
	mutex    sync.RWMutex
}

// NewRingList creates a new RingList with the specified capacity.
// Capacity must be at least one.
func NewRingList(capacity int) *RingList {
	if capacity < 1 {
		capacity = 1
	}
	return &RingList{
		capacity: capacity,
		index:    -1,
		items:    make([]string, capacity),
	}
}

// Add adds an item to the RingList. If capacity is ten, then
// the eleventh item you add overwrites item #1.
func (list *RingList) Add(item string) {
	list.mutex.Lock()
	list.add(item)
	list.mutex.Unlock()
}

// AddIfAbsent adds item unless it is already present. It returns
// true if the item was added. The check and the add happen under
// one lock, so two goroutines racing on the same item cannot both
// see true.
func (list *RingList) AddIfAbsent(item string) bool {
	if item == "" {
		return false
	}
	list.mutex.Lock()
	defer list.mutex.Unlock()
	if list.contains(item) {
		return false
	}
	list.add(item)
	return true
}

// Contains returns true if the item is in the RingList.
func (list *RingList) Contains(item string) bool {
	if item == "" {
		return false
	}
	list.mutex.RLock()
	defer list.mutex.RUnlock()
	return list.contains(item)
}

// Del deletes all instances of the item from the list,
// replacing those instances with an empty string.
func (list *RingList) Del(item string) {
	if item == "" {
		return
	}
	list.mutex.Lock()
	for i, value := range list.items {
		if value == item {
			list.items[i] = ""
		}
	}
	list.mutex.Unlock()
}

// Len returns the number of non-empty slots.
func (list *RingList) Len() int {
	list.mutex.RLock()
	defer list.mutex.RUnlock()
	count := 0
	for _, value := range list.items {
		if value != "" {
			count++
		}
	}
	return count
}

func (list *RingList) add(item string) {
	list.index++
	if list.index == list.capacity {
		list.index = 0
	}
	list.items[list.index] = item
}

func (list *RingList) contains(item string) bool {
	for _, value := range list.items {
		if value == item {
			return true
		}
	}
	return false
}
