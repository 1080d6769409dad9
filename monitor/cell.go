package monitor

import (
	"sync"
)

// Observable is the read side of a Cell.
type Observable[T any] interface {
	Get() T
	Subscribe() (<-chan T, func())
}

// Cell holds a value with one writer and any number of readers.
// Subscribers get the latest value, not every value: a slow reader
// that misses intermediate updates still sees the most recent one.
type Cell[T any] struct {
	mutex       sync.RWMutex
	value       T
	subscribers map[int]chan T
	nextID      int
	closed      bool
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value:       initial,
		subscribers: make(map[int]chan T),
	}
}

func (c *Cell[T]) Get() T {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.value
}

// Set stores value and offers it to every subscriber, replacing any
// value the subscriber has not yet received.
func (c *Cell[T]) Set(value T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.value = value
	if c.closed {
		return
	}
	for _, ch := range c.subscribers {
		select {
		case ch <- value:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- value
		}
	}
}

// Subscribe returns a channel that immediately holds the current
// value and then receives later ones. Call the returned function to
// unsubscribe; it closes the channel and is safe to call twice.
func (c *Cell[T]) Subscribe() (<-chan T, func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ch := make(chan T, 1)
	ch <- c.value
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subscribers[id] = ch
	return ch, func() { c.unsubscribe(id) }
}

// Close closes every subscriber channel. Set still updates the value
// after Close, but nobody is notified.
func (c *Cell[T]) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
}

func (c *Cell[T]) unsubscribe(id int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if ch, ok := c.subscribers[id]; ok {
		close(ch)
		delete(c.subscribers, id)
	}
}
