package modcheck

import (
	"container/ring"
	"sync"
)

// History keeps track of last N processed messages, thread-safe.
// The oldest record is evicted once the history is full.
type History struct {
	records *ring.Ring
	size    int
	count   int
	lock    sync.RWMutex
}

// NewHistory creates new history with a given capacity
func NewHistory(size int) *History {
	// minimum size is 1
	if size < 1 {
		size = 1
	}
	return &History{
		records: ring.New(size),
		size:    size,
	}
}

// Push adds new record to the history
func (h *History) Push(rec Record) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.records.Value = rec
	h.records = h.records.Next()
	if h.count < h.size {
		h.count++
	}
}

// last returns up to n last records in chronological order (oldest to newest)
func (h *History) last(n int) []Record {
	if n < 1 {
		return []Record{}
	}

	all := h.All()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// All returns all records in chronological order (oldest to newest)
func (h *History) All() []Record {
	h.lock.RLock()
	defer h.lock.RUnlock()

	result := make([]Record, 0, h.count)
	h.records.Do(func(v any) {
		if rec, ok := v.(Record); ok {
			result = append(result, rec)
		}
	})
	return result
}

// ByUser returns all records of the given user in chronological order
func (h *History) ByUser(userID string) []Record {
	res := []Record{}
	for _, rec := range h.All() {
		if rec.UserID == userID {
			res = append(res, rec)
		}
	}
	return res
}

// Len returns the number of records in the history
func (h *History) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.count
}

// Reset removes all records
func (h *History) Reset() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.records = ring.New(h.size)
	h.count = 0
}
