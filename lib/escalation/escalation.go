// Package escalation tracks per-user warnings. Each toxic message increments the user's counter,
// the counter maps to a Level which defines the reaction: first warning, second warning or removal.
// The record is deleted after a successful removal or by admin reset.
package escalation

import (
	"sort"
	"sync"
	"time"
)

// Level is an escalation level derived from the warning counter
type Level int

// enum of levels
const (
	LevelNone    Level = iota // no warnings
	LevelFirst                // first warning
	LevelSecond               // second warning
	LevelRemoval              // third and subsequent warnings, the user should be removed
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelFirst:
		return "first"
	case LevelSecond:
		return "second"
	default:
		return "removal"
	}
}

// Record is a warning record of a single user
type Record struct {
	UserID      string    `json:"user_id"`
	Count       int       `json:"count"`
	LastWarning time.Time `json:"last_warning"`
}

// Level returns escalation level of the record
func (r Record) Level() Level {
	switch {
	case r.Count <= 0:
		return LevelNone
	case r.Count == 1:
		return LevelFirst
	case r.Count == 2:
		return LevelSecond
	default:
		return LevelRemoval
	}
}

// Tracker keeps warning records by user id, thread-safe
type Tracker struct {
	records map[string]Record
	lock    sync.RWMutex
	nowFn   func() time.Time
}

// NewTracker makes an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{records: map[string]Record{}, nowFn: time.Now}
}

// Warn increments user's warning counter and returns the updated record.
// Concurrent calls for the same user always get distinct counts.
func (t *Tracker) Warn(userID string) Record {
	t.lock.Lock()
	defer t.lock.Unlock()
	rec := t.records[userID]
	rec.UserID = userID
	rec.Count++
	rec.LastWarning = t.nowFn()
	t.records[userID] = rec
	return rec
}

// Get returns user's warning record
func (t *Tracker) Get(userID string) (Record, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	rec, ok := t.records[userID]
	return rec, ok
}

// Reset deletes user's warning record
func (t *Tracker) Reset(userID string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	delete(t.records, userID)
}

// ResetAll deletes all warning records
func (t *Tracker) ResetAll() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.records = map[string]Record{}
}

// Len returns number of users with warnings
func (t *Tracker) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.records)
}

// Top returns up to n records with the highest counts, ties ordered by user id
func (t *Tracker) Top(n int) []Record {
	t.lock.RLock()
	res := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		res = append(res, rec)
	}
	t.lock.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].UserID < res[j].UserID
	})
	if n >= 0 && len(res) > n {
		res = res[:n]
	}
	return res
}
