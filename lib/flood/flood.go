// Package flood implements sliding-window flood detection per user.
// Every message appends a timestamp to the author's window, timestamps older than the window are
// dropped lazily on the next message of the same author.
package flood

import (
	"sort"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

// defaults
const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxMessages = 5
)

// Config is a set of parameters for Limiter
type Config struct {
	Window      time.Duration // sliding window, DefaultWindow if 0
	MaxMessages int           // flooding if more messages than this in the window, DefaultMaxMessages if 0
	MaxUsers    int           // max number of tracked users, least recently used evicted; unlimited if 0
}

// Result is a result of a flood check
type Result struct {
	Flooding bool `json:"flooding"`
	Count    int  `json:"count"` // messages in the window including the current one
}

// Entry is a user with number of messages in the current window
type Entry struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// Limiter tracks message timestamps per user, thread-safe
type Limiter struct {
	Config
	windows cache.Cache[string, []time.Time]
	lock    sync.Mutex
	nowFn   func() time.Time
}

// New makes a Limiter with the given config
func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	c := cache.NewCache[string, []time.Time]()
	if cfg.MaxUsers > 0 {
		c = c.WithMaxKeys(cfg.MaxUsers).WithLRU()
	}
	return &Limiter{Config: cfg, windows: c, nowFn: time.Now}
}

// Check records a message from the user and reports if the user is flooding
func (l *Limiter) Check(userID string) Result {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.nowFn()
	window, _ := l.windows.Get(userID)
	res := make([]time.Time, 0, len(window)+1)
	for _, ts := range append(window, now) {
		if now.Sub(ts) < l.Window {
			res = append(res, ts)
		}
	}
	l.windows.Set(userID, res, 0)
	return Result{Flooding: len(res) > l.MaxMessages, Count: len(res)}
}

// Count returns number of user's messages in the current window without recording anything
func (l *Limiter) Count(userID string) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	window, _ := l.windows.Peek(userID)
	return l.inWindow(window, l.nowFn())
}

// Top returns up to n users with the most messages in the current window, users without messages skipped
func (l *Limiter) Top(n int) []Entry {
	l.lock.Lock()
	now := l.nowFn()
	res := []Entry{}
	for _, userID := range l.windows.Keys() {
		window, ok := l.windows.Peek(userID)
		if !ok {
			continue
		}
		if cnt := l.inWindow(window, now); cnt > 0 {
			res = append(res, Entry{UserID: userID, Count: cnt})
		}
	}
	l.lock.Unlock()

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

// Len returns number of tracked users
func (l *Limiter) Len() int {
	return l.windows.Len()
}

// Reset clears all windows
func (l *Limiter) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.windows.Purge()
}

func (l *Limiter) inWindow(window []time.Time, now time.Time) int {
	cnt := 0
	for _, ts := range window {
		if now.Sub(ts) < l.Window {
			cnt++
		}
	}
	return cnt
}
