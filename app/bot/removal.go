package bot

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultRemovalDelay is a delay between removal announcement and the actual removal
const DefaultRemovalDelay = 2 * time.Second

// ErrRemovalCancelled is returned by RemovalTask.Err if the task was cancelled before the delay elapsed
var ErrRemovalCancelled = errors.New("removal cancelled")

// RemovalTask is a deferred removal of a user from the chat.
// The task waits for the delay and runs the removal once, it is never retried.
// The task can be cancelled only while waiting.
type RemovalTask struct {
	ChatID string
	UserID string

	done     chan struct{}
	cancelCh chan struct{}

	mu        sync.Mutex
	started   bool
	cancelled bool
	err       error
}

func newRemovalTask(chatID, userID string) *RemovalTask {
	return &RemovalTask{ChatID: chatID, UserID: userID, done: make(chan struct{}), cancelCh: make(chan struct{})}
}

// Done returns a channel closed when the task is completed or cancelled
func (t *RemovalTask) Done() <-chan struct{} {
	return t.done
}

// Err returns the result of the removal, nil until Done is closed or on success
func (t *RemovalTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel stops the task if it is still waiting, returns false if the removal already started
func (t *RemovalTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return false
	}
	if !t.cancelled {
		t.cancelled = true
		close(t.cancelCh)
	}
	return true
}

// run waits for the delay and calls removeFn, blocking
func (t *RemovalTask) run(ctx context.Context, delay time.Duration, removeFn func(ctx context.Context) error) {
	defer close(t.done)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-t.cancelCh:
		t.setErr(ErrRemovalCancelled)
		return
	case <-timer.C:
	}

	t.mu.Lock()
	if t.cancelled {
		t.err = ErrRemovalCancelled
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	t.setErr(removeFn(ctx))
}

func (t *RemovalTask) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}
