// Package navigation schedules the move to the history screen once an order completes.
package navigation

import (
	"sync"
	"time"
)

// DefaultDelay is how long the completion screen stays before redirecting.
const DefaultDelay = 3 * time.Second

// Redirect fires its target once, either after the delay or when Now is called.
type Redirect struct {
	once   sync.Once
	timer  *time.Timer
	target func()
	done   chan struct{}
}

// Schedule arms a redirect to target after delay.
func Schedule(delay time.Duration, target func()) *Redirect {
	r := &Redirect{target: target, done: make(chan struct{})}
	r.timer = time.AfterFunc(delay, r.fire)
	return r
}

// Now redirects immediately. Later calls and the pending timer are no-ops.
func (r *Redirect) Now() {
	r.timer.Stop()
	r.fire()
}

// Stop drops the redirect without firing it.
func (r *Redirect) Stop() {
	r.timer.Stop()
	r.once.Do(func() { close(r.done) })
}

// Done is closed once the redirect fired or was stopped.
func (r *Redirect) Done() <-chan struct{} {
	return r.done
}

func (r *Redirect) fire() {
	r.once.Do(func() {
		if r.target != nil {
			r.target()
		}
		close(r.done)
	})
}
