package preview

import (
	"context"
	"sync"
	"time"
)

// rebuilder runs builds on a single worker goroutine. At most one rebuild
// runs and at most one more waits; further requests coalesce into the
// waiting one.
type rebuilder struct {
	delay    time.Duration
	build    func(ctx context.Context, trigger string)
	requests chan string

	mu    sync.Mutex
	timer *time.Timer
}

func newRebuilder(delay time.Duration, build func(context.Context, string)) *rebuilder {
	return &rebuilder{delay: delay, build: build, requests: make(chan string, 1)}
}

// request queues a rebuild unless one is already waiting.
func (r *rebuilder) request(trigger string) {
	select {
	case r.requests <- trigger:
	default:
	}
}

// debounce requests a rebuild once no call arrived for the delay.
func (r *rebuilder) debounce(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, func() { r.request(trigger) })
}

func (r *rebuilder) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}

func (r *rebuilder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-r.requests:
			r.build(ctx, trigger)
		}
	}
}
