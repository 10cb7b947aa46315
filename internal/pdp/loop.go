package pdp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/storage"
)

// ErrLoopClosed is returned by Do once the loop has been closed.
var ErrLoopClosed = errors.New("pdp: loop closed")

// Loop owns one Page and runs every handler and timer callback on a single goroutine.
type Loop struct {
	page  *Page
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	closeOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int

	lastUsed atomic.Int64
}

// NewLoop builds a Page wired to a scheduler that delivers timer callbacks through the loop, and starts the loop.
// Callers still have to Init the page through Do.
func NewLoop(product domain.Product, store storage.Store, opts ...Option) *Loop {
	l := &Loop{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		subs:  make(map[int]chan struct{}),
	}
	opts = append(opts, WithScheduler(loopScheduler{loop: l}))
	l.page = New(product, store, opts...)
	l.touch()
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case task := <-l.tasks:
			task()
			l.broadcast()
		case <-l.quit:
			l.page.stopTimers()
			l.closeSubs()
			return
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*Page) error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if rec := recover(); rec != nil {
				result <- fmt.Errorf("pdp: handler panic: %v", rec)
			}
		}()
		result <- fn(l.page)
	}

	select {
	case l.tasks <- task:
	case <-l.quit:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	l.touch()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View renders a snapshot of the page.
func (l *Loop) View(ctx context.Context) (View, error) {
	var v View
	err := l.Do(ctx, func(p *Page) error {
		v = p.View()
		return nil
	})
	return v, err
}

// Subscribe returns a channel that receives a signal after every handler or timer callback.
// Signals are coalesced; the channel is closed when the loop closes or cancel is called.
func (l *Loop) Subscribe() (<-chan struct{}, func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	ch := make(chan struct{}, 1)
	select {
	case <-l.quit:
		close(ch)
		return ch, func() {}
	default:
	}

	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subMu.Lock()
			defer l.subMu.Unlock()
			if c, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close stops the loop, cancelling pending timers. It is safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.quit)
	})
	<-l.done
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}

// LastUsed returns the time of the most recent Do call.
func (l *Loop) LastUsed() time.Time {
	return time.Unix(0, l.lastUsed.Load())
}

func (l *Loop) touch() {
	l.lastUsed.Store(time.Now().UnixNano())
}

func (l *Loop) post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

func (l *Loop) broadcast() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (l *Loop) closeSubs() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}

type loopScheduler struct {
	loop *Loop
}

func (s loopScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		s.loop.post(func() {
			// Stop may have been called after the timer fired but before the callback reached the loop.
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}
