package rotate

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/voidowl/portfolio/internal/loop"
)

type fakeTicker struct {
	interval time.Duration
	c        chan time.Time
	stopped  chan struct{}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { close(f.stopped) }

type fakeClock struct {
	tickers chan *fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{tickers: make(chan *fakeTicker, 8)}
}

func (c *fakeClock) newTicker(d time.Duration) Ticker {
	t := &fakeTicker{interval: d, c: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers <- t
	return t
}

func (c *fakeClock) next(t *testing.T) *fakeTicker {
	t.Helper()
	select {
	case ft := <-c.tickers:
		return ft
	case <-time.After(time.Second):
		t.Fatalf("expected a ticker to be created")
		return nil
	}
}

// manualDispatcher hands posted work back to the test goroutine.
type manualDispatcher struct {
	posted chan func()
}

func newManualDispatcher() *manualDispatcher {
	return &manualDispatcher{posted: make(chan func())}
}

func (m *manualDispatcher) Post(fn func()) bool {
	m.posted <- fn
	return true
}

func (m *manualDispatcher) take(t *testing.T) func() {
	t.Helper()
	select {
	case fn := <-m.posted:
		return fn
	case <-time.After(time.Second):
		t.Fatalf("expected a tick to be posted")
		return nil
	}
}

type recorder struct {
	got []int
}

func (r *recorder) record(i int) { r.got = append(r.got, i) }

func newEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"no texts", Config{RotationInterval: time.Second}, "texts"},
		{"zero interval", Config{Texts: []string{"a"}}, "rotation interval"},
		{"negative interval", Config{Texts: []string{"a"}, RotationInterval: -time.Second}, "rotation interval"},
		{"negative stagger", Config{Texts: []string{"a"}, RotationInterval: time.Second, StaggerDuration: -1}, "stagger duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg)
			if e != nil {
				t.Fatalf("expected no engine on failure")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Fatalf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestAdvanceLoopsBackToZero(t *testing.T) {
	texts := []string{"products", "experiences", "interfaces", "solutions", "ideas"}
	rec := &recorder{}
	cfg := DefaultConfig(texts)
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg)

	for i := 1; i <= len(texts); i++ {
		if !e.Advance() {
			t.Fatalf("expected advance %d to change index", i)
		}
		if want := i % len(texts); e.Index() != want {
			t.Fatalf("expected index %d, got %d", want, e.Index())
		}
	}
	if len(rec.got) != len(texts) {
		t.Fatalf("expected %d notifications, got %d", len(texts), len(rec.got))
	}
}

func TestAdvanceWithoutLoopStopsAtEnd(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig([]string{"ab", "cd"})
	cfg.Loop = false
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg)

	e.Advance()
	before := e.Units()
	if e.Advance() {
		t.Fatalf("expected advance at last index to be a no-op")
	}
	if e.Index() != 1 {
		t.Fatalf("expected index 1, got %d", e.Index())
	}
	after := e.Units()
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("expected units to be unchanged")
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rec.got))
	}
}

func TestRetreat(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig([]string{"a", "b", "c"})
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg)

	e.Retreat()
	if e.Index() != 2 {
		t.Fatalf("expected wrap to 2, got %d", e.Index())
	}
	e.Retreat()
	if e.Index() != 1 {
		t.Fatalf("expected 1, got %d", e.Index())
	}

	cfg.Loop = false
	cfg.OnIndexChange = nil
	e = newEngine(t, cfg)
	if e.Retreat() {
		t.Fatalf("expected retreat at 0 without loop to be a no-op")
	}
	if want := []int{2, 1}; len(rec.got) != 2 || rec.got[0] != want[0] || rec.got[1] != want[1] {
		t.Fatalf("expected notifications %v, got %v", want, rec.got)
	}
}

func TestJumpToClamps(t *testing.T) {
	cfg := DefaultConfig([]string{"a", "b", "c", "d"})
	e := newEngine(t, cfg)

	for _, tt := range []struct{ in, want int }{
		{-5, 0}, {0, 0}, {2, 2}, {3, 3}, {4, 3}, {100, 3}, {-1, 0},
	} {
		e.JumpTo(tt.in)
		if e.Index() != tt.want {
			t.Fatalf("JumpTo(%d): expected %d, got %d", tt.in, tt.want, e.Index())
		}
	}
}

func TestJumpToSameIndexDoesNotNotify(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig([]string{"a", "b"})
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg)

	e.JumpTo(7)
	e.JumpTo(1)
	if len(rec.got) != 1 || rec.got[0] != 1 {
		t.Fatalf("expected a single notification with 1, got %v", rec.got)
	}
}

func TestReset(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig([]string{"a", "b", "c"})
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg)

	if e.Reset() {
		t.Fatalf("expected reset at 0 to be a no-op")
	}
	if len(rec.got) != 0 {
		t.Fatalf("expected no notification, got %v", rec.got)
	}
	e.JumpTo(2)
	e.Reset()
	if e.Index() != 0 {
		t.Fatalf("expected 0, got %d", e.Index())
	}
	if want := []int{2, 0}; len(rec.got) != 2 || rec.got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, rec.got)
	}
}

func TestConfigTextsAreCopied(t *testing.T) {
	texts := []string{"a", "b"}
	e := newEngine(t, DefaultConfig(texts))
	texts[0] = "changed"
	if e.Text() != "a" {
		t.Fatalf("expected engine to keep its own texts, got %q", e.Text())
	}
}

func TestAutoAdvanceScenario(t *testing.T) {
	clock := newFakeClock()
	d := newManualDispatcher()
	rec := &recorder{}
	cfg := Config{
		Texts:            []string{"hi", "yo"},
		Loop:             true,
		Auto:             true,
		RotationInterval: 1000 * time.Millisecond,
		OnIndexChange:    rec.record,
	}
	e := newEngine(t, cfg, WithTicker(clock.newTicker))
	e.Start(d)
	defer e.Stop()

	ft := clock.next(t)
	if ft.interval != time.Second {
		t.Fatalf("expected ticker at 1s, got %s", ft.interval)
	}
	for i := 0; i < 2; i++ {
		ft.c <- time.Now()
		d.take(t)()
	}
	if e.Index() != 0 {
		t.Fatalf("expected index 0, got %d", e.Index())
	}
	if len(rec.got) != 2 || rec.got[0] != 1 || rec.got[1] != 0 {
		t.Fatalf("expected notifications [1 0], got %v", rec.got)
	}
}

func TestStartWithoutAutoDoesNothing(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig([]string{"a", "b"})
	cfg.Auto = false
	e := newEngine(t, cfg, WithTicker(clock.newTicker))
	e.Start(newManualDispatcher())
	if e.Running() {
		t.Fatalf("expected engine not to run")
	}
	if len(clock.tickers) != 0 {
		t.Fatalf("expected no ticker to be created")
	}
}

func TestStopDropsPendingTick(t *testing.T) {
	clock := newFakeClock()
	d := newManualDispatcher()
	rec := &recorder{}
	cfg := DefaultConfig([]string{"a", "b"})
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg, WithTicker(clock.newTicker))
	e.Start(d)

	ft := clock.next(t)
	ft.c <- time.Now()
	pending := d.take(t)

	e.Stop()
	e.Stop()
	pending()

	if len(rec.got) != 0 {
		t.Fatalf("expected no notifications after stop, got %v", rec.got)
	}
	select {
	case <-ft.stopped:
	case <-time.After(time.Second):
		t.Fatalf("expected ticker to be stopped")
	}
	if e.Running() {
		t.Fatalf("expected engine to report stopped")
	}
}

func TestSetRotationIntervalRestartsTimer(t *testing.T) {
	clock := newFakeClock()
	d := newManualDispatcher()
	rec := &recorder{}
	cfg := DefaultConfig([]string{"a", "b", "c"})
	cfg.OnIndexChange = rec.record
	e := newEngine(t, cfg, WithTicker(clock.newTicker))

	if err := e.SetRotationInterval(0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	e.Start(d)
	first := clock.next(t)
	first.c <- time.Now()
	stale := d.take(t)

	if err := e.SetRotationInterval(500 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := clock.next(t)
	if second.interval != 500*time.Millisecond {
		t.Fatalf("expected 500ms ticker, got %s", second.interval)
	}
	<-first.stopped
	stale()
	if len(rec.got) != 0 {
		t.Fatalf("expected tick from the old timer to be dropped, got %v", rec.got)
	}

	second.c <- time.Now()
	d.take(t)()
	if len(rec.got) != 1 || rec.got[0] != 1 {
		t.Fatalf("expected [1], got %v", rec.got)
	}
	e.Stop()
}

func TestEngineOnLoop(t *testing.T) {
	clock := newFakeClock()
	l := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	changes := make(chan int, 4)
	cfg := DefaultConfig([]string{"a", "b", "c"})
	cfg.OnIndexChange = func(i int) { changes <- i }
	e := newEngine(t, cfg, WithTicker(clock.newTicker))
	if err := l.Do(func() { e.Start(l) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ft := clock.next(t)

	ft.c <- time.Now()
	if got := <-changes; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	_ = l.Do(func() { e.JumpTo(0) })
	if got := <-changes; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	_ = l.Do(e.Stop)
	<-ft.stopped
}

func TestRandomPivotSharedWithinRotation(t *testing.T) {
	cfg := DefaultConfig([]string{"abcdefgh", "ijklmnop"})
	cfg.StaggerFrom = StaggerRandom
	cfg.StaggerDuration = 10 * time.Millisecond
	e := newEngine(t, cfg, WithRand(rand.New(rand.NewSource(7))))

	for rotation := 0; rotation < 4; rotation++ {
		units := e.Units()
		pivot, zero := -1, 0
		for _, u := range units {
			if e.Delay(u) == 0 {
				pivot = u.Offset
				zero++
			}
		}
		if zero != 1 {
			t.Fatalf("expected exactly one unit at the pivot, got %d", zero)
		}
		for _, u := range units {
			want := time.Duration(abs(pivot-u.Offset)) * cfg.StaggerDuration
			if got := e.Delay(u); got != want {
				t.Fatalf("offset %d: expected %s from pivot %d, got %s", u.Offset, want, pivot, got)
			}
		}
		e.Advance()
	}
}
