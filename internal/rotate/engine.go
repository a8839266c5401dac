package rotate

import (
	"math/rand"
	"time"
)

// Dispatcher runs fn on the host's event goroutine. Post reports false when
// the host is no longer accepting work.
type Dispatcher interface {
	Post(fn func()) bool
}

// Ticker is the subset of time.Ticker the engine needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTicker replaces the ticker used for auto advance.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(e *Engine) { e.newTicker = fn }
}

// WithRand sets the source for the random stagger pivot.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// Engine holds the active text index for one headline.
//
// Engine does no locking. All methods, Start and Stop included, must be
// called from the goroutine behind the Dispatcher passed to Start; the ticker
// goroutine only ever posts Advance through that Dispatcher.
type Engine struct {
	cfg      Config
	interval time.Duration

	index int
	count int
	pivot int

	rng       *rand.Rand
	newTicker func(time.Duration) Ticker

	dispatch Dispatcher
	running  bool
	gen      uint64
	done     chan struct{}
}

// New validates cfg and returns an engine positioned at the first text.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Texts = append([]string(nil), cfg.Texts...)
	cfg.Variants = append([]Variant(nil), cfg.Variants...)

	e := &Engine{
		cfg:       cfg,
		interval:  cfg.RotationInterval,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.settle()
	return e, nil
}

// Index returns the active text index.
func (e *Engine) Index() int { return e.index }

// Len returns the number of texts.
func (e *Engine) Len() int { return len(e.cfg.Texts) }

// Text returns the active text.
func (e *Engine) Text() string { return e.cfg.Texts[e.index] }

// Interval returns the current auto advance interval.
func (e *Engine) Interval() time.Duration { return e.interval }

// Running reports whether the auto advance timer is scheduled.
func (e *Engine) Running() bool { return e.running }

// Advance moves to the next text, wrapping only when looping.
func (e *Engine) Advance() bool {
	next := e.index + 1
	if next == len(e.cfg.Texts) {
		if !e.cfg.Loop {
			return false
		}
		next = 0
	}
	return e.commit(next)
}

// Retreat moves to the previous text, wrapping only when looping.
func (e *Engine) Retreat() bool {
	prev := e.index - 1
	if prev < 0 {
		if !e.cfg.Loop {
			return false
		}
		prev = len(e.cfg.Texts) - 1
	}
	return e.commit(prev)
}

// JumpTo clamps index into range and moves there.
func (e *Engine) JumpTo(index int) bool {
	return e.commit(max(0, min(index, len(e.cfg.Texts)-1)))
}

// Reset moves to the first text.
func (e *Engine) Reset() bool {
	return e.JumpTo(0)
}

func (e *Engine) commit(index int) bool {
	if index == e.index {
		return false
	}
	e.index = index
	e.settle()
	if e.cfg.OnIndexChange != nil {
		e.cfg.OnIndexChange(index)
	}
	return true
}

// settle recomputes the per-rotation values for the active text.
func (e *Engine) settle() {
	e.count = len(e.Units())
	e.pivot = 0
	if e.cfg.StaggerFrom.kind == originRandom && e.count > 0 {
		e.pivot = e.rng.Intn(e.count)
	}
}

// Units splits the active text. The result is freshly allocated.
func (e *Engine) Units() []Unit {
	return Segment(e.cfg.Texts[e.index], e.cfg.Split)
}

// Delay returns how long the host waits before starting u's transition.
func (e *Engine) Delay(u Unit) time.Duration {
	return staggerDelay(e.cfg.StaggerFrom, e.cfg.StaggerDuration, u.Offset, e.count, e.pivot)
}

// Visual returns the variant for the unit at offset.
func (e *Engine) Visual(offset int) Variant {
	if len(e.cfg.Variants) == 0 {
		return Variant{}
	}
	return e.cfg.Variants[abs(offset)%len(e.cfg.Variants)]
}

// Start schedules auto advance on d. It does nothing when auto advance is
// disabled or the timer is already running.
func (e *Engine) Start(d Dispatcher) {
	if !e.cfg.Auto || e.running {
		return
	}
	e.dispatch = d
	e.running = true
	e.schedule()
}

// Stop cancels the timer. Ticks already posted to the dispatcher are dropped,
// so no index change is reported after Stop returns.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.cancel()
	e.running = false
	e.dispatch = nil
}

// SetRotationInterval changes the auto advance interval. A running timer is
// restarted from zero.
func (e *Engine) SetRotationInterval(d time.Duration) error {
	if d <= 0 {
		return &ConfigurationError{Field: "rotation interval", Reason: "must be positive, got " + d.String()}
	}
	e.interval = d
	if e.running {
		e.cancel()
		e.schedule()
	}
	return nil
}

func (e *Engine) schedule() {
	e.gen++
	gen := e.gen
	done := make(chan struct{})
	e.done = done

	t := e.newTicker(e.interval)
	d := e.dispatch
	tick := func() {
		if e.gen == gen {
			e.Advance()
		}
	}
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C():
				if !d.Post(tick) {
					return
				}
			}
		}
	}()
}

func (e *Engine) cancel() {
	e.gen++
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
}
