package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voidowl/portfolio/internal/loop"
	"github.com/voidowl/portfolio/internal/rotate"
)

// HeadlineView is the render model for the rotating headline.
type HeadlineView struct {
	Prefix string
	Index  int
	Text   string
	Color  string
	// Lines stacks groups vertically instead of spacing them.
	Lines  bool
	Groups []GroupView
}

type GroupView struct {
	Units []UnitView
	Space bool
}

type UnitView struct {
	Content string
	DelayMS int64
	Initial string
	Animate string
	Exit    string
}

// Hero owns the site's shared headline engine. The engine and the subscriber
// set are only touched on the hero's loop.
type Hero struct {
	log      *logrus.Logger
	settings heroSettings
	loop     *loop.Loop
	engine   *rotate.Engine
	subs     map[chan HeadlineView]struct{}
	cancel   context.CancelFunc
}

func NewHero(settings heroSettings, logger *logrus.Logger, opts ...rotate.Option) (*Hero, error) {
	h := &Hero{
		log:      logger,
		settings: settings,
		loop:     loop.New(),
		subs:     make(map[chan HeadlineView]struct{}),
	}
	cfg := settings.Rotate
	cfg.OnIndexChange = h.onIndexChange
	engine, err := rotate.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	h.engine = engine
	return h, nil
}

// Start runs the hero loop and begins auto rotation.
func (h *Hero) Start(ctx context.Context) error {
	ctx, h.cancel = context.WithCancel(ctx)
	go h.loop.Run(ctx)
	return h.loop.Do(func() {
		h.engine.Start(h.loop)
		h.log.WithFields(logrus.Fields{
			"texts":    h.engine.Len(),
			"interval": h.engine.Interval(),
			"auto":     h.engine.Running(),
		}).Info("Headline rotation started")
	})
}

// Close stops the timer, ends every subscription and stops the loop.
func (h *Hero) Close() {
	if h.cancel == nil {
		return
	}
	_ = h.loop.Do(func() {
		h.engine.Stop()
		for ch := range h.subs {
			delete(h.subs, ch)
			close(ch)
		}
	})
	h.cancel()
	<-h.loop.Done()
}

func (h *Hero) onIndexChange(index int) {
	view := h.view()
	h.log.WithFields(logrus.Fields{"index": index, "text": view.Text}).Debug("Headline changed")
	for ch := range h.subs {
		select {
		case ch <- view:
		default:
			h.log.Debug("Dropping headline update for slow subscriber")
		}
	}
}

func (h *Hero) view() HeadlineView {
	e := h.engine
	groups := rotate.GroupUnits(e.Units())
	v := HeadlineView{
		Prefix: h.settings.Prefix,
		Index:  e.Index(),
		Text:   e.Text(),
		Color:  h.settings.colorAt(e.Index()),
		Lines:  h.settings.Rotate.Split == rotate.SplitLines,
		Groups: make([]GroupView, len(groups)),
	}
	for gi, group := range groups {
		g := GroupView{Units: make([]UnitView, len(group))}
		for ui, u := range group {
			variant := e.Visual(u.Offset)
			g.Units[ui] = UnitView{
				Content: u.Content,
				DelayMS: e.Delay(u).Milliseconds(),
				Initial: variant.Initial,
				Animate: variant.Animate,
				Exit:    variant.Exit,
			}
			if separatorAfter(h.settings.Rotate.Split, u, gi == len(groups)-1) == " " {
				g.Space = true
			}
		}
		v.Groups[gi] = g
	}
	return v
}

// separatorAfter returns what a host renders after u. Characters mode marks
// word ends itself; in the other modes every piece but the last is followed
// by a space, or by a line break when splitting by lines.
func separatorAfter(split rotate.SplitMode, u rotate.Unit, last bool) string {
	switch {
	case split == rotate.SplitCharacters:
		if u.TrailingSeparator {
			return " "
		}
		return ""
	case last:
		return ""
	case split == rotate.SplitLines:
		return "\n"
	default:
		return " "
	}
}

func (h *Hero) do(fn func()) (HeadlineView, error) {
	var v HeadlineView
	err := h.loop.Do(func() {
		fn()
		v = h.view()
	})
	return v, err
}

func (h *Hero) View() (HeadlineView, error) {
	return h.do(func() {})
}

func (h *Hero) Next() (HeadlineView, error) {
	return h.do(func() { h.engine.Advance() })
}

func (h *Hero) Prev() (HeadlineView, error) {
	return h.do(func() { h.engine.Retreat() })
}

func (h *Hero) Reset() (HeadlineView, error) {
	return h.do(func() { h.engine.Reset() })
}

func (h *Hero) Jump(index int) (HeadlineView, error) {
	return h.do(func() { h.engine.JumpTo(index) })
}

func (h *Hero) Interval() (time.Duration, error) {
	var d time.Duration
	err := h.loop.Do(func() { d = h.engine.Interval() })
	return d, err
}

// SetInterval restarts auto rotation with a new interval.
func (h *Hero) SetInterval(d time.Duration) error {
	var err error
	if derr := h.loop.Do(func() { err = h.engine.SetRotationInterval(d) }); derr != nil {
		return derr
	}
	if err == nil {
		h.log.WithField("interval", d).Info("Headline interval changed")
	}
	return err
}

// Subscribe returns a channel that receives the headline after every change.
// The returned func unsubscribes; the channel is closed either way.
func (h *Hero) Subscribe() (<-chan HeadlineView, func(), error) {
	ch := make(chan HeadlineView, 4)
	if err := h.loop.Do(func() { h.subs[ch] = struct{}{} }); err != nil {
		return nil, nil, err
	}
	unsubscribe := func() {
		_ = h.loop.Do(func() {
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
	return ch, unsubscribe, nil
}
