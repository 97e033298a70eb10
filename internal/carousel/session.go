package carousel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/slides"
)

// DefaultRefreshPeriod is the background poll period when none is configured.
const DefaultRefreshPeriod = 8 * time.Second

// Fetcher loads the dashboard payload for a tournament.
type Fetcher interface {
	FetchDashboard(ctx context.Context, tournamentID int64) (*model.Dashboard, error)
}

// Renderer draws one frame. Frames are complete; a renderer keeps no state
// it needs to interpret the next one.
type Renderer interface {
	Render(Frame) error
}

// Frame is everything needed to draw the screen.
type Frame struct {
	State    State
	Kind     slides.Kind
	Payload  *model.Dashboard // nil until the first fetch lands
	Featured int64            // highlight slide only; 0 elsewhere
	Picker   []PickerEntry    // set only while the picker is open
	Err      error            // terminal fetch failure
}

// View projects the frame's payload onto its slide.
func (f Frame) View() slides.View {
	if f.Payload == nil {
		return nil
	}
	return slides.Build(f.Kind, f.Payload, f.Featured)
}

type PickerEntry struct {
	Label    rune
	PlayerID int64
	Name     string
	Featured bool
}

type Options struct {
	TournamentID  int64
	RefreshPeriod time.Duration
	Clock         Clock
	Logger        *slog.Logger
}

type msg interface{ isSessionMsg() }

type keyMsg struct{ key Key }

func (keyMsg) isSessionMsg() {}

type fetchDone struct {
	seq       uint64
	dashboard *model.Dashboard
	err       error
}

func (fetchDone) isSessionMsg() {}

type getState struct{ reply chan State }

func (getState) isSessionMsg() {}

// Session owns the rotation state and the latest payload. All mutation
// happens on the Run goroutine; keys and fetch results arrive through the
// inbox and timers through the clock.
type Session struct {
	fetcher  Fetcher
	renderer Renderer
	opts     Options
	log      *slog.Logger

	inbox chan msg
	done  chan struct{}
	ctx   context.Context

	state   State
	payload *model.Dashboard
	failed  error
	seq     uint64
}

func NewSession(f Fetcher, r Renderer, opts Options) *Session {
	if opts.RefreshPeriod <= 0 {
		opts.RefreshPeriod = DefaultRefreshPeriod
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		fetcher:  f,
		renderer: r,
		opts:     opts,
		log:      opts.Logger.With("tournament_id", opts.TournamentID),
		inbox:    make(chan msg, 64),
		done:     make(chan struct{}),
	}
}

// Press delivers a key to the running session. It reports false once the
// session has stopped.
func (s *Session) Press(k Key) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- keyMsg{key: k}:
		return true
	case <-s.done:
		return false
	}
}

// State returns the current rotation state, or the final one after Run
// has returned.
func (s *Session) State() State {
	select {
	case <-s.done:
		return s.state
	default:
	}
	reply := make(chan State, 1)
	select {
	case s.inbox <- getState{reply: reply}:
	case <-s.done:
		return s.state
	}
	select {
	case st := <-reply:
		return st
	case <-s.done:
		return s.state
	}
}

// Run drives the carousel until the quit key or ctx cancellation. A fetch
// failure freezes the screen on an error frame; Run then waits for quit and
// returns the failure.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(s.done)
	s.ctx = ctx

	clk := s.opts.Clock
	now := clk.Now()
	var tick, poll Timer = clk.Schedule(now.Add(TickInterval)), clk.Schedule(now.Add(s.opts.RefreshPeriod))
	defer func() {
		tick.Stop()
		poll.Stop()
	}()

	s.log.Info("carousel started", "refresh", s.opts.RefreshPeriod)
	s.refresh("initial")
	s.draw()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("carousel stopped")
			return nil

		case at := <-tick.C():
			s.apply(Tick(at))
			tick = clk.Schedule(nextFire(at, clk.Now()))

		case <-poll.C():
			s.refresh("poll")
			poll = clk.Schedule(clk.Now().Add(s.opts.RefreshPeriod))

		case m := <-s.inbox:
			switch m := m.(type) {
			case keyMsg:
				if m.key.Kind == KeyQuit {
					s.log.Info("carousel quit")
					return s.failed
				}
				if s.failed != nil {
					break
				}
				if cmd, ok := Route(s.state, m.key); ok {
					s.log.Debug("key", "command", cmd.Type)
					s.apply(cmd)
				}

			case fetchDone:
				if s.failed != nil {
					break
				}
				if m.err != nil {
					s.log.Error("fetch dashboard", "seq", m.seq, "err", m.err)
					s.failed = fmt.Errorf("fetch dashboard: %w", m.err)
					tick.Stop()
					poll.Stop()
					tick, poll = stoppedTimer{}, stoppedTimer{}
					s.draw()
					break
				}
				s.log.Debug("payload", "seq", m.seq, "players", len(m.dashboard.PlayerLeaderboard))
				s.payload = m.dashboard
				s.apply(PayloadLoaded(m.dashboard.PlayerIDs()))

			case getState:
				m.reply <- s.state
			}
		}
	}
}

// nextFire keeps ticks on a fixed grid unless the loop has fallen behind.
func nextFire(prev, now time.Time) time.Time {
	next := prev.Add(TickInterval)
	if !next.After(now) {
		next = now.Add(TickInterval)
	}
	return next
}

func (s *Session) apply(cmd Command) {
	next, effects := Reduce(s.state, cmd)
	s.state = next
	for _, e := range effects {
		if e == EffectRefresh {
			s.refresh(string(cmd.Type))
		}
	}
	s.draw()
}

// refresh fetches in the background. Results are applied in arrival order;
// whichever lands last wins. After teardown a result is dropped.
func (s *Session) refresh(reason string) {
	s.seq++
	seq, ctx := s.seq, s.ctx
	s.log.Debug("refresh", "seq", seq, "reason", reason)
	go func() {
		d, err := s.fetcher.FetchDashboard(ctx, s.opts.TournamentID)
		if err == nil {
			err = d.Normalize()
		}
		select {
		case s.inbox <- fetchDone{seq: seq, dashboard: d, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) draw() {
	if err := s.renderer.Render(s.frame()); err != nil {
		s.log.Warn("render", "err", err)
	}
}

func (s *Session) frame() Frame {
	f := Frame{
		State:   s.state,
		Kind:    slides.At(s.state.Slide),
		Payload: s.payload,
		Err:     s.failed,
	}
	cursor, _ := s.state.FeaturedPlayer()
	if s.state.Slide == HighlightSlide {
		f.Featured = cursor
	}
	if s.state.PickerOpen && s.payload != nil {
		for i, id := range s.state.Cycle.IDs() {
			label, ok := PickerLabel(i)
			if !ok {
				break
			}
			f.Picker = append(f.Picker, PickerEntry{
				Label:    label,
				PlayerID: id,
				Name:     s.payload.PlayerName(id),
				Featured: id == cursor,
			})
		}
	}
	return f
}
