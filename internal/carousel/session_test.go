package carousel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/slides"
)

// ---- manual clock ----

type manualTimer struct {
	at      time.Time
	c       chan time.Time
	stopped bool
	fired   bool
}

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

func newManualClock() *manualClock { return &manualClock{now: t0} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Schedule(at time.Time) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: at, c: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	return &manualHandle{clock: c, t: t}
}

type manualHandle struct {
	clock *manualClock
	t     *manualTimer
}

func (h *manualHandle) C() <-chan time.Time { return h.t.c }

func (h *manualHandle) Stop() bool {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	active := !h.t.fired && !h.t.stopped
	h.t.stopped = true
	return active
}

// Advance moves time forward and fires every due timer.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if t.fired || t.stopped || t.at.After(c.now) {
			continue
		}
		t.fired = true
		t.c <- c.now
	}
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// blockUntil waits for the session to have n armed timers.
func (c *manualClock) blockUntil(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.pending() == n }, time.Second, time.Millisecond)
}

// ---- fakes ----

type fakeFetcher struct {
	calls atomic.Int32
	fetch func(ctx context.Context, call int32) (*model.Dashboard, error)
}

func (f *fakeFetcher) FetchDashboard(ctx context.Context, _ int64) (*model.Dashboard, error) {
	n := f.calls.Add(1)
	return f.fetch(ctx, n)
}

type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) Render(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) last() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

func board(ids ...int64) *model.Dashboard {
	d := &model.Dashboard{TournamentName: "SuperPongTest"}
	for _, id := range ids {
		d.PlayerLeaderboard = append(d.PlayerLeaderboard, model.PlayerEntry{PlayerID: id, PlayerName: string(rune('A' + id - 1))})
	}
	return d
}

type harness struct {
	clock   *manualClock
	fetcher *fakeFetcher
	frames  *frameRecorder
	session *Session
	cancel  context.CancelFunc
	runErr  chan error
}

func start(t *testing.T, fetch func(ctx context.Context, call int32) (*model.Dashboard, error)) *harness {
	t.Helper()
	h := &harness{
		clock:   newManualClock(),
		fetcher: &fakeFetcher{fetch: fetch},
		frames:  &frameRecorder{},
		runErr:  make(chan error, 1),
	}
	h.session = NewSession(h.fetcher, h.frames, Options{
		TournamentID:  1,
		RefreshPeriod: time.Hour,
		Clock:         h.clock,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runErr <- h.session.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.session.done
	})
	return h
}

func (h *harness) waitLoaded(t *testing.T) State {
	t.Helper()
	var s State
	require.Eventually(t, func() bool {
		s = h.session.State()
		return s.Slides == slides.Count()
	}, time.Second, time.Millisecond)
	return s
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.runErr:
		return err
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
		return nil
	}
}

// ---- tests ----

func TestSession_InitialFetchLocksCycle(t *testing.T) {
	h := start(t, func(_ context.Context, call int32) (*model.Dashboard, error) {
		if call == 1 {
			return board(1, 2, 3), nil
		}
		return board(3, 1, 2), nil
	})
	s := h.waitLoaded(t)
	assert.Equal(t, []int64{1, 2, 3}, s.Cycle.IDs())

	require.True(t, h.session.Press(Key{Kind: KeyRight}))
	require.Eventually(t, func() bool { return h.fetcher.calls.Load() == 2 }, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		f := h.frames.last()
		return f.Payload != nil && f.Payload.PlayerLeaderboard[0].PlayerID == 3
	}, time.Second, time.Millisecond)
	s = h.session.State()
	assert.Equal(t, 1, s.Slide)
	assert.Equal(t, []int64{1, 2, 3}, s.Cycle.IDs(), "reordered leaderboard keeps the cycle")
}

func TestSession_TickAdvancesSlide(t *testing.T) {
	h := start(t, func(context.Context, int32) (*model.Dashboard, error) { return board(1, 2), nil })
	h.waitLoaded(t)
	h.clock.blockUntil(t, 2)

	h.clock.Advance(TickInterval) // reference tick
	h.clock.blockUntil(t, 2)
	h.clock.Advance(SlideInterval)
	h.clock.blockUntil(t, 2)

	s := h.session.State()
	assert.Equal(t, 1, s.Slide)
	assert.Zero(t, s.Elapsed)
	require.Eventually(t, func() bool { return h.fetcher.calls.Load() == 2 }, time.Second, time.Millisecond)
}

func TestSession_PollRefreshes(t *testing.T) {
	h := start(t, func(context.Context, int32) (*model.Dashboard, error) { return board(1), nil })
	h.waitLoaded(t)
	h.clock.blockUntil(t, 2)

	h.clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return h.fetcher.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestSession_PickerFrame(t *testing.T) {
	h := start(t, func(context.Context, int32) (*model.Dashboard, error) { return board(1, 2), nil })
	h.waitLoaded(t)

	h.session.Press(Key{Kind: KeyTogglePicker})
	require.Eventually(t, func() bool { return h.session.State().PickerOpen }, time.Second, time.Millisecond)

	f := h.frames.last()
	assert.Zero(t, f.Featured, "only the highlight slide features a player")
	require.Len(t, f.Picker, 2)
	assert.Equal(t, '1', f.Picker[0].Label)
	assert.Equal(t, "B", f.Picker[1].Name)
	assert.True(t, f.Picker[0].Featured)

	h.session.Press(Key{Kind: KeyRune, Rune: '2'})
	require.Eventually(t, func() bool { return !h.session.State().PickerOpen }, time.Second, time.Millisecond)
	s := h.session.State()
	assert.Equal(t, HighlightSlide, s.Slide)
	assert.True(t, s.Paused)
	f = h.frames.last()
	assert.Equal(t, int64(2), f.Featured)
	assert.Equal(t, slides.KindPlayerHighlight, f.Kind)
}

func TestSession_LastFetchWins(t *testing.T) {
	slow := make(chan struct{})
	h := start(t, func(_ context.Context, call int32) (*model.Dashboard, error) {
		switch call {
		case 1:
			return board(1, 2), nil
		case 2:
			<-slow
			d := board(1, 2)
			d.TournamentName = "slow"
			return d, nil
		default:
			d := board(1, 2)
			d.TournamentName = "fast"
			return d, nil
		}
	})
	h.waitLoaded(t)

	h.session.Press(Key{Kind: KeyRight}) // fetch 2, blocked
	require.Eventually(t, func() bool { return h.fetcher.calls.Load() == 2 }, time.Second, time.Millisecond)
	h.session.Press(Key{Kind: KeyRight}) // fetch 3
	require.Eventually(t, func() bool { return h.frames.last().Payload.TournamentName == "fast" }, time.Second, time.Millisecond)

	assert.Equal(t, 2, h.session.State().Slide, "commands apply while fetches are in flight")

	close(slow)
	require.Eventually(t, func() bool { return h.frames.last().Payload.TournamentName == "slow" }, time.Second, time.Millisecond)
}

func TestSession_FetchFailureIsTerminal(t *testing.T) {
	boom := errors.New("connection refused")
	h := start(t, func(context.Context, int32) (*model.Dashboard, error) { return nil, boom })

	require.Eventually(t, func() bool { return h.frames.last().Err != nil }, time.Second, time.Millisecond)
	h.clock.blockUntil(t, 0)

	// Keys other than quit are ignored once failed.
	h.session.Press(Key{Kind: KeyRight})
	assert.Equal(t, State{}, h.session.State())

	h.session.Press(Key{Kind: KeyQuit})
	err := h.wait(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), h.fetcher.calls.Load())
}

func TestSession_QuitReturnsNil(t *testing.T) {
	h := start(t, func(context.Context, int32) (*model.Dashboard, error) { return board(1), nil })
	h.waitLoaded(t)
	h.session.Press(Key{Kind: KeyQuit})
	assert.NoError(t, h.wait(t))
	assert.False(t, h.session.Press(Key{Kind: KeyRight}))
}

func TestSession_TeardownCancelsInflightFetch(t *testing.T) {
	started := make(chan struct{})
	returned := make(chan error, 1)
	h := start(t, func(ctx context.Context, _ int32) (*model.Dashboard, error) {
		close(started)
		<-ctx.Done()
		returned <- ctx.Err()
		return nil, ctx.Err()
	})
	<-started
	h.cancel()
	assert.NoError(t, h.wait(t))

	select {
	case err := <-returned:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}
	assert.Nil(t, h.session.State().Cycle.IDs())
	assert.Zero(t, h.clock.pending())
}

func TestNextFire(t *testing.T) {
	assert.Equal(t, t0.Add(TickInterval), nextFire(t0, t0.Add(time.Millisecond)))
	late := t0.Add(time.Second)
	assert.Equal(t, late.Add(TickInterval), nextFire(t0, late))
}
