// Package carousel drives the unattended slide rotation: a pure state
// reducer, the key router and the session loop that owns timers and
// background refreshes.
package carousel

import (
	"time"

	"github.com/pable/go-pong-stats/internal/slides"
)

const (
	// SlideInterval is how long a slide stays up while playing.
	SlideInterval = 8 * time.Second
	// TickInterval is the progress timer period.
	TickInterval = 50 * time.Millisecond
	// HighlightSlide is the catalog index whose exit advances the player cursor.
	HighlightSlide = slides.HighlightIndex
)

// State is the rotation state. The zero value is the pre-payload state:
// no slides, playing, nothing locked.
type State struct {
	Slide      int
	Slides     int // 0 until the first payload arrives
	Paused     bool
	Elapsed    time.Duration
	Progress   float64 // Elapsed / SlideInterval, in [0, 1)
	LastTick   time.Time
	PickerOpen bool
	Cursor     int
	Cycle      Cycle
}

// FeaturedPlayer is the player on the highlight slide.
func (s State) FeaturedPlayer() (int64, bool) {
	return s.Cycle.At(s.Cursor)
}

type CommandType string

const (
	CmdAdvance       CommandType = "Advance"
	CmdTick          CommandType = "Tick"
	CmdTogglePause   CommandType = "TogglePause"
	CmdTogglePicker  CommandType = "TogglePicker"
	CmdClosePicker   CommandType = "ClosePicker"
	CmdFocusPlayer   CommandType = "FocusPlayer"
	CmdPayloadLoaded CommandType = "PayloadLoaded"
)

type Command struct {
	Type      CommandType
	Dir       int       // Advance: +1 or -1
	Now       time.Time // Tick
	PlayerID  int64     // FocusPlayer
	PlayerIDs []int64   // PayloadLoaded, leaderboard order
	Slides    int       // PayloadLoaded
}

func Advance(dir int) Command            { return Command{Type: CmdAdvance, Dir: dir} }
func Tick(now time.Time) Command         { return Command{Type: CmdTick, Now: now} }
func TogglePause() Command               { return Command{Type: CmdTogglePause} }
func TogglePicker() Command              { return Command{Type: CmdTogglePicker} }
func ClosePicker() Command               { return Command{Type: CmdClosePicker} }
func FocusPlayer(playerID int64) Command { return Command{Type: CmdFocusPlayer, PlayerID: playerID} }

// PayloadLoaded reports a fresh payload with the given leaderboard ids.
func PayloadLoaded(playerIDs []int64) Command {
	return Command{Type: CmdPayloadLoaded, PlayerIDs: playerIDs, Slides: slides.Count()}
}

// Effect is a side effect the session must perform after a transition.
type Effect string

const (
	// EffectRefresh asks for a background payload refetch.
	EffectRefresh Effect = "Refresh"
)

// Reduce applies cmd to s. It never blocks and never fails; commands that
// do not apply return s unchanged.
func Reduce(s State, cmd Command) (State, []Effect) {
	next, effects := apply(s, cmd)
	return leaveHighlight(s, next), effects
}

func apply(s State, cmd Command) (State, []Effect) {
	switch cmd.Type {
	case CmdAdvance:
		return advance(s, cmd.Dir)
	case CmdTick:
		return tick(s, cmd.Now)
	case CmdTogglePause:
		s.Paused = !s.Paused
		return s, nil
	case CmdTogglePicker:
		s.PickerOpen = !s.PickerOpen
		return s, nil
	case CmdClosePicker:
		s.PickerOpen = false
		return s, nil
	case CmdFocusPlayer:
		return focus(s, cmd.PlayerID)
	case CmdPayloadLoaded:
		return loaded(s, cmd), nil
	default:
		return s, nil
	}
}

// advance moves one slide in dir, wrapping, and restarts the countdown.
// With one slide or fewer there is nowhere to go.
func advance(s State, dir int) (State, []Effect) {
	if s.Slides <= 1 || dir == 0 {
		return s, nil
	}
	step := 1
	if dir < 0 {
		step = -1
	}
	s.Slide = ((s.Slide+step)%s.Slides + s.Slides) % s.Slides
	s.Elapsed, s.Progress = 0, 0
	return s, []Effect{EffectRefresh}
}

// tick accumulates wall time since the previous tick. The first tick only
// records a reference point, and a paused carousel keeps the reference
// fresh so that resuming does not jump.
func tick(s State, now time.Time) (State, []Effect) {
	if s.LastTick.IsZero() || now.Before(s.LastTick) {
		s.LastTick = now
		return s, nil
	}
	delta := now.Sub(s.LastTick)
	s.LastTick = now
	if s.Paused {
		return s, nil
	}
	s.Elapsed += delta
	if s.Elapsed >= SlideInterval {
		s.Elapsed, s.Progress = 0, 0
		return advance(s, 1)
	}
	s.Progress = float64(s.Elapsed) / float64(SlideInterval)
	return s, nil
}

// focus jumps to the highlight slide showing playerID and pauses there.
// Unknown players are ignored.
func focus(s State, playerID int64) (State, []Effect) {
	idx, ok := s.Cycle.IndexOf(playerID)
	if !ok || s.Slides <= HighlightSlide {
		return s, nil
	}
	moved := s.Slide != HighlightSlide
	s.Cursor = idx
	s.Slide = HighlightSlide
	s.Elapsed, s.Progress = 0, 0
	s.Paused = true
	s.PickerOpen = false
	if moved {
		return s, []Effect{EffectRefresh}
	}
	return s, nil
}

func loaded(s State, cmd Command) State {
	s.Slides = cmd.Slides
	if s.Slide >= s.Slides {
		s.Slide = 0
	}
	s.Cycle = s.Cycle.Lock(cmd.PlayerIDs)
	return s
}

// leaveHighlight advances the player cursor once per exit from the
// highlight slide, whatever caused the exit.
func leaveHighlight(prev, next State) State {
	if prev.Slide != HighlightSlide || next.Slide == HighlightSlide || prev.Slides == 0 {
		return next
	}
	if n := next.Cycle.Len(); n > 0 {
		next.Cursor = (next.Cursor + 1) % n
	}
	return next
}
