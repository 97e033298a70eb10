package carousel

import "time"

// Timer is a one-shot scheduled wakeup.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Clock supplies time and one-shot timers to the session, so the loop can
// be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	Schedule(at time.Time) Timer
}

// SystemClock is the wall clock.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Schedule(at time.Time) Timer {
	return sysTimer{time.NewTimer(time.Until(at))}
}

type sysTimer struct{ t *time.Timer }

func (t sysTimer) C() <-chan time.Time { return t.t.C }
func (t sysTimer) Stop() bool          { return t.t.Stop() }

// stoppedTimer never fires; a nil channel blocks forever in select.
type stoppedTimer struct{}

func (stoppedTimer) C() <-chan time.Time { return nil }
func (stoppedTimer) Stop() bool          { return false }
