package draft

import (
	"time"
)

// Trigger names what caused a flush.
type Trigger string

const (
	TriggerImmediate Trigger = "immediate"
	TriggerDebounce  Trigger = "debounce"
	TriggerThrottle  Trigger = "throttle"
	TriggerMaxWait   Trigger = "max_wait"
	TriggerManual    Trigger = "manual"
	TriggerClose     Trigger = "close"
	// TriggerRemote marks a record written on behalf of a remote client.
	TriggerRemote Trigger = "remote"
)

// Tick is delivered to the scheduler's fire callback when a timer expires.
type Tick struct {
	Trigger Trigger
	id      uint64
}

// Scheduler decides when a pending value is written. It is not safe for
// concurrent use: the owner serializes every call, including the handling of
// the fire callback, behind its own lock, and checks Due before flushing.
type Scheduler struct {
	cfg   Config
	clock Clock
	fire  func(Tick)

	timer    slot
	maxTimer slot
	seq      uint64
	pending  bool
	lastSave time.Time
}

// slot holds one armed timer and the id its tick carries. A tick whose id
// no longer matches its slot comes from a timer that was replaced.
type slot struct {
	timer Timer
	id    uint64
}

// NewScheduler creates a scheduler. fire runs on the timer's goroutine.
func NewScheduler(cfg Config, clock Clock, fire func(Tick)) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{cfg: cfg, clock: clock, fire: fire}
}

// Schedule records that a new value is pending. It returns true when the
// caller should flush right away instead of waiting for a timer.
func (s *Scheduler) Schedule() bool {
	// a save stamped ahead of the local clock counts as just now
	elapsed := max(s.clock.Now().Sub(s.lastSave), 0)

	switch s.cfg.Strategy {
	case StrategyDebounce:
		s.pending = true
		s.stop(&s.timer)
		s.arm(&s.timer, s.cfg.DebounceDelay, TriggerDebounce)
		return false

	case StrategyThrottle:
		if elapsed >= s.cfg.ThrottleDelay {
			return true
		}
		s.pending = true
		if s.timer.timer == nil {
			s.arm(&s.timer, s.cfg.ThrottleDelay-elapsed, TriggerThrottle)
		}
		return false

	default:
		if elapsed >= s.cfg.ThrottleDelay {
			return true
		}
		if !s.pending {
			s.arm(&s.maxTimer, s.cfg.MaxWait, TriggerMaxWait)
		}
		s.pending = true
		s.stop(&s.timer)
		s.arm(&s.timer, s.cfg.DebounceDelay, TriggerDebounce)
		return false
	}
}

// Due reports whether tick comes from a timer that is still armed. Ticks
// from timers that were cancelled or superseded are stale.
func (s *Scheduler) Due(t Tick) bool {
	if !s.pending || t.id == 0 {
		return false
	}
	return t.id == s.timer.id || t.id == s.maxTimer.id
}

// MarkSaved ends the pending period after a successful write at.
func (s *Scheduler) MarkSaved(at time.Time) {
	s.Cancel()
	s.lastSave = at
}

// Cancel clears both timers without saving.
func (s *Scheduler) Cancel() {
	s.stop(&s.timer)
	s.stop(&s.maxTimer)
	s.pending = false
}

// SetLastSave seeds the throttle reference, e.g. from a hydrated record.
func (s *Scheduler) SetLastSave(t time.Time) {
	s.lastSave = t
}

// LastSave returns the time of the last recorded save.
func (s *Scheduler) LastSave() time.Time {
	return s.lastSave
}

// Pending reports whether a flush is scheduled.
func (s *Scheduler) Pending() bool {
	return s.pending
}

func (s *Scheduler) arm(sl *slot, d time.Duration, trigger Trigger) {
	s.seq++
	tick := Tick{Trigger: trigger, id: s.seq}
	sl.id = s.seq
	sl.timer = s.clock.AfterFunc(d, func() { s.fire(tick) })
}

func (s *Scheduler) stop(sl *slot) {
	if sl.timer != nil {
		sl.timer.Stop()
	}
	*sl = slot{}
}
