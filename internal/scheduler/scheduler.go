// Package scheduler arms and fires the per-room, per-phase one-shot timers
// the turn/steal state machine needs (spec.md §4.4): turn timeouts and
// steal timeouts. Grounded on the injectable PeriodicTickerChannelCreator
// interface in rakaoran-GuessTheObject's game/lobby.go/mocks_test.go — the
// same "don't call time.NewTimer directly, go through an interface" idiom,
// adapted from a repeating ticker to a cancelable one-shot timer.
package scheduler

import (
	"sync"
	"time"
)

// Phase names the timer key within a room. Only one timer per (room, phase)
// may be armed at a time; arming again cancels the previous one.
type Phase string

const (
	PhaseTurn  Phase = "turn"
	PhaseSteal Phase = "steal"
	PhaseQuorum Phase = "quorum"
)

// Fence is opaque state the scheduler hands back unexamined on fire, so the
// caller can re-validate that the room is still in the state the timer was
// armed for before acting on it (spec.md §4.4's stale-fencing requirement).
type Fence struct {
	RoomId        string
	Phase         Phase
	QuestionIndex int
	ExpectedUid   string
	Generation    int64
}

// TimerCreator abstracts time.AfterFunc for tests, mirroring the teacher's
// ticker-creator interface.
type TimerCreator interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

type realTimerCreator struct{}

func (realTimerCreator) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewRealTimerCreator returns the production TimerCreator backed by the
// standard library.
func NewRealTimerCreator() TimerCreator { return realTimerCreator{} }

// Scheduler arms one-shot, stale-fenced timers per room. A single Scheduler
// instance is shared across rooms; each room's armed timer is tracked
// independently by roomId+phase key.
type Scheduler struct {
	mu      sync.Mutex
	timers  TimerCreator
	armed   map[string]armedTimer
	genSeq  int64
}

type armedTimer struct {
	timer      Timer
	generation int64
}

func New(timers TimerCreator) *Scheduler {
	return &Scheduler{timers: timers, armed: make(map[string]armedTimer)}
}

func key(roomId string, phase Phase) string { return roomId + "|" + string(phase) }

// Arm cancels any existing timer for (roomId, phase) and schedules a new
// one. onFire receives the Fence that was active when the timer fired; the
// caller must re-check it against current room state before acting.
func (s *Scheduler) Arm(roomId string, phase Phase, d time.Duration, fence Fence, onFire func(Fence)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(roomId, phase)
	if prev, ok := s.armed[k]; ok {
		prev.timer.Stop()
	}

	s.genSeq++
	fence.Generation = s.genSeq
	gen := s.genSeq

	var timer Timer
	timer = s.timers.AfterFunc(d, func() {
		s.mu.Lock()
		current, ok := s.armed[k]
		stillCurrent := ok && current.generation == gen
		if stillCurrent {
			delete(s.armed, k)
		}
		s.mu.Unlock()

		if stillCurrent {
			onFire(fence)
		}
	})

	s.armed[k] = armedTimer{timer: timer, generation: gen}
}

// Cancel stops any timer armed for (roomId, phase), if one exists.
func (s *Scheduler) Cancel(roomId string, phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(roomId, phase)
	if t, ok := s.armed[k]; ok {
		t.timer.Stop()
		delete(s.armed, k)
	}
}

// CancelAll stops every timer armed for a room, used on room teardown.
func (s *Scheduler) CancelAll(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, phase := range []Phase{PhaseTurn, PhaseSteal, PhaseQuorum} {
		k := key(roomId, phase)
		if t, ok := s.armed[k]; ok {
			t.timer.Stop()
			delete(s.armed, k)
		}
	}
}
