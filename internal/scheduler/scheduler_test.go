package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimerCreator lets tests fire timers deterministically instead of
// sleeping, same purpose as the teacher's MockPeriodicTickerChannelCreator.
type fakeTimerCreator struct {
	mu      sync.Mutex
	pending []func()
}

type fakeTimer struct {
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	wasRunning := !f.stopped
	f.stopped = true
	return wasRunning
}

func (c *fakeTimerCreator) AfterFunc(d time.Duration, f func()) Timer {
	ft := &fakeTimer{}
	c.mu.Lock()
	c.pending = append(c.pending, func() {
		if !ft.stopped {
			f()
		}
	})
	c.mu.Unlock()
	return ft
}

func (c *fakeTimerCreator) fireAll() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

func TestScheduler_ArmAndFire(t *testing.T) {
	tc := &fakeTimerCreator{}
	s := New(tc)

	var got Fence
	s.Arm("room-1", PhaseTurn, time.Second, Fence{RoomId: "room-1", ExpectedUid: "p1"}, func(f Fence) {
		got = f
	})
	tc.fireAll()

	assert.Equal(t, "p1", got.ExpectedUid)
}

func TestScheduler_ReArmingCancelsPrevious(t *testing.T) {
	tc := &fakeTimerCreator{}
	s := New(tc)

	fired := 0
	s.Arm("room-1", PhaseTurn, time.Second, Fence{ExpectedUid: "first"}, func(f Fence) { fired++ })
	s.Arm("room-1", PhaseTurn, time.Second, Fence{ExpectedUid: "second"}, func(f Fence) { fired++ })

	tc.fireAll()

	require.Equal(t, 1, fired, "only the second arming should fire")
}

func TestScheduler_CancelPreventsFire(t *testing.T) {
	tc := &fakeTimerCreator{}
	s := New(tc)

	fired := false
	s.Arm("room-1", PhaseSteal, time.Second, Fence{}, func(f Fence) { fired = true })
	s.Cancel("room-1", PhaseSteal)
	tc.fireAll()

	assert.False(t, fired)
}

func TestScheduler_CancelAll(t *testing.T) {
	tc := &fakeTimerCreator{}
	s := New(tc)

	fired := 0
	s.Arm("room-1", PhaseTurn, time.Second, Fence{}, func(f Fence) { fired++ })
	s.Arm("room-1", PhaseSteal, time.Second, Fence{}, func(f Fence) { fired++ })
	s.CancelAll("room-1")
	tc.fireAll()

	assert.Equal(t, 0, fired)
}

func TestScheduler_IndependentRoomsDoNotInterfere(t *testing.T) {
	tc := &fakeTimerCreator{}
	s := New(tc)

	var firedRooms []string
	s.Arm("room-1", PhaseTurn, time.Second, Fence{RoomId: "room-1"}, func(f Fence) { firedRooms = append(firedRooms, f.RoomId) })
	s.Arm("room-2", PhaseTurn, time.Second, Fence{RoomId: "room-2"}, func(f Fence) { firedRooms = append(firedRooms, f.RoomId) })
	s.Cancel("room-1", PhaseTurn)
	tc.fireAll()

	assert.Equal(t, []string{"room-2"}, firedRooms)
}
