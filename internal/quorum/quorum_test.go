package quorum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVote_ReachedAtDefaultThreshold(t *testing.T) {
	v := NewVote()
	v.Cast("p1", true)
	assert.False(t, v.Reached([]string{"p1", "p2", "p3"}))

	v.Cast("p2", true)
	assert.True(t, v.Reached([]string{"p1", "p2", "p3"}))
}

func TestVote_ReachedIgnoresUndecidedStragglers(t *testing.T) {
	v := NewVote()
	v.Cast("p1", true)
	v.Cast("p2", true)
	// p3 never votes; quorum still reaches with 2 of 3 online.
	assert.True(t, v.Reached([]string{"p1", "p2", "p3"}))
}

func TestVote_EmptyOnlineNeverReachesQuorum(t *testing.T) {
	v := NewVote()
	assert.False(t, v.Reached(nil))
}

func TestVote_BelowThresholdDoesNotReachQuorum(t *testing.T) {
	v := NewVote()
	v.Cast("p1", true)
	assert.False(t, v.Reached([]string{"p1"}))
}

func TestVote_Tally(t *testing.T) {
	v := NewVote()
	v.Cast("p1", true)
	v.Cast("p2", false)

	yes, total := v.Tally([]string{"p1", "p2", "p3"})
	assert.Equal(t, 1, yes)
	assert.Equal(t, 3, total)
}

func TestVote_CountTracksCastVotes(t *testing.T) {
	v := NewVote()
	assert.Equal(t, 0, v.Count())
	v.Cast("p1", true)
	assert.Equal(t, 1, v.Count())
	v.Cast("p2", false)
	assert.Equal(t, 2, v.Count())
}

func TestVote_Reset(t *testing.T) {
	v := NewVote()
	v.Cast("p1", true)
	v.Cast("p2", true)
	v.Reset()
	assert.False(t, v.Reached([]string{"p1", "p2"}))
	assert.Equal(t, 0, v.Count())
}
