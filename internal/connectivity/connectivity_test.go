package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_AttachDetach(t *testing.T) {
	tr := New()
	tr.Attach("p1", "conn-1")
	assert.True(t, tr.IsOnline("p1"))

	ok := tr.Detach("p1", "conn-1")
	assert.True(t, ok)
	assert.False(t, tr.IsOnline("p1"))
}

func TestTracker_StaleDetachDoesNotEvictReconnect(t *testing.T) {
	tr := New()
	tr.Attach("p1", "conn-1")
	tr.Attach("p1", "conn-2") // reconnect races ahead of the old connection's close

	ok := tr.Detach("p1", "conn-1")
	assert.False(t, ok, "a disconnect from a superseded connection must not report success")
	assert.True(t, tr.IsOnline("p1"), "the newer connection must remain attached")
}

func TestTracker_OnlineUids(t *testing.T) {
	tr := New()
	tr.Attach("p1", "conn-1")
	tr.Attach("p2", "conn-2")

	assert.ElementsMatch(t, []string{"p1", "p2"}, tr.OnlineUids())
}
