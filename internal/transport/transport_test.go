package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	reads   [][]byte
	writes  [][]byte
	readIdx int
	closed  bool
}

func (f *fakeConn) ReadText() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readIdx >= len(f.reads) {
		return nil, errors.New("eof")
	}
	msg := f.reads[f.readIdx]
	f.readIdx++
	return msg, nil
}

func (f *fakeConn) WriteText(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeConn) Ping() error { return nil }

func (f *fakeConn) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestSession_ReadPump_ForwardsMessagesUntilEOF(t *testing.T) {
	conn := &fakeConn{reads: [][]byte{[]byte(`{"type":"a"}`), []byte(`{"type":"b"}`)}}
	s := NewSession("uid-1", conn)

	var got []string
	closed := false
	s.ReadPump(func(m InboundMessage) {
		got = append(got, string(m.Body))
	}, func() {
		closed = true
	})

	require.Len(t, got, 2)
	assert.Equal(t, `{"type":"a"}`, got[0])
	assert.True(t, closed)
}

func TestSession_Send_DoesNotBlockOnFullOutbox(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession("uid-1", conn)

	for i := 0; i < 512; i++ {
		s.Send([]byte("x"))
	}
	// Should return without deadlocking even though outbox capacity is 256.
}
