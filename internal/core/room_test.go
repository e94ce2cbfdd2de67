package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// fakeConn records every frame a room pushes at it.
type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range c.events(t) {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

func join(t *testing.T, room RoomService, sid SessionID, name string) (*fakeConn, StateSnapshot) {
	t.Helper()
	p, err := domain.NewParticipant(string(sid), name)
	require.NoError(t, err)
	conn := &fakeConn{}
	snap := room.Join(sid, NewMemberSession(p, conn))
	return conn, snap
}

func assertRosterInvariant(t *testing.T, snap StateSnapshot) {
	t.Helper()
	if len(snap.Participants) == 0 {
		return
	}
	require.GreaterOrEqual(t, snap.CurrentSpeakerIndex, 0)
	require.Less(t, snap.CurrentSpeakerIndex, len(snap.Participants))
	speaking := 0
	for i, p := range snap.Participants {
		if p.IsSpeaking {
			speaking++
			assert.Equal(t, snap.CurrentSpeakerIndex, i, "speaking flag disagrees with index")
		}
	}
	assert.Equal(t, 1, speaking, "exactly one participant must be speaking")
}

func TestJoinFirstParticipantSpeaks(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{Remaining: 900})
	conn, snap := join(t, room, "s1", "Alice")

	require.Len(t, snap.Participants, 1)
	assert.Equal(t, 0, snap.CurrentSpeakerIndex)
	assert.Equal(t, "Alice", snap.Participants[0].Name)
	assert.True(t, snap.Participants[0].IsSpeaking)
	assert.Equal(t, 900, snap.TimerState.Remaining)
	assert.False(t, snap.TimerState.IsRunning)

	evts := conn.events(t)
	require.Len(t, evts, 2)
	assert.Equal(t, EvtMeetingState, evts[0]["type"], "snapshot must arrive before the roster delta")
	assert.Equal(t, EvtParticipantsUpdated, evts[1]["type"])
}

func TestJoinSecondKeepsSpeaker(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{Remaining: 900})
	alice, _ := join(t, room, "s1", "Alice")
	alice.reset()

	_, snap := join(t, room, "s2", "Bob")

	require.Len(t, snap.Participants, 2)
	assert.Equal(t, 0, snap.CurrentSpeakerIndex)
	assert.True(t, snap.Participants[0].IsSpeaking)
	assert.False(t, snap.Participants[1].IsSpeaking)

	updated := alice.eventsOfType(t, EvtParticipantsUpdated)
	require.Len(t, updated, 1)
	assert.Len(t, updated[0]["participants"], 2)
}

func TestAdvanceSpeakerCyclic(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	a, _ := join(t, room, "s1", "Alice")
	b, _ := join(t, room, "s2", "Bob")
	join(t, room, "s3", "Carol")
	a.reset()
	b.reset()

	room.AdvanceSpeaker(1)
	snap := room.Snapshot()
	assert.Equal(t, 1, snap.CurrentSpeakerIndex)
	assertRosterInvariant(t, snap)

	// speaker-changed goes to the whole room, caller included
	require.Len(t, a.eventsOfType(t, EvtSpeakerChanged), 1)
	require.Len(t, b.eventsOfType(t, EvtSpeakerChanged), 1)
	assert.EqualValues(t, 1, b.eventsOfType(t, EvtSpeakerChanged)[0]["currentSpeakerIndex"])

	room.AdvanceSpeaker(1)
	room.AdvanceSpeaker(1)
	assert.Equal(t, 0, room.Snapshot().CurrentSpeakerIndex, "N advances must return to the start")
}

func TestAdvanceSpeakerBackwards(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	join(t, room, "s1", "Alice")
	join(t, room, "s2", "Bob")

	room.AdvanceSpeaker(-1)
	snap := room.Snapshot()
	assert.Equal(t, 1, snap.CurrentSpeakerIndex)
	assertRosterInvariant(t, snap)
}

func TestAdvanceSpeakerEmptyRoom(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	room.AdvanceSpeaker(1) // must not panic
	assert.Equal(t, 0, room.Snapshot().CurrentSpeakerIndex)
}

func TestRejoinRebindsTransport(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	oldConn, _ := join(t, room, "s1", "Alice")
	join(t, room, "s2", "Bob")

	newConn, snap := join(t, room, "s1", "Alice")
	require.Len(t, snap.Participants, 2, "a rejoin must not duplicate the roster entry")
	assert.True(t, snap.Participants[0].IsSpeaking, "the rejoined entry keeps its rotation slot")

	oldConn.reset()
	newConn.reset()
	room.AdvanceSpeaker(1)

	assert.Empty(t, oldConn.events(t), "the superseded connection must stop receiving")
	require.Len(t, newConn.eventsOfType(t, EvtSpeakerChanged), 1)
}

func TestLeaveFromSupersededConnIsNoop(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	oldConn, _ := join(t, room, "s1", "Alice")
	newConn, _ := join(t, room, "s1", "Alice")

	assert.False(t, room.Leave("s1", oldConn), "the old socket's late cleanup must not evict the live entry")
	assert.Equal(t, 1, room.ParticipantCount())

	assert.True(t, room.Leave("s1", newConn))
	assert.Equal(t, 0, room.ParticipantCount())
}

func TestLeaveClampsSpeakerIndex(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	join(t, room, "s1", "Alice")
	join(t, room, "s2", "Bob")
	join(t, room, "s3", "Carol")

	room.AdvanceSpeaker(1)
	room.AdvanceSpeaker(1) // Carol speaks

	require.True(t, room.Leave("s3", nil))
	snap := room.Snapshot()
	assert.Equal(t, 0, snap.CurrentSpeakerIndex, "index 2 mod 2 participants")
	assertRosterInvariant(t, snap)
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{Remaining: 900})
	conn, before := join(t, room, "s1", "Alice")
	conn.reset()

	assert.False(t, room.Leave("ghost", nil))

	after := room.Snapshot()
	assert.Equal(t, before, after)
	assert.Empty(t, conn.events(t), "no broadcast for a stale leave")
}

func TestRosterInvariantAcrossSequences(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	sids := []SessionID{"s1", "s2", "s3", "s4", "s5"}
	for i, sid := range sids {
		join(t, room, sid, fmt.Sprintf("P%d", i))
		assertRosterInvariant(t, room.Snapshot())
	}
	room.AdvanceSpeaker(1)
	room.AdvanceSpeaker(1)
	for _, sid := range []SessionID{"s2", "s5", "s1", "s3", "s4"} {
		room.Leave(sid, nil)
		assertRosterInvariant(t, room.Snapshot())
	}
	assert.Equal(t, 0, room.ParticipantCount())
}

func TestTimerUpdateExcludesSender(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{Remaining: 900})
	a, _ := join(t, room, "s1", "Alice")
	b, _ := join(t, room, "s2", "Bob")
	a.reset()
	b.reset()

	room.UpdateTimer("s1", domain.TimerState{Elapsed: 10, Remaining: 890, IsRunning: true})

	assert.Empty(t, a.eventsOfType(t, EvtTimerSynced), "sender must not receive its own timer echo")
	synced := b.eventsOfType(t, EvtTimerSynced)
	require.Len(t, synced, 1)
	assert.EqualValues(t, 10, synced[0]["elapsed"])
	assert.EqualValues(t, 890, synced[0]["remaining"])
	assert.Equal(t, true, synced[0]["isRunning"])

	snap := room.Snapshot()
	assert.Equal(t, 890, snap.TimerState.Remaining)
	assert.True(t, snap.TimerState.IsRunning)
}

func TestTimerLastWriterWins(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	join(t, room, "s1", "Alice")
	join(t, room, "s2", "Bob")

	room.UpdateTimer("s1", domain.TimerState{Elapsed: 10, Remaining: 890, IsRunning: true})
	room.UpdateTimer("s2", domain.TimerState{Elapsed: 3, Remaining: 897, IsRunning: true})

	assert.Equal(t, 3, room.Snapshot().TimerState.Elapsed, "no validation, arrival order decides")
}

func TestTranscriptWhitespaceDropped(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	conn, _ := join(t, room, "s1", "Alice")
	conn.reset()

	assert.False(t, room.AppendTranscript("", "Alice"))
	assert.False(t, room.AppendTranscript("   \t\n", "Alice"))
	assert.Empty(t, room.Snapshot().Transcript)
	assert.Empty(t, conn.events(t))
}

func TestTranscriptAppendAndBroadcast(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{})
	a, _ := join(t, room, "s1", "Alice")
	b, _ := join(t, room, "s2", "Bob")
	a.reset()
	b.reset()

	require.True(t, room.AppendTranscript("covered tickets, no blockers", "Alice"))

	snap := room.Snapshot()
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, "Alice", snap.Transcript[0].Speaker)
	assert.Greater(t, snap.Transcript[0].Timestamp, int64(0), "timestamp is server-assigned")

	for _, conn := range []*fakeConn{a, b} {
		received := conn.eventsOfType(t, EvtTranscriptReceived)
		require.Len(t, received, 1)
		assert.Equal(t, "covered tickets, no blockers", received[0]["text"])
	}
}

func TestStartEndBroadcast(t *testing.T) {
	room := NewRoom("ABC123", domain.TimerState{Remaining: 900})
	a, _ := join(t, room, "s1", "Alice")
	b, _ := join(t, room, "s2", "Bob")
	a.reset()
	b.reset()

	room.SetRunning(true)
	assert.True(t, room.Snapshot().TimerState.IsRunning)
	assert.Greater(t, room.StartedAt(), int64(0))
	require.Len(t, a.eventsOfType(t, EvtMeetingStarted), 1)
	require.Len(t, b.eventsOfType(t, EvtMeetingStarted), 1)

	// starting twice is harmless
	room.SetRunning(true)
	assert.True(t, room.Snapshot().TimerState.IsRunning)

	room.SetRunning(false)
	assert.False(t, room.Snapshot().TimerState.IsRunning)
	require.Len(t, a.eventsOfType(t, EvtMeetingEnded), 1)
}
