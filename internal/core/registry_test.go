package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	reg := NewRegistry(900)
	a := reg.GetOrCreate("ABC123")
	b := reg.GetOrCreate("ABC123")
	assert.Same(t, a, b)

	other := reg.GetOrCreate("XYZ789")
	assert.NotSame(t, a, other)
}

func TestRemoveIfEmptyKeepsOccupiedRoom(t *testing.T) {
	reg := NewRegistry(900)
	room := reg.GetOrCreate("ABC123")
	join(t, room, "s1", "Alice")

	reg.RemoveIfEmpty("ABC123")

	got, ok := reg.Get("ABC123")
	require.True(t, ok)
	assert.Same(t, room, got)
}

func TestEvictionDropsRoomState(t *testing.T) {
	reg := NewRegistry(900)
	room := reg.GetOrCreate("ABC123")
	join(t, room, "s1", "Alice")
	room.AppendTranscript("yesterday I shipped the importer", "Alice")

	room.Leave("s1", nil)
	reg.RemoveIfEmpty("ABC123")

	_, ok := reg.Get("ABC123")
	assert.False(t, ok)

	fresh := reg.GetOrCreate("ABC123")
	assert.NotSame(t, room, fresh)
	snap := fresh.Snapshot()
	assert.Empty(t, snap.Participants)
	assert.Empty(t, snap.Transcript, "a fresh room must not resurrect the prior transcript")
	assert.Equal(t, 900, snap.TimerState.Remaining)
}

func TestRemoveIfEmptyUnknownCode(t *testing.T) {
	reg := NewRegistry(900)
	reg.RemoveIfEmpty("NOPE") // must not panic
	assert.Empty(t, reg.List())
}

// Disconnect storm: every participant leaves concurrently and each
// departure runs its own eviction check, as the session handlers do.
func TestConcurrentLeaveStorm(t *testing.T) {
	reg := NewRegistry(900)
	room := reg.GetOrCreate("ABC123")

	sids := []SessionID{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	for _, sid := range sids {
		join(t, room, sid, "P-"+string(sid))
	}

	var wg sync.WaitGroup
	for _, sid := range sids {
		wg.Add(1)
		go func(sid SessionID) {
			defer wg.Done()
			if room.Leave(sid, nil) {
				reg.RemoveIfEmpty("ABC123")
			}
		}(sid)
	}
	wg.Wait()

	_, ok := reg.Get("ABC123")
	assert.False(t, ok, "room must be reclaimed exactly when the roster empties")
}

func TestListReportsLiveRooms(t *testing.T) {
	reg := NewRegistry(900)
	room := reg.GetOrCreate("ABC123")
	join(t, room, "s1", "Alice")
	room.SetRunning(true)
	reg.GetOrCreate("IDLE01")

	infos := reg.List()
	require.Len(t, infos, 2)
	byMeeting := make(map[domain.MeetingID]RoomInfo)
	for _, info := range infos {
		byMeeting[info.Meeting] = info
	}
	assert.Equal(t, 1, byMeeting["ABC123"].ParticipantCount)
	assert.True(t, byMeeting["ABC123"].Running)
	assert.Equal(t, 0, byMeeting["IDLE01"].ParticipantCount)
}
