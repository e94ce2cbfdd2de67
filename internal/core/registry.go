package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// Registry is the process-wide mapping from meeting code to live room.
// Rooms are created lazily on first join and evicted when their roster
// empties. Constructed once in main and injected, never a package global.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.MeetingID]RoomService
	timer domain.TimerState // initial timer for fresh rooms
}

func NewRegistry(defaultRemaining int) *Registry {
	return &Registry{
		rooms: make(map[domain.MeetingID]RoomService),
		timer: domain.TimerState{Remaining: defaultRemaining},
	}
}

func (reg *Registry) GetOrCreate(meeting domain.MeetingID) RoomService {
	reg.mu.RLock()
	room, ok := reg.rooms[meeting]
	reg.mu.RUnlock()
	if ok {
		return room
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok = reg.rooms[meeting]; ok {
		return room
	}
	room = NewRoom(meeting, reg.timer)
	reg.rooms[meeting] = room
	log.Info().Str("module", "core.registry").Str("meeting", string(meeting)).Msg("room created")
	return room
}

func (reg *Registry) Get(meeting domain.MeetingID) (RoomService, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[meeting]
	return room, ok
}

// RemoveIfEmpty evicts the room iff its roster is empty. Safe to call
// once per removal: concurrent callers for the same meeting both observe
// the count under the registry lock, so the entry is deleted at most once
// and never while a member remains.
func (reg *Registry) RemoveIfEmpty(meeting domain.MeetingID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[meeting]
	if !ok || room.ParticipantCount() > 0 {
		return
	}
	delete(reg.rooms, meeting)
	log.Info().Str("module", "core.registry").Str("meeting", string(meeting)).Msg("room evicted")
}

func (reg *Registry) List() []RoomInfo {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]RoomInfo, 0, len(reg.rooms))
	for meeting, room := range reg.rooms {
		snap := room.Snapshot()
		out = append(out, RoomInfo{
			Meeting:          meeting,
			ParticipantCount: len(snap.Participants),
			Running:          snap.TimerState.IsRunning,
		})
	}
	return out
}
