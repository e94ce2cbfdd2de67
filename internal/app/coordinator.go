package app

import (
	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/core"
	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// Archiver receives the final state of an ended meeting for background
// persistence. Implemented by the asynq enqueuer; nil disables archival.
type Archiver interface {
	EnqueueMeetingRecord(meeting domain.MeetingID, startedAt int64, snap core.StateSnapshot) error
}

// Coordinator is the use-case layer between the signal adapter and the
// room registry. Every inbound client event lands here; every method on
// an unknown meeting is a silent no-op, so stale or reordered events
// from a slow network never surface as client-visible errors.
type Coordinator struct {
	Rooms   *core.Registry
	Archive Archiver
}

func NewCoordinator(rooms *core.Registry, archive Archiver) *Coordinator {
	return &Coordinator{Rooms: rooms, Archive: archive}
}

// Join admits the session into the meeting's room, creating the room on
// first join. The returned snapshot mirrors what the room already pushed
// to the joining connection.
func (c *Coordinator) Join(sid core.SessionID, meeting domain.MeetingID, name string, conn core.SignalConnection) (core.StateSnapshot, error) {
	p, err := domain.NewParticipant(string(sid), name)
	if err != nil {
		return core.StateSnapshot{}, err
	}
	room := c.Rooms.GetOrCreate(meeting)
	return room.Join(sid, core.NewMemberSession(p, conn)), nil
}

// Leave removes the session from its room and reclaims the room if that
// was the last participant. conn, when non-nil, restricts the leave to
// the transport it came from; a superseded connection's cleanup is then
// a no-op.
func (c *Coordinator) Leave(sid core.SessionID, meeting domain.MeetingID, conn core.SignalConnection) {
	room, ok := c.Rooms.Get(meeting)
	if !ok {
		return
	}
	if room.Leave(sid, conn) {
		c.Rooms.RemoveIfEmpty(meeting)
	}
}

func (c *Coordinator) NextSpeaker(meeting domain.MeetingID) {
	if room, ok := c.Rooms.Get(meeting); ok {
		room.AdvanceSpeaker(1)
	}
}

func (c *Coordinator) UpdateTimer(sid core.SessionID, meeting domain.MeetingID, t domain.TimerState) {
	if room, ok := c.Rooms.Get(meeting); ok {
		room.UpdateTimer(sid, t)
	}
}

func (c *Coordinator) AppendTranscript(meeting domain.MeetingID, text, speaker string) {
	if room, ok := c.Rooms.Get(meeting); ok {
		room.AppendTranscript(text, speaker)
	}
}

func (c *Coordinator) Start(meeting domain.MeetingID) {
	if room, ok := c.Rooms.Get(meeting); ok {
		room.SetRunning(true)
	}
}

// End stops the meeting and, when archival is wired, hands the final
// snapshot to the background queue. Enqueue failures are logged only;
// the live room protocol has no error events.
func (c *Coordinator) End(meeting domain.MeetingID) {
	room, ok := c.Rooms.Get(meeting)
	if !ok {
		return
	}
	room.SetRunning(false)
	if c.Archive == nil {
		return
	}
	if err := c.Archive.EnqueueMeetingRecord(meeting, room.StartedAt(), room.Snapshot()); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").
			Str("meeting", string(meeting)).Msg("archive enqueue failed")
	}
}
