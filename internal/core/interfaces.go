package core

import "github.com/scrumdeck/scrumdeck/internal/domain"

// Frame is a marshaled wire event.
type Frame []byte

type SessionID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a roster entry and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Participant
	Signal() SignalConnection
}

// StateSnapshot is a consistent point-in-time view of a room, taken
// under the room lock. Sent whole to a joining client.
type StateSnapshot struct {
	CurrentSpeakerIndex int                      `json:"currentSpeakerIndex"`
	TimerState          domain.TimerState        `json:"timerState"`
	Participants        []domain.Participant     `json:"participants"`
	Transcript          []domain.TranscriptEntry `json:"transcript"`
}

// RoomService is the core-facing API of a room. It owns the roster,
// speaker rotation, timer snapshot and transcript, but never touches
// transport resources beyond TrySend.
type RoomService interface {
	Meeting() domain.MeetingID
	ParticipantCount() int
	StartedAt() int64
	Snapshot() StateSnapshot

	Join(sid SessionID, sess MemberSession) StateSnapshot
	Leave(sid SessionID, conn SignalConnection) bool
	AdvanceSpeaker(delta int)
	UpdateTimer(from SessionID, t domain.TimerState)
	AppendTranscript(text, speaker string) bool
	SetRunning(running bool)
}

type RoomInfo struct {
	Meeting          domain.MeetingID `json:"meetingId"`
	ParticipantCount int              `json:"participantCount"`
	Running          bool             `json:"running"`
}
