package core

import "github.com/scrumdeck/scrumdeck/internal/domain"

// Outbound event names. Every wire event is a JSON object whose "type"
// field carries one of these.
const (
	EvtMeetingState        = "meeting-state"
	EvtParticipantsUpdated = "participants-updated"
	EvtSpeakerChanged      = "speaker-changed"
	EvtTranscriptReceived  = "transcript-received"
	EvtTimerSynced         = "timer-synced"
	EvtMeetingStarted      = "meeting-started"
	EvtMeetingEnded        = "meeting-ended"
)

type meetingStateEvent struct {
	Type                string                   `json:"type"`
	CurrentSpeakerIndex int                      `json:"currentSpeakerIndex"`
	TimerState          domain.TimerState        `json:"timerState"`
	Participants        []domain.Participant     `json:"participants"`
	Transcript          []domain.TranscriptEntry `json:"transcript"`
}

type participantsUpdatedEvent struct {
	Type         string               `json:"type"`
	Participants []domain.Participant `json:"participants"`
}

type speakerChangedEvent struct {
	Type                string `json:"type"`
	CurrentSpeakerIndex int    `json:"currentSpeakerIndex"`
}

type transcriptReceivedEvent struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp int64  `json:"timestamp"`
}

type timerSyncedEvent struct {
	Type      string `json:"type"`
	Elapsed   int    `json:"elapsed"`
	Remaining int    `json:"remaining"`
	IsRunning bool   `json:"isRunning"`
}

type typeOnlyEvent struct {
	Type string `json:"type"`
}
