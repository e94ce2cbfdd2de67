package domain

// MeetingID is the externally supplied meeting code. Opaque and
// case-sensitive on the wire; clients normalize display casing.
type MeetingID string

// TimerState is a relayed value computed by exactly one client at a time.
// The server never ticks it or reconciles elapsed against remaining.
type TimerState struct {
	Elapsed   int  `json:"elapsed"`
	Remaining int  `json:"remaining"`
	IsRunning bool `json:"isRunning"`
}

// TranscriptEntry is one utterance. Speaker is captured as a display
// name at insertion time, not a live participant reference.
type TranscriptEntry struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp int64  `json:"timestamp"`
}
