package domain

import "time"

// Scrum is a persisted meeting definition. Live rooms reference it only
// by meeting code; the realtime core never reads these records.
type Scrum struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Name            string     `gorm:"size:120;not null" json:"name"`
	Color           string     `gorm:"size:32" json:"color"`
	DurationMinutes int        `json:"durationMinutes"`
	SpeakerSeconds  int        `json:"speakerSeconds"`
	Attendees       []Attendee `gorm:"constraint:OnDelete:CASCADE" json:"attendees"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type Attendee struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	ScrumID string `gorm:"index;size:36" json:"-"`
	Name    string `gorm:"size:120" json:"name"`
	Color   string `gorm:"size:32" json:"color"`
}

// MeetingRecord is the archived outcome of one live meeting, written by
// the background worker after end-meeting.
type MeetingRecord struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MeetingID  string          `gorm:"index;size:64" json:"meetingId"`
	StartedAt  int64           `json:"startedAt"`
	EndedAt    int64           `json:"endedAt"`
	Completed  bool            `json:"completed"`
	Transcript []TranscriptRow `gorm:"constraint:OnDelete:CASCADE" json:"transcript"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type TranscriptRow struct {
	ID              uint   `gorm:"primaryKey" json:"-"`
	MeetingRecordID uint   `gorm:"index" json:"-"`
	Speaker         string `gorm:"size:120" json:"speaker"`
	Text            string `json:"text"`
	At              int64  `json:"at"`
}

// Account is a sign-in identity. The realtime core only ever sees the
// display name and an opaque id derived from it.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:254" json:"email"`
	PasswordHash string    `gorm:"size:72" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
