package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/scrumdeck/scrumdeck/internal/core"
	"github.com/scrumdeck/scrumdeck/internal/domain"
)

const TypeMeetingArchive = "meeting:archive"

// MeetingArchivePayload carries the final room state across the queue.
type MeetingArchivePayload struct {
	MeetingID  string                   `json:"meeting_id"`
	StartedAt  int64                    `json:"started_at"`
	EndedAt    int64                    `json:"ended_at"`
	Transcript []domain.TranscriptEntry `json:"transcript"`
}

func NewMeetingArchiveTask(p MeetingArchivePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal archive payload: %w", err)
	}
	return asynq.NewTask(TypeMeetingArchive, b), nil
}

// Enqueuer implements app.Archiver on top of an asynq client.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisAddr string) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (e *Enqueuer) EnqueueMeetingRecord(meeting domain.MeetingID, startedAt int64, snap core.StateSnapshot) error {
	task, err := NewMeetingArchiveTask(MeetingArchivePayload{
		MeetingID:  string(meeting),
		StartedAt:  startedAt,
		EndedAt:    time.Now().UnixMilli(),
		Transcript: snap.Transcript,
	})
	if err != nil {
		return err
	}
	if _, err := e.client.Enqueue(task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeMeetingArchive, err)
	}
	return nil
}

func (e *Enqueuer) Close() error { return e.client.Close() }
