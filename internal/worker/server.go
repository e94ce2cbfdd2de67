package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// RecordStore is the slice of the store the worker needs.
type RecordStore interface {
	SaveMeetingRecord(ctx context.Context, record *domain.MeetingRecord) error
}

// Server runs the archive consumer. It lives in the same process as the
// coordinator but only ever talks to the store.
type Server struct {
	srv   *asynq.Server
	store RecordStore
}

func NewServer(redisAddr string, store RecordStore) *Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 5,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("module", "worker").Str("task_type", task.Type()).Msg("task failed")
			}),
		},
	)
	return &Server{srv: srv, store: store}
}

// Start blocks; run it in its own goroutine.
func (s *Server) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMeetingArchive, s.HandleMeetingArchive)
	log.Info().Str("module", "worker").Msg("archive worker started")
	return s.srv.Run(mux)
}

func (s *Server) Shutdown() {
	log.Info().Str("module", "worker").Msg("archive worker shutting down")
	s.srv.Shutdown()
}

func (s *Server) HandleMeetingArchive(ctx context.Context, t *asynq.Task) error {
	var p MeetingArchivePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal archive payload: %v: %w", err, asynq.SkipRetry)
	}

	record := &domain.MeetingRecord{
		MeetingID: p.MeetingID,
		StartedAt: p.StartedAt,
		EndedAt:   p.EndedAt,
		Completed: true,
	}
	for _, entry := range p.Transcript {
		record.Transcript = append(record.Transcript, domain.TranscriptRow{
			Speaker: entry.Speaker,
			Text:    entry.Text,
			At:      entry.Timestamp,
		})
	}

	if err := s.store.SaveMeetingRecord(ctx, record); err != nil {
		return fmt.Errorf("archive meeting %s: %w", p.MeetingID, err)
	}
	log.Info().Str("module", "worker").Str("meeting", p.MeetingID).
		Int("transcript_entries", len(p.Transcript)).Msg("meeting archived")
	return nil
}
