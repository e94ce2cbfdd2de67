package worker

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

type memRecordStore struct {
	records []*domain.MeetingRecord
	err     error
}

func (s *memRecordStore) SaveMeetingRecord(_ context.Context, record *domain.MeetingRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func TestHandleMeetingArchive(t *testing.T) {
	st := &memRecordStore{}
	srv := &Server{store: st}

	task, err := NewMeetingArchiveTask(MeetingArchivePayload{
		MeetingID: "ABC123",
		StartedAt: 1700000000000,
		EndedAt:   1700000900000,
		Transcript: []domain.TranscriptEntry{
			{Text: "shipped the importer", Speaker: "Alice", Timestamp: 1700000100000},
			{Text: "reviewing the migration", Speaker: "Bob", Timestamp: 1700000200000},
		},
	})
	require.NoError(t, err)

	require.NoError(t, srv.HandleMeetingArchive(context.Background(), task))

	require.Len(t, st.records, 1)
	record := st.records[0]
	assert.Equal(t, "ABC123", record.MeetingID)
	assert.True(t, record.Completed)
	require.Len(t, record.Transcript, 2)
	assert.Equal(t, "Alice", record.Transcript[0].Speaker)
	assert.Equal(t, int64(1700000200000), record.Transcript[1].At)
}

func TestHandleMeetingArchiveBadPayloadSkipsRetry(t *testing.T) {
	srv := &Server{store: &memRecordStore{}}

	task := asynq.NewTask(TypeMeetingArchive, []byte("not json"))
	err := srv.HandleMeetingArchive(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "a malformed payload must not be retried")
}

func TestHandleMeetingArchiveStoreError(t *testing.T) {
	srv := &Server{store: &memRecordStore{err: assert.AnError}}

	task, err := NewMeetingArchiveTask(MeetingArchivePayload{MeetingID: "ABC123"})
	require.NoError(t, err)

	assert.Error(t, srv.HandleMeetingArchive(context.Background(), task), "store failures must bubble up for retry")
}
