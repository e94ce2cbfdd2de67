package core

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// roomImpl is a threadsafe in-memory room. All mutations and the
// broadcasts they cause run under one lock, so every member observes the
// same causal order of events for this room. It never closes
// adapter-owned resources.
type roomImpl struct {
	meeting domain.MeetingID

	mu         sync.Mutex
	order      []SessionID // join order = speaking order
	bySID      map[SessionID]MemberSession
	speakerIdx int
	timer      domain.TimerState
	transcript []domain.TranscriptEntry
	startedAt  int64
}

func NewRoom(meeting domain.MeetingID, timer domain.TimerState) RoomService {
	return &roomImpl{
		meeting: meeting,
		bySID:   make(map[SessionID]MemberSession),
		timer:   timer,
	}
}

func (r *roomImpl) Meeting() domain.MeetingID { return r.meeting }

func (r *roomImpl) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *roomImpl) StartedAt() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt
}

func (r *roomImpl) Snapshot() StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Join admits a participant; it always succeeds. A rejoin with a known
// session id rebinds the roster entry to the new transport, keeping its
// rotation slot; the superseded connection stops receiving and its late
// Leave is ignored. The joiner gets meeting-state, then the whole room
// gets participants-updated.
func (r *roomImpl) Join(sid SessionID, sess MemberSession) StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.bySID[sid]; ok {
		meta := sess.Meta()
		meta.JoinedAt = old.Meta().JoinedAt
		meta.IsSpeaking = old.Meta().IsSpeaking
		r.bySID[sid] = sess
	} else {
		sess.Meta().IsSpeaking = len(r.order) == 0
		if len(r.order) == 0 {
			r.speakerIdx = 0
		}
		r.order = append(r.order, sid)
		r.bySID[sid] = sess
	}

	snap := r.snapshotLocked()
	r.sendLocked(sess, meetingStateEvent{
		Type:                EvtMeetingState,
		CurrentSpeakerIndex: snap.CurrentSpeakerIndex,
		TimerState:          snap.TimerState,
		Participants:        snap.Participants,
		Transcript:          snap.Transcript,
	})
	r.broadcastLocked(participantsUpdatedEvent{
		Type:         EvtParticipantsUpdated,
		Participants: snap.Participants,
	}, "")

	log.Info().Str("module", "core.room").Str("meeting", string(r.meeting)).
		Str("sid", string(sid)).Int("count", len(r.order)).Msg("participant joined")
	return snap
}

// Leave removes a participant and clamps the speaker index into the new
// valid range, so a leave racing an advance can never strand the index
// out of bounds. Unknown ids are a no-op. A non-nil conn must still be
// the entry's bound transport; a leave from a superseded connection is
// dropped, so an old socket's cleanup racing a reconnect cannot evict
// the live participant.
func (r *roomImpl) Leave(sid SessionID, conn SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.bySID[sid]
	if !ok {
		return false
	}
	if conn != nil && sess.Signal() != conn {
		return false
	}
	delete(r.bySID, sid)
	for i, id := range r.order {
		if id == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if len(r.order) > 0 {
		r.speakerIdx = r.speakerIdx % len(r.order)
		r.refreshSpeakingLocked()
	} else {
		r.speakerIdx = 0
	}

	r.broadcastLocked(participantsUpdatedEvent{
		Type:         EvtParticipantsUpdated,
		Participants: r.participantsLocked(),
	}, "")

	log.Info().Str("module", "core.room").Str("meeting", string(r.meeting)).
		Str("sid", string(sid)).Int("count", len(r.order)).Msg("participant left")
	return true
}

// AdvanceSpeaker rotates the speaker cyclically. Everyone, including
// the caller, gets speaker-changed so every UI converges on the index.
func (r *roomImpl) AdvanceSpeaker(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.order)
	if n == 0 {
		return
	}
	r.speakerIdx = ((r.speakerIdx+delta)%n + n) % n
	r.refreshSpeakingLocked()

	r.broadcastLocked(speakerChangedEvent{
		Type:                EvtSpeakerChanged,
		CurrentSpeakerIndex: r.speakerIdx,
	}, "")
}

// UpdateTimer overwrites the timer snapshot, last writer wins. The
// sender already holds this exact value, so it is excluded from the
// fan-out; echoing it back would jitter the sender's countdown.
func (r *roomImpl) UpdateTimer(from SessionID, t domain.TimerState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timer = t
	r.broadcastLocked(timerSyncedEvent{
		Type:      EvtTimerSynced,
		Elapsed:   t.Elapsed,
		Remaining: t.Remaining,
		IsRunning: t.IsRunning,
	}, from)
}

// AppendTranscript records an utterance with a server timestamp.
// Empty or whitespace-only text is dropped.
func (r *roomImpl) AppendTranscript(text, speaker string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := domain.TranscriptEntry{
		Text:      text,
		Speaker:   speaker,
		Timestamp: time.Now().UnixMilli(),
	}
	r.transcript = append(r.transcript, entry)

	r.broadcastLocked(transcriptReceivedEvent{
		Type:      EvtTranscriptReceived,
		Text:      entry.Text,
		Speaker:   entry.Speaker,
		Timestamp: entry.Timestamp,
	}, "")
	return true
}

// SetRunning flips the running flag. Starting an already-started
// meeting, or ending an unstarted one, is an effective no-op apart from
// the broadcast.
func (r *roomImpl) SetRunning(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timer.IsRunning = running
	evt := EvtMeetingEnded
	if running {
		evt = EvtMeetingStarted
		if r.startedAt == 0 {
			r.startedAt = time.Now().UnixMilli()
		}
	}
	r.broadcastLocked(typeOnlyEvent{Type: evt}, "")
}

func (r *roomImpl) participantsLocked() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, *r.bySID[sid].Meta())
	}
	return out
}

func (r *roomImpl) snapshotLocked() StateSnapshot {
	transcript := make([]domain.TranscriptEntry, len(r.transcript))
	copy(transcript, r.transcript)
	return StateSnapshot{
		CurrentSpeakerIndex: r.speakerIdx,
		TimerState:          r.timer,
		Participants:        r.participantsLocked(),
		Transcript:          transcript,
	}
}

func (r *roomImpl) refreshSpeakingLocked() {
	for i, sid := range r.order {
		r.bySID[sid].Meta().IsSpeaking = i == r.speakerIdx
	}
}

func (r *roomImpl) sendLocked(sess MemberSession, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("marshal event")
		return
	}
	_ = sess.Signal().TrySend(b)
}

// broadcastLocked fans an event out to every member, in join order,
// skipping except when set. TrySend never blocks; slow consumers drop.
func (r *roomImpl) broadcastLocked(v any, except SessionID) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("marshal event")
		return
	}
	sent, dropped := 0, 0
	for _, sid := range r.order {
		if except != "" && sid == except {
			continue
		}
		if err := r.bySID[sid].Signal().TrySend(b); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "core.room").Str("meeting", string(r.meeting)).
		Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}
