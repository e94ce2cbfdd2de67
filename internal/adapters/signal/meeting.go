package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// handleJoin binds the connection to a room. Both fields are mandatory;
// a malformed join is dropped without an acknowledgment, the client
// infers the failure from the missing meeting-state.
func (ctl *Controller) handleJoin(sess *clientSession, data []byte) {
	var p struct {
		Type      string `json:"type"`
		MeetingID string `json:"meetingId"`
		UserName  string `json:"userName"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		return
	}
	if p.MeetingID == "" || p.UserName == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sess.sid)).Msg("join missing fields, dropped")
		return
	}

	meeting := domain.MeetingID(p.MeetingID)
	if prev, ok := sess.binding(); ok && prev != meeting {
		// The binding is cleared before the new join is validated, so a
		// rejected join cannot leave the session acting on a room it left.
		ctl.Coord.Leave(sess.sid, prev, sess.conn)
		sess.unbind()
	}

	if _, err := ctl.Coord.Join(sess.sid, meeting, p.UserName, sess.conn); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.sid)).Msg("join rejected, dropped")
		return
	}
	sess.bind(meeting)
	log.Info().Str("module", "signal").Str("sid", string(sess.sid)).
		Str("meeting", p.MeetingID).Str("name", p.UserName).Msg("join")
}

func (ctl *Controller) handleNextSpeaker(sess *clientSession) {
	meeting, ok := sess.binding()
	if !ok {
		return
	}
	ctl.Coord.NextSpeaker(meeting)
}

func (ctl *Controller) handleStart(sess *clientSession) {
	meeting, ok := sess.binding()
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("meeting", string(meeting)).Msg("start meeting")
	ctl.Coord.Start(meeting)
}

func (ctl *Controller) handleEnd(sess *clientSession) {
	meeting, ok := sess.binding()
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("meeting", string(meeting)).Msg("end meeting")
	ctl.Coord.End(meeting)
}
