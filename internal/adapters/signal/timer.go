package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

// handleTimer relays one client's countdown to the rest of the room.
// Values are trusted as-is; two racing writers resolve to whoever
// reached the room last.
func (ctl *Controller) handleTimer(sess *clientSession, data []byte) {
	meeting, ok := sess.binding()
	if !ok {
		return
	}

	var p struct {
		Type      string `json:"type"`
		Elapsed   int    `json:"elapsed"`
		Remaining int    `json:"remaining"`
		IsRunning bool   `json:"isRunning"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad timer payload")
		return
	}

	ctl.Coord.UpdateTimer(sess.sid, meeting, domain.TimerState{
		Elapsed:   p.Elapsed,
		Remaining: p.Remaining,
		IsRunning: p.IsRunning,
	})
}
