package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleTranscript(sess *clientSession, data []byte) {
	meeting, ok := sess.binding()
	if !ok {
		return
	}

	var p struct {
		Type    string `json:"type"`
		Text    string `json:"text"`
		Speaker string `json:"speaker"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad transcript payload")
		return
	}

	ctl.Coord.AppendTranscript(meeting, p.Text, p.Speaker)
}
