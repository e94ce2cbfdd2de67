package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump drains the connection. On any exit path (read error, ctx
// cancel) the session leaves its room, so a vanished client always
// triggers cleanup and a possible room eviction.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sess *clientSession) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sess.sid)).Msg("readPump closing")
		if meeting, ok := sess.binding(); ok {
			ctl.Coord.Leave(sess.sid, meeting, sess.conn)
		}
		if ctl.limiter != nil {
			ctl.limiter.Forget(sess.sid)
		}
		cancel()
		sess.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sess.sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := sess.conn.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sess.sid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(sess, data)
		}
	}
}

func (ctl *Controller) handleEvent(sess *clientSession, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	if ctl.limiter != nil && !ctl.limiter.Allow(sess.sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sess.sid)).
			Str("type", env.Type).Msg("rate limited, event dropped")
		return
	}

	switch env.Type {
	case "join-meeting":
		ctl.handleJoin(sess, data)
	case "next-speaker":
		ctl.handleNextSpeaker(sess)
	case "transcript-update":
		ctl.handleTranscript(sess, data)
	case "timer-update":
		ctl.handleTimer(sess, data)
	case "start-meeting":
		ctl.handleStart(sess)
	case "end-meeting":
		ctl.handleEnd(sess)
	case "ping":
		ctl.handlePing(sess)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
