package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/app"
	"github.com/scrumdeck/scrumdeck/internal/core"
	"github.com/scrumdeck/scrumdeck/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket side of the meeting protocol: one
// clientSession per connection, bound to at most one room after
// join-meeting.
type Controller struct {
	Coord   *app.Coordinator
	limiter *EventRateLimiter

	// ReadLimit caps inbound message size; PingPeriod drives keepalive
	// pings so half-dead connections fail the read loop deterministically.
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(coord *app.Coordinator, limiter *EventRateLimiter) *Controller {
	return &Controller{Coord: coord, limiter: limiter, PingPeriod: 54 * time.Second}
}

// WsSignalConn adapts *websocket.Conn to core.SignalConnection with a
// buffered, non-blocking send path.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// clientSession is the connection's binding to a (meeting, participant)
// pair. Until join-meeting succeeds the binding is empty and every other
// event is dropped.
type clientSession struct {
	sid  core.SessionID
	conn *WsSignalConn

	mu      sync.Mutex
	meeting domain.MeetingID
	joined  bool
}

func (s *clientSession) bind(meeting domain.MeetingID) {
	s.mu.Lock()
	s.meeting = meeting
	s.joined = true
	s.mu.Unlock()
}

func (s *clientSession) unbind() {
	s.mu.Lock()
	s.meeting = ""
	s.joined = false
	s.mu.Unlock()
}

func (s *clientSession) binding() (domain.MeetingID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meeting, s.joined
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleMeeting(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	sess := &clientSession{sid: sid, conn: conn}

	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess)
}
