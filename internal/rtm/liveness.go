package rtm

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// livenessLoop runs the periodic probe on a dedicated timer. Each tick
// first decides, from the bookkeeping recorded at send and reply time,
// whether the previous probe went unanswered for longer than the timeout;
// if so the connection is forced down. Otherwise a fresh probe goes out.
func (s *Supervisor) livenessLoop(ctx context.Context) {
	s.mu.Lock()
	interval := s.opts.PingInterval
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.probeOverdue(time.Now()) {
				s.logger.Warn("liveness probe unanswered, closing socket")
				s.forceClose()
				return
			}
			s.sendProbe()
		case <-ctx.Done():
			return
		}
	}
}

// probeOverdue reports whether the most recent probe's reply is late: a
// probe was sent, no reply for it has been recorded, and more than the
// configured timeout has elapsed since the send. With no timeout
// configured, liveness checks always pass.
func (s *Supervisor) probeOverdue(now time.Time) bool {
	s.mu.Lock()
	timeout := s.opts.PingTimeout
	s.mu.Unlock()
	if timeout == 0 {
		return false
	}

	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	if s.lastPingID == 0 {
		return false
	}
	if s.lastPongID >= s.lastPingID {
		return false
	}
	return now.Sub(s.lastPingSent) > timeout
}

// sendProbe writes a ping carrying a monotonically increasing correlation
// id and records the send time.
func (s *Supervisor) sendProbe() {
	id := s.nextID()
	frame := struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
	}{ID: id, Type: "ping"}

	if err := s.writeJSON(frame); err != nil {
		s.logger.Warn("ping failed", zap.Error(err))
		return
	}
	s.pingMu.Lock()
	s.lastPingID = id
	s.lastPingSent = time.Now()
	s.pingMu.Unlock()
}

// onPong records the reply to a probe. The round trip is judged at the
// next tick, not here.
func (s *Supervisor) onPong(replyTo int64) {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	if replyTo != s.lastPingID {
		return
	}
	s.lastPongID = replyTo
	s.lastPongAt = time.Now()
}

// resetProbes clears probe bookkeeping for a fresh connection.
func (s *Supervisor) resetProbes() {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	s.lastPingID = 0
	s.lastPingSent = time.Time{}
	s.lastPongID = 0
	s.lastPongAt = time.Time{}
}

// forceClose tears down the socket; the read loop observes the close and
// runs the normal teardown and reconnect policy.
func (s *Supervisor) forceClose() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusAbnormalClosure, "liveness timeout")
	}
}
