package rtm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/rmarinn/slacksync/internal/bus"
	"github.com/rmarinn/slacksync/internal/events"
	"github.com/rmarinn/slacksync/internal/status"
	"github.com/rmarinn/slacksync/internal/store"
	"github.com/rmarinn/slacksync/internal/webapi"
)

// Options configure a real-time session.
type Options struct {
	Start webapi.StartOptions

	// PingInterval is the liveness probe period. Zero disables probing.
	PingInterval time.Duration
	// PingTimeout is how long a probe may go unanswered before the
	// connection is declared dead. Zero means liveness checks always pass.
	PingTimeout time.Duration

	// Reconnect re-runs the connect sequence after an unexpected socket
	// close, with exponential backoff between attempts.
	Reconnect        bool
	MaxReconnectWait time.Duration
}

// Supervisor manages the session lifecycle: handshake, snapshot load,
// socket, liveness, and reconnection. Inbound frames are read by a single
// goroutine and handed to the router in strict arrival order.
type Supervisor struct {
	api     *webapi.Client
	store   *store.Store
	router  *events.Router
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	loopCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	opts    Options
	closing bool

	writeMu sync.Mutex

	// Probe bookkeeping, read by the liveness ticker and written by the
	// ticker (sends) and the router's pong hook (replies).
	pingMu       sync.Mutex
	lastID       int64
	lastPingID   int64
	lastPingSent time.Time
	lastPongID   int64
	lastPongAt   time.Time
}

// NewSupervisor wires a supervisor over its collaborators. The router's
// connection hooks are claimed by the supervisor.
func NewSupervisor(api *webapi.Client, st *store.Store, router *events.Router, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *Supervisor {
	s := &Supervisor{
		api:     api,
		store:   st,
		router:  router,
		machine: machine,
		bus:     b,
		logger:  logger,
	}
	router.SetHooks(events.Hooks{
		Hello:     s.onHello,
		Pong:      s.onPong,
		Migration: s.onMigration,
	})
	return s
}

// Connect performs the session-start handshake, bulk-loads the snapshot
// into the mirror, then opens the persistent socket. The snapshot is loaded
// before the socket opens, so no event ever dispatches against an empty
// mirror. On failure a connection.failed notification is published and no
// retry is attempted.
func (s *Supervisor) Connect(ctx context.Context, opts Options) error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return errors.New("already connected")
	}
	s.opts = opts
	s.closing = false
	s.mu.Unlock()

	if err := s.machine.Transition(status.Connecting); err != nil {
		return err
	}
	if err := s.connect(ctx, opts); err != nil {
		_ = s.machine.Transition(status.Disconnected)
		s.bus.Publish(bus.Event{Kind: "connection.failed", Payload: err.Error()})
		return err
	}
	return nil
}

func (s *Supervisor) connect(ctx context.Context, opts Options) error {
	snap, err := s.api.StartSession(ctx, opts.Start)
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}
	if snap.URL == "" {
		return errors.New("session start: no socket url")
	}

	s.store.LoadSnapshot(snap)
	s.logger.Info("snapshot loaded",
		zap.Int("users", len(snap.Users)),
		zap.Int("channels", len(snap.Channels)+len(snap.Groups)+len(snap.MPIMs)+len(snap.IMs)))

	conn, _, err := websocket.Dial(ctx, snap.URL, nil)
	if err != nil {
		return fmt.Errorf("dial socket: %w", err)
	}
	conn.SetReadLimit(1 << 22)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.conn = conn
	s.loopCtx = loopCtx
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.resetProbes()

	if err := s.machine.Transition(status.AwaitingHello); err != nil {
		s.logger.Warn("state transition failed", zap.Error(err))
	}

	go s.readLoop(loopCtx, conn)
	return nil
}

// readLoop is the single event-processing stream: frames are dispatched
// strictly in arrival order. It exits on socket close or cancellation.
func (s *Supervisor) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.handleClosed(ctx, err)
			return
		}
		s.router.Dispatch(data)
	}
}

// onHello marks the session live. The server's hello, not the socket open,
// is what confirms the connection.
func (s *Supervisor) onHello() {
	if err := s.machine.Transition(status.Connected); err != nil {
		s.logger.Warn("hello in unexpected state", zap.Error(err))
		return
	}
	s.logger.Info("session confirmed")
	s.bus.Publish(bus.Event{Kind: "connection.connected"})

	s.mu.Lock()
	ctx := s.loopCtx
	interval := s.opts.PingInterval
	s.mu.Unlock()
	if interval > 0 && ctx != nil {
		go s.livenessLoop(ctx)
	}
}

// onMigration reacts to a session-migration event by reconnecting with the
// same options the session was started with.
func (s *Supervisor) onMigration() {
	s.logger.Info("session migration, reconnecting")
	go func() {
		s.Disconnect()
		s.mu.Lock()
		opts := s.opts
		s.mu.Unlock()
		if err := s.Connect(context.Background(), opts); err != nil {
			s.logger.Error("migration reconnect failed", zap.Error(err))
		}
	}()
}

// handleClosed tears the session down after the socket closes and applies
// the reconnect policy.
func (s *Supervisor) handleClosed(ctx context.Context, cause error) {
	s.mu.Lock()
	userClose := s.closing
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
		s.conn = nil
	}
	done := s.done
	s.done = nil
	opts := s.opts
	s.mu.Unlock()

	s.store.ClearSelf()
	if s.machine.Current() != status.Disconnected {
		_ = s.machine.Transition(status.Disconnected)
	}
	s.bus.Publish(bus.Event{Kind: "connection.disconnected", Payload: errString(cause)})

	// Teardown is complete: anyone waiting in Disconnect may proceed.
	if done != nil {
		close(done)
	}

	if userClose || !opts.Reconnect {
		return
	}

	s.logger.Warn("socket closed, reconnecting", zap.Error(cause))
	go s.reconnectLoop(opts)
}

func (s *Supervisor) reconnectLoop(opts Options) {
	policy := backoff.NewExponentialBackOff()
	if opts.MaxReconnectWait > 0 {
		policy.MaxInterval = opts.MaxReconnectWait
	}
	policy.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		s.mu.Lock()
		closing := s.closing
		s.mu.Unlock()
		if closing {
			return backoff.Permanent(errors.New("closed"))
		}
		return s.Connect(context.Background(), opts)
	}, policy)
	if err != nil {
		s.logger.Error("reconnect abandoned", zap.Error(err))
	}
}

// Disconnect closes the session deliberately: the liveness timer stops,
// event dispatch ends, and the reconnect policy does not fire. It returns
// only after the read loop has finished tearing the session down, so a
// follow-up Connect never races the old session's cleanup.
func (s *Supervisor) Disconnect() {
	s.mu.Lock()
	s.closing = true
	conn := s.conn
	done := s.done
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
	if done != nil {
		<-done
	}
	s.router.Close()
}

// Connected reports whether the session is confirmed live.
func (s *Supervisor) Connected() bool {
	return s.machine.Current() == status.Connected
}

// SendMessage sends a message over the socket. It is recorded in the
// pending map under a correlation id derived from the send time; the
// server's ack later promotes it into the channel's message map.
func (s *Supervisor) SendMessage(channel, text string) (int64, error) {
	if !s.Connected() {
		return 0, errors.New("not connected")
	}
	id := s.nextID()

	m := &store.Message{Channel: channel, Text: text}
	if self := s.store.Self(); self != nil {
		m.User = self.ID
	}
	s.store.AddPending(id, m)

	frame := struct {
		ID      int64  `json:"id"`
		Type    string `json:"type"`
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}{ID: id, Type: "message", Channel: channel, Text: text}

	if err := s.writeJSON(frame); err != nil {
		s.store.RemovePending(id)
		return 0, err
	}
	return id, nil
}

// SendTyping announces that the authenticated user is typing in a channel.
func (s *Supervisor) SendTyping(channel string) error {
	if !s.Connected() {
		return errors.New("not connected")
	}
	frame := struct {
		ID      int64  `json:"id"`
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}{ID: s.nextID(), Type: "typing", Channel: channel}
	return s.writeJSON(frame)
}

func (s *Supervisor) writeJSON(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("no socket")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// nextID returns a monotonically increasing correlation id seeded from the
// current time, so ids stay unique across reconnects.
func (s *Supervisor) nextID() int64 {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	id := time.Now().Unix()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
