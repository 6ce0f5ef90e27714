package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kaptinlin/jsonrepair"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/oakmix/audioengine/pkg/audio/router"
)

// Encoding selects the wire format for outbound state snapshots.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// Command is an inbound control message from a monitor.
type Command struct {
	Type          string  `json:"type"`
	SourceID      string  `json:"sourceId,omitempty"`
	DestinationID string  `json:"destinationId,omitempty"`
	RuleID        string  `json:"ruleId,omitempty"`
	Volume        float32 `json:"volume,omitempty"`
	SkipSilence   bool    `json:"skipSilence,omitempty"`
}

const (
	CommandPauseSession  = "pause_session"
	CommandResumeSession = "resume_session"
	CommandAddRule       = "add_rule"
	CommandRemoveSource  = "remove_source"
)

// Server upgrades HTTP connections to WebSocket and streams a
// router.Session's state to every connected monitor, while relaying
// monitor-issued Commands back into the session.
type Server struct {
	session      *router.Session
	upgrader     websocket.Upgrader
	encoding     Encoding
	pushInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer returns a Server pushing snapshots of session at pushInterval
// using encoding. A zero pushInterval defaults to 500ms.
func NewServer(session *router.Session, encoding Encoding, pushInterval time.Duration) *Server {
	if pushInterval <= 0 {
		pushInterval = 500 * time.Millisecond
	}
	return &Server{
		session:      session,
		encoding:     encoding,
		pushInterval: pushInterval,
		logger:       slog.Default(),
		clients:      make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler, upgrading the connection and running
// its read/push loops until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("control: upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	done := make(chan struct{})
	go s.readLoop(conn, done)
	s.pushLoop(conn, done)
}

// readLoop decodes inbound Commands (tolerating malformed JSON via
// jsonrepair) and applies them to the session, until the connection
// closes.
func (s *Server) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		cmd, err := decodeCommand(data)
		if err != nil {
			s.logger.Warn("control: dropping malformed command", "err", err)
			continue
		}
		s.apply(cmd)
	}
}

// pushLoop periodically writes an encoded session snapshot until done
// fires (the read side observed disconnection) or the write itself
// fails.
func (s *Server) pushLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			payload, err := s.encodeState(s.session.Snapshot())
			if err != nil {
				s.logger.Error("control: encode snapshot", "err", err)
				continue
			}
			msgType := websocket.TextMessage
			if s.encoding == EncodingMsgpack {
				msgType = websocket.BinaryMessage
			}
			if err := conn.WriteMessage(msgType, payload); err != nil {
				return
			}
		}
	}
}

func (s *Server) encodeState(state router.State) ([]byte, error) {
	if s.encoding == EncodingMsgpack {
		return msgpack.Marshal(state)
	}
	return json.Marshal(state)
}

// decodeCommand unmarshals data into a Command, repairing malformed JSON
// fragments before giving up.
func decodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err == nil {
		return cmd, nil
	}
	fixed, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return Command{}, fmt.Errorf("control: repair command: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &cmd); err != nil {
		return Command{}, fmt.Errorf("control: unmarshal repaired command: %w", err)
	}
	return cmd, nil
}

func (s *Server) apply(cmd Command) {
	switch cmd.Type {
	case CommandPauseSession:
		s.session.PauseSession()
	case CommandResumeSession:
		s.session.ResumeSession()
	case CommandAddRule:
		if err := s.session.AddRoutingRule(router.RoutingRuleConfig{
			ID:            cmd.RuleID,
			SourceID:      cmd.SourceID,
			DestinationID: cmd.DestinationID,
			Volume:        cmd.Volume,
			SkipSilence:   cmd.SkipSilence,
		}); err != nil {
			s.logger.Warn("control: add_rule rejected", "err", err)
		}
	case CommandRemoveSource:
		if err := s.session.RemoveSource(cmd.SourceID); err != nil {
			s.logger.Warn("control: remove_source rejected", "err", err)
		}
	default:
		s.logger.Warn("control: unknown command type", "type", cmd.Type)
	}
}
