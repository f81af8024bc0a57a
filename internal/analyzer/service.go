// Package analyzer implements the per-analyzer-kind service (spec.md
// §4.6): a listener, a map of active sessions, and the event channel the
// session drivers publish to. Grounded on teacher's HL7Server
// (driver/hl7/server.go) — clients map + mutex, Start/Stop,
// GetConnectedClients/GetClientCount — generalized so the service can
// drive either the ASTM or the HL7 session FSM depending on the
// analyzer's configured protocol, and so it publishes typed DomainEvents
// instead of only logging.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/eventbus"
	"github.com/AireshBhat/nramh-lis/internal/session"
)

// acceptPollInterval bounds how long Accept blocks before the accept
// loop re-checks for a stop signal, mirroring spec.md §5's "listener
// accept poll = 1s" task topology note.
const acceptPollInterval = time.Second

// Service owns one analyzer's listener and active sessions, per spec.md
// §4.6. Exactly one Service exists per configured AnalyzerConfig.
type Service struct {
	logger *slog.Logger
	bus    *eventbus.Bus

	mu     sync.RWMutex
	cfg    config.AnalyzerConfig
	status config.Status

	listener net.Listener
	stopCh   chan struct{}
	wg       sync.WaitGroup

	sessMu   sync.RWMutex
	sessions map[string]*session.Session
}

// New constructs a Service for cfg. The service is not started.
func New(cfg config.AnalyzerConfig, bus *eventbus.Bus, logger *slog.Logger) *Service {
	return &Service{
		logger:   logger,
		bus:      bus,
		cfg:      cfg.Clone(),
		status:   config.StatusInactive,
		sessions: make(map[string]*session.Session),
	}
}

// Start binds the configured TCP listener, marks the service Active, and
// spawns the accept loop. Returns an error if the bind fails; it never
// tears down a previously-started listener (spec.md §4.6 "bind failure
// -> start() returns error").
func (s *Service) Start() error {
	s.mu.Lock()
	if s.status == config.StatusActive {
		s.mu.Unlock()
		return fmt.Errorf("analyzer %q already active", s.cfg.ID)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Transport.Host, s.cfg.Transport.Port)
	if s.cfg.Transport.Host == "" {
		addr = fmt.Sprintf("0.0.0.0:%d", s.cfg.Transport.Port)
	}
	s.mu.Unlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind analyzer %q listener on %s: %w", s.cfg.ID, addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.status = config.StatusActive
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("analyzer service started", "analyzer_id", s.cfg.ID, "addr", addr)
	s.bus.Publish(eventbus.DomainEvent{Kind: eventbus.StatusChanged, AnalyzerID: s.cfg.ID, Status: string(config.StatusActive)})

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Stop cancels the accept loop, closes every active session's socket,
// and marks the service Inactive. Safe to call on an already-stopped
// service.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.status != config.StatusActive {
		s.mu.Unlock()
		return
	}
	s.status = config.StatusInactive
	ln := s.listener
	stopCh := s.stopCh
	s.mu.Unlock()

	close(stopCh)
	if ln != nil {
		_ = ln.Close()
	}

	s.sessMu.Lock()
	for id, sess := range s.sessions {
		_ = sess.Conn.Close()
		delete(s.sessions, id)
	}
	s.sessMu.Unlock()
	s.wg.Wait()

	s.logger.Info("analyzer service stopped", "analyzer_id", s.cfg.ID)
	s.bus.Publish(eventbus.DomainEvent{Kind: eventbus.StatusChanged, AnalyzerID: s.cfg.ID, Status: string(config.StatusInactive)})
}

func (s *Service) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		if tc, ok := ln.(*net.TCPListener); ok {
			_ = tc.SetDeadline(time.Now().Add(acceptPollInterval))
		}
		conn, err := ln.Accept()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Warn("analyzer accept error", "analyzer_id", s.cfg.ID, "error", err)
				return
			}
		}

		sess := session.New(s.cfg.ID, conn)
		s.sessMu.Lock()
		s.sessions[sess.ID] = sess
		s.sessMu.Unlock()

		s.bus.Publish(eventbus.DomainEvent{
			Kind:       eventbus.AnalyzerConnected,
			AnalyzerID: s.cfg.ID,
			SessionID:  sess.ID,
			RemoteAddr: conn.RemoteAddr().String(),
		})

		s.wg.Add(1)
		go s.driveSession(sess)
	}
}

func (s *Service) driveSession(sess *session.Session) {
	defer s.wg.Done()
	defer func() {
		s.sessMu.Lock()
		delete(s.sessions, sess.ID)
		s.sessMu.Unlock()
		_ = sess.Conn.Close()
	}()

	s.mu.RLock()
	protocol := s.cfg.Protocol
	s.mu.RUnlock()

	var err error
	switch protocol {
	case config.ProtocolASTM:
		err = session.RunASTM(context.Background(), sess, s.bus, s.logger)
	case config.ProtocolHL7v231, config.ProtocolHL7v24:
		err = session.RunHL7(context.Background(), sess, s.bus, s.logger, session.DefaultSenderIdentity)
	default:
		err = fmt.Errorf("unsupported protocol %q", protocol)
	}
	if err != nil {
		s.logger.Warn("session driver exited with error", "analyzer_id", s.cfg.ID, "session_id", sess.ID, "error", err)
	}
}

// GetStatus returns the service's current lifecycle status.
func (s *Service) GetStatus() config.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// GetConnectionCount returns the number of currently active sessions.
func (s *Service) GetConnectionCount() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.sessions)
}

// GetAnalyzerConfig returns a copy of the service's current config.
func (s *Service) GetAnalyzerConfig() config.AnalyzerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the service's stored config without affecting a
// running listener (spec.md §4.6 treats config as read-mostly, writer
// being the supervisor).
func (s *Service) UpdateConfig(cfg config.AnalyzerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Clone()
}

func isTimeout(err error) bool {
	type timeoutErr interface{ Timeout() bool }
	te, ok := err.(timeoutErr)
	return ok && te.Timeout()
}
