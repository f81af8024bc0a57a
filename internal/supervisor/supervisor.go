// Package supervisor implements the application supervisor (spec.md
// §4.7): it owns one analyzer.Service per configured AnalyzerConfig,
// boots the ones marked ActivateOnStart, and exposes start/stop/status
// by analyzer id. Grounded on teacher's HL7Driver (a thin wrapper owning
// one HL7Server, driver/hl7/hl7_com_driver.go) generalized to own many
// services, and on original_source/src-tauri/src/services/bootup.rs for
// the boot-time sweep over known analyzer configs.
package supervisor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/AireshBhat/nramh-lis/internal/analyzer"
	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/eventbus"
)

// ErrAlreadyRunning is returned by StartService when the named analyzer
// service is already Active, per spec.md §4.7's invariant.
var ErrAlreadyRunning = fmt.Errorf("analyzer service already running")

// ErrNotRunning is returned by StopService when the named analyzer
// service is not currently Active.
var ErrNotRunning = fmt.Errorf("analyzer service not running")

// ErrUnknownAnalyzer is returned when an operation names an analyzer id
// the supervisor has no service for.
var ErrUnknownAnalyzer = fmt.Errorf("unknown analyzer id")

// Supervisor owns every analyzer.Service the config store knows about,
// per spec.md §4.7. At most one Service instance exists per analyzer id
// for the supervisor's lifetime.
type Supervisor struct {
	logger *slog.Logger
	bus    *eventbus.Bus
	store  *config.AnalyzerConfigStore

	mu       sync.RWMutex
	services map[string]*analyzer.Service
}

// New constructs a Supervisor. Call Boot to instantiate and
// conditionally start services from the config store.
func New(store *config.AnalyzerConfigStore, bus *eventbus.Bus, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		logger:   logger,
		bus:      bus,
		store:    store,
		services: make(map[string]*analyzer.Service),
	}
}

// Boot loads every known analyzer id's config, instantiates a Service for
// each, and starts the ones marked ActivateOnStart. Logs a summary of
// what started vs. what stayed idle, per the original bootup sweep this
// is modeled on. A single service failing to start does not abort the
// sweep for the rest.
func (s *Supervisor) Boot(knownAnalyzerIDs []string) error {
	configs, err := s.store.List(knownAnalyzerIDs)
	if err != nil {
		return fmt.Errorf("boot: load analyzer configs: %w", err)
	}

	started, idle := 0, 0
	s.mu.Lock()
	for _, cfg := range configs {
		svc := analyzer.New(cfg, s.bus, s.logger)
		s.services[cfg.ID] = svc
		if cfg.ActivateOnStart {
			if err := svc.Start(); err != nil {
				s.logger.Warn("boot: analyzer failed to start", "analyzer_id", cfg.ID, "error", err)
				continue
			}
			started++
		} else {
			idle++
		}
	}
	s.mu.Unlock()

	s.logger.Info("supervisor boot complete", "started", started, "idle", idle, "known", len(knownAnalyzerIDs))
	return nil
}

// StartService starts the named analyzer's service. Returns
// ErrAlreadyRunning if it is already Active, ErrUnknownAnalyzer if no
// service was registered for id.
func (s *Supervisor) StartService(id string) error {
	svc, ok := s.serviceFor(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAnalyzer, id)
	}
	if svc.GetStatus() == config.StatusActive {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, id)
	}
	return svc.Start()
}

// StopService stops the named analyzer's service. Returns ErrNotRunning
// if it is not Active, ErrUnknownAnalyzer if no service was registered
// for id. Never panics on a double-stop.
func (s *Supervisor) StopService(id string) error {
	svc, ok := s.serviceFor(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAnalyzer, id)
	}
	if svc.GetStatus() != config.StatusActive {
		return fmt.Errorf("%w: %s", ErrNotRunning, id)
	}
	svc.Stop()
	return nil
}

// ServiceStatus reports the named analyzer's current status and
// connection count.
func (s *Supervisor) ServiceStatus(id string) (config.Status, int, error) {
	svc, ok := s.serviceFor(id)
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, id)
	}
	return svc.GetStatus(), svc.GetConnectionCount(), nil
}

// RegisterService installs a pre-built Service under id, replacing any
// existing one without starting or stopping it. The config API (C11) does
// not call it; outside tests, services are created only by Boot.
func (s *Supervisor) RegisterService(id string, svc *analyzer.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[id] = svc
}

// Shutdown stops every currently Active service. Intended for process
// shutdown; does not remove services from the registry.
func (s *Supervisor) Shutdown() {
	s.mu.RLock()
	services := make([]*analyzer.Service, 0, len(s.services))
	for _, svc := range s.services {
		services = append(services, svc)
	}
	s.mu.RUnlock()

	for _, svc := range services {
		if svc.GetStatus() == config.StatusActive {
			svc.Stop()
		}
	}
}

func (s *Supervisor) serviceFor(id string) (*analyzer.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	return svc, ok
}
