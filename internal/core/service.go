package core

import (
	"context"
	"sync"
	"time"
)

// DetectionTimeout is the maximum duration for the detect-and-match
// pipeline of a new session.
var DetectionTimeout = 2 * time.Minute

// ServiceConfig carries the tunables the service threads into the
// detector, matcher, and limiter. Zero values mean defaults.
type ServiceConfig struct {
	Detector DetectorOptions
	Matcher  MatcherOptions

	// MaxConcurrentDetections bounds parallel detection work.
	MaxConcurrentDetections int
	// DetectionWait is how long a new session waits for a detection slot.
	DetectionWait time.Duration
}

// Service provides the reconciliation engine's operations: starting
// sessions, resolving mappings, finalizing, and rule administration.
// It owns no SQL; persistence goes through the Datastore interfaces.
type Service struct {
	store   Datastore
	loader  Loader
	limiter *DetectionLimiter

	detector DetectorOptions
	matcher  MatcherOptions

	// Active (non-terminal) sessions, write-through cached. The store
	// remains authoritative; any instance can resume from it.
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service. The loader may be nil, in which case
// finalize completes without a data handoff.
func NewService(store Datastore, loader Loader, cfg ServiceConfig) *Service {
	return &Service{
		store:    store,
		loader:   loader,
		limiter:  NewDetectionLimiter(cfg.MaxConcurrentDetections, cfg.DetectionWait),
		detector: cfg.Detector,
		matcher:  cfg.Matcher,
		sessions: make(map[string]*Session),
	}
}

// ListSchemas returns information about all registered schemas.
func (s *Service) ListSchemas() []SchemaInfo {
	defs := All()
	infos := make([]SchemaInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListSchemasByGroup returns schemas organized by business group.
func (s *Service) ListSchemasByGroup() map[string][]SchemaInfo {
	result := make(map[string][]SchemaInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// GetSchema returns a registered schema definition.
func (s *Service) GetSchema(schemaKey string) (SchemaDefinition, bool) {
	return Get(schemaKey)
}

// QueueStatus reports the detection limiter's state.
func (s *Service) QueueStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until in-flight detections finish. Called during
// graceful shutdown before the process exits.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// cacheSession tracks a non-terminal session in memory. Terminal
// sessions are evicted; the store keeps them for the listing APIs.
func (s *Service) cacheSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.State.Terminal() {
		delete(s.sessions, sess.ID)
		return
	}
	s.sessions[sess.ID] = sess
}

// loadSession returns the cached session or falls back to the store,
// so a restarted instance resumes sessions it never started.
func (s *Service) loadSession(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	sess, err := s.store.Sessions().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSession(sess)
	return sess, nil
}

// sessionLocked is loadSession for mutation paths. Callers hold s.mu.
func (s *Service) sessionLocked(ctx context.Context, id string) (*Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess, err := s.store.Sessions().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.State.Terminal() {
		s.sessions[id] = sess
	}
	return sess, nil
}

// dropSession evicts the in-memory copy; the next access reloads the
// durable state from the store.
func (s *Service) dropSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
