package core

import (
	"context"
	"time"
)

// PurgeAbandoned deletes abandoned sessions last touched before the
// retention window and sweeps the in-memory cache of anything terminal.
// Returns how many sessions were removed from the store.
func (s *Service) PurgeAbandoned(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	purged, err := s.store.Sessions().PurgeAbandoned(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.sweepCache()
	return purged, nil
}

// ArchiveFinalized drops the grid, candidate, and proposal payloads from
// finalized sessions last touched before the retention window. Summaries
// and confirmed mappings survive for the listing APIs. Returns how many
// sessions were slimmed.
func (s *Service) ArchiveFinalized(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return s.store.Sessions().ArchiveGrids(ctx, cutoff)
}

// sweepCache drops terminal sessions from the in-memory map. Terminal
// sessions are evicted on their own transitions; the sweep catches any
// that slipped through an error path.
func (s *Service) sweepCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.State.Terminal() {
			delete(s.sessions, id)
		}
	}
}
