package service

import (
	"github.com/okian/rinkline/internal/adapters/repository"
	"github.com/okian/rinkline/internal/domain/capture"
	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite file opened on Start.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore injects an already opened store; Start will not open one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many committed keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxPoolSize caps the events read back per game.
func WithMaxPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPoolSize = n
		}
	}
}

// WithMaxChainLength caps reconstructed chains.
func WithMaxChainLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxChainLength = n
		}
	}
}

// WithAnalysisWorkers bounds concurrent game analysis.
func WithAnalysisWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.analysisWorkers = n
		}
	}
}

// WithFaceoffTolerance sets the faceoff snap radius in canvas units.
func WithFaceoffTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.faceoffTolerance = tol
		}
	}
}

// WithOrientation sets the rink orientation.
func WithOrientation(o rink.Orientation) Option {
	return func(s *Service) {
		s.orientation = o
	}
}

// WithSlotRules sets the capture auto-link table.
func WithSlotRules(rules capture.SlotRules) Option {
	return func(s *Service) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
