package workers

import (
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

// Manager manages multiple workers
type Manager struct {
	workers []Worker
	started []Worker
	logger  *slog.Logger
}

// NewManager creates a new worker manager. Nil workers are skipped so
// optional workers can be passed unconditionally.
func NewManager(logger *slog.Logger, workers ...Worker) *Manager {
	return &Manager{
		workers: lo.Filter(workers, func(w Worker, _ int) bool { return w != nil }),
		logger:  logger,
	}
}

// Start starts all workers. If one fails, the ones already started are stopped.
func (m *Manager) Start() error {
	m.logger.Info("Starting worker manager", "worker_count", len(m.workers))

	for _, worker := range m.workers {
		m.logger.Info("Starting worker", "name", worker.Name())
		if err := worker.Start(); err != nil {
			m.Stop()
			return fmt.Errorf("failed to start worker %s: %w", worker.Name(), err)
		}
		m.started = append(m.started, worker)
		m.logger.Info("Worker started successfully", "name", worker.Name())
	}

	m.logger.Info("All workers started successfully")
	return nil
}

// Stop stops started workers in reverse order
func (m *Manager) Stop() {
	m.logger.Info("Stopping all workers")

	for i := len(m.started) - 1; i >= 0; i-- {
		worker := m.started[i]
		m.logger.Info("Stopping worker", "name", worker.Name())
		worker.Stop()
	}
	m.started = nil

	m.logger.Info("All workers stopped")
}
