package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background component with a start/stop lifecycle, such as the
// job progress client or the detection job scheduler
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// WorkerStatus reports whether one registered worker is running
type WorkerStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

// WorkerManager starts registered workers together and stops them in reverse
// order on shutdown
type WorkerManager struct {
	workers []Worker
	started map[string]bool
	failed  map[string]error
	logger  *zap.Logger

	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{
		workers: make([]Worker, 0),
		started: make(map[string]bool),
		failed:  make(map[string]error),
		logger:  logger,
	}
}

// Register adds a worker. Workers registered after StartAll are not started.
func (m *WorkerManager) Register(worker Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, worker)
	m.logger.Info("Worker registered",
		zap.String("worker_name", worker.Name()),
		zap.Int("total_workers", len(m.workers)))
}

// StartAll starts every registered worker. A worker that fails to start is
// logged and reported by Status; the others still start.
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("workers already running")
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.isRunning = true

	m.logger.Info("Starting all workers", zap.Int("count", len(m.workers)))

	for _, w := range m.workers {
		if err := w.Start(ctx); err != nil {
			m.failed[w.Name()] = err
			m.logger.Error("Failed to start worker",
				zap.String("worker_name", w.Name()),
				zap.Error(err))
			continue
		}
		m.started[w.Name()] = true
		delete(m.failed, w.Name())
		m.logger.Info("Worker started", zap.String("worker_name", w.Name()))
	}

	return nil
}

// StopAll cancels the shared context and stops started workers, last first
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		m.logger.Warn("Workers not running, nothing to stop")
		return nil
	}
	m.isRunning = false

	m.logger.Info("Stopping all workers", zap.Int("count", len(m.started)))

	if m.cancel != nil {
		m.cancel()
	}

	var errs []error
	for i := len(m.workers) - 1; i >= 0; i-- {
		w := m.workers[i]
		if !m.started[w.Name()] {
			continue
		}
		delete(m.started, w.Name())
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("worker_name", w.Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		m.logger.Info("Worker stopped", zap.String("worker_name", w.Name()))
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %d workers: %w", len(errs), errors.Join(errs...))
	}

	m.logger.Info("All workers stopped successfully")
	return nil
}

// Status lists every registered worker in registration order
func (m *WorkerManager) Status() []WorkerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]WorkerStatus, 0, len(m.workers))
	for _, w := range m.workers {
		st := WorkerStatus{Name: w.Name(), Running: m.started[w.Name()]}
		if err := m.failed[w.Name()]; err != nil {
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	return out
}

// GetWorkerCount returns the number of registered workers
func (m *WorkerManager) GetWorkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// IsRunning returns whether workers are running
func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}
