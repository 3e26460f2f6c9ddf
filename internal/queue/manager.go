package queue

import (
	"context"
	"log/slog"

	"github.com/increff/noos-service/internal/storage"
)

// PoolName identifies one of the three logical pools of §4.2.
type PoolName string

const (
	PoolFileExecutor PoolName = "fileExecutor" // uploads + downloads
	PoolNoosExecutor PoolName = "noosExecutor" // algorithm runs
	PoolDefault      PoolName = "default"
)

// Manager owns the three named pools and routes a TaskKind to the
// pool responsible for it.
type Manager struct {
	pools map[PoolName]*Pool
}

// NewManager builds the fileExecutor/noosExecutor/default pools with
// the given sizes, mirroring the teacher's single NewEngine
// construction of one queue+scheduler pair, generalized to three.
func NewManager(logger *slog.Logger, fileWorkers, fileQueue, noosWorkers, noosQueue int) *Manager {
	return &Manager{pools: map[PoolName]*Pool{
		PoolFileExecutor: NewPool(string(PoolFileExecutor), fileWorkers, fileQueue, logger),
		PoolNoosExecutor: NewPool(string(PoolNoosExecutor), noosWorkers, noosQueue, logger),
		PoolDefault:      NewPool(string(PoolDefault), 1, 10, logger),
	}}
}

// PoolFor maps a Task.Kind to the pool that executes it.
func PoolFor(kind storage.TaskKind) PoolName {
	switch kind {
	case storage.KindAlgorithmRun:
		return PoolNoosExecutor
	case storage.KindStylesUpload, storage.KindStoresUpload, storage.KindSkusUpload, storage.KindSalesUpload,
		storage.KindStylesDownload, storage.KindStoresDownload, storage.KindSkusDownload, storage.KindSalesDownload,
		storage.KindNoosDownload:
		return PoolFileExecutor
	default:
		return PoolDefault
	}
}

// Submit dispatches job to the pool owning kind.
func (m *Manager) Submit(kind storage.TaskKind, job Job) error {
	return m.pools[PoolFor(kind)].Submit(job)
}

// QueueDepth reports how many jobs are queued (not yet picked up) in
// the named pool, or 0 for an unknown name.
func (m *Manager) QueueDepth(name PoolName) int {
	if p, ok := m.pools[name]; ok {
		return p.Len()
	}
	return 0
}

// Shutdown stops every pool.
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, p := range m.pools {
		if err := p.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}
