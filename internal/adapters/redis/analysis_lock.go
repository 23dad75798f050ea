package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
)

// analysisLockTTL bounds how long one analysis run may hold an entity. A run
// that outlives the TTL loses the lock; the next scheduled run picks the
// entity up again, so no renewal loop is needed.
const analysisLockTTL = 5 * time.Minute

// AnalysisLock serializes analysis runs per entity across processes using
// the Redlock algorithm.
type AnalysisLock struct {
	lockManager *redlock.RedLock
	entityID    string
	lockName    string
	locked      bool
}

// NewAnalysisLock creates a lock for one entity.
func NewAnalysisLock(lockManager *redlock.RedLock, entityID string) *AnalysisLock {
	return &AnalysisLock{
		lockManager: lockManager,
		entityID:    entityID,
		lockName:    fmt.Sprintf("analysis:lock:%s", entityID),
	}
}

// TryAcquire attempts to take the lock. A false return means another process
// is already analyzing this entity; that is not an error.
func (l *AnalysisLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := l.lockManager.Lock(ctx, l.lockName, analysisLockTTL)
	if err != nil {
		logger.Debug("analysis lock already held",
			zap.String("entity_id", l.entityID),
			zap.String("lock_name", l.lockName),
		)
		return false, nil
	}
	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	l.locked = true
	logger.Debug("analysis lock acquired",
		zap.String("entity_id", l.entityID),
		zap.Duration("ttl", analysisLockTTL),
	)
	return true, nil
}

// Release gives the lock back. Releasing an expired lock is harmless.
func (l *AnalysisLock) Release(ctx context.Context) {
	if !l.locked {
		return
	}

	if err := l.lockManager.UnLock(ctx, l.lockName); err != nil {
		logger.Warn("failed to release analysis lock (may have expired)",
			zap.String("entity_id", l.entityID),
			zap.Error(err),
		)
	}
	l.locked = false
}
