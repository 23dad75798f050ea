package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// snapshotCacheTTL bounds how long a cached latest snapshot is served before
// falling back to the document store.
const snapshotCacheTTL = 30 * time.Minute

// SnapshotCache keeps each entity's latest analysis snapshot in Redis so
// repeated dashboard reads skip the document store between runs.
type SnapshotCache struct {
	client *Client
}

// NewSnapshotCache creates the cache on top of an existing client.
func NewSnapshotCache(client *Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

func snapshotKey(entityID string) string {
	return fmt.Sprintf("snapshot:latest:%s", entityID)
}

// GetLatest returns the cached snapshot for an entity. A miss, an expired
// entry or an undecodable payload all report false.
func (c *SnapshotCache) GetLatest(ctx context.Context, entityID string) (*models.AnalysisSnapshot, bool) {
	raw, err := c.client.Get(ctx, snapshotKey(entityID)).Bytes()
	if err != nil {
		return nil, false
	}

	var snapshot models.AnalysisSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		logger.Warn("dropping undecodable cached snapshot",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		c.Invalidate(ctx, entityID)
		return nil, false
	}
	return &snapshot, true
}

// SetLatest stores the snapshot as the entity's latest. Failures are logged
// and swallowed; the document store stays the source of truth.
func (c *SnapshotCache) SetLatest(ctx context.Context, entityID string, snapshot *models.AnalysisSnapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		logger.Warn("failed to encode snapshot for cache",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return
	}

	if err := c.client.Set(ctx, snapshotKey(entityID), raw, snapshotCacheTTL).Err(); err != nil {
		logger.Warn("failed to cache snapshot",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// Invalidate removes the cached snapshot for an entity.
func (c *SnapshotCache) Invalidate(ctx context.Context, entityID string) {
	if err := c.client.Del(ctx, snapshotKey(entityID)).Err(); err != nil {
		logger.Warn("failed to invalidate cached snapshot",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
