package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewsem/factwatch/internal/adapters/database"
	"github.com/andrewsem/factwatch/pkg/models"
)

var (
	// ErrInvalidEntityID marks a malformed entity identifier. Client-facing,
	// never retried.
	ErrInvalidEntityID = errors.New("invalid entity id")
	// ErrEntityNotFound marks a well-formed identifier with no row behind it.
	ErrEntityNotFound = errors.New("entity not found")
)

// Repository persists entities and analysis snapshots in Postgres. Snapshot
// documents are stored as JSONB and never mutated after the append.
type Repository struct {
	db *database.DB
}

// NewRepository creates the snapshot repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// FindEntity loads one tracked entity by ID.
func (r *Repository) FindEntity(ctx context.Context, id string) (*models.Entity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityID, id)
	}

	var entity models.Entity
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT id, name, official_site, created_at
		FROM entities
		WHERE id = $1
	`, id).Scan(&entity.ID, &entity.Name, &entity.OfficialSite, &entity.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}

	return &entity, nil
}

// ListEntities returns all tracked entities, oldest first.
func (r *Repository) ListEntities(ctx context.Context) ([]models.Entity, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, name, official_site, created_at
		FROM entities
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.OfficialSite, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// AppendSnapshot stores the snapshot document for its entity and run time.
func (r *Repository) AppendSnapshot(ctx context.Context, snapshot *models.AnalysisSnapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Conn().ExecContext(ctx, `
		INSERT INTO analysis_snapshots (entity_id, period, taken_at, document)
		VALUES ($1, $2, $3, $4)
	`, snapshot.EntityID, snapshot.Period, snapshot.Timestamp, doc)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot for an entity, or nil when
// the entity has never been analyzed.
func (r *Repository) LatestSnapshot(ctx context.Context, entityID string) (*models.AnalysisSnapshot, error) {
	var doc []byte
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT document
		FROM analysis_snapshots
		WHERE entity_id = $1
		ORDER BY taken_at DESC
		LIMIT 1
	`, entityID).Scan(&doc)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	return decodeSnapshot(doc)
}

// Snapshots returns up to limit snapshots for an entity, newest first.
func (r *Repository) Snapshots(ctx context.Context, entityID string, limit int) ([]models.AnalysisSnapshot, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT document
		FROM analysis_snapshots
		WHERE entity_id = $1
		ORDER BY taken_at DESC
		LIMIT $2
	`, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.AnalysisSnapshot
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s, err := decodeSnapshot(doc)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

func decodeSnapshot(doc []byte) (*models.AnalysisSnapshot, error) {
	var s models.AnalysisSnapshot
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// RunPoint is one historical run in the dashboard series.
type RunPoint struct {
	TakenAt          time.Time `json:"taken_at"`
	TotalNews        int       `json:"total_news"`
	FakeCount        int       `json:"fake_count"`
	ReliabilityScore float64   `json:"reliability_score"`
	CrisisLevel      string    `json:"crisis_level"`
}
