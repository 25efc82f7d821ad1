package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"metacat/internal/domain"
)

// LineageRepo implements domain.LineageRepository using SQLite.
// Edges are write-once: no update-in-place exists.
type LineageRepo struct {
	db *sql.DB
}

// NewLineageRepo creates a new LineageRepo.
func NewLineageRepo(db *sql.DB) *LineageRepo {
	return &LineageRepo{db: db}
}

// InsertEdge commits a new lineage edge. The UNIQUE(upstream_id, downstream_id)
// constraint rejects duplicate ordered pairs.
func (r *LineageRepo) InsertEdge(ctx context.Context, edge *domain.LineageEdge) (*domain.LineageEdge, error) {
	if edge.ID == "" {
		edge.ID = domain.NewID()
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lineage_edges (id, upstream_id, downstream_id, created_at)
		VALUES (?, ?, ?, ?)`,
		edge.ID, edge.UpstreamID, edge.DownstreamID, edge.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict("lineage edge %s -> %s already exists", edge.UpstreamFQN, edge.DownstreamFQN)
		}
		return nil, fmt.Errorf("insert lineage edge: %w", err)
	}
	return edge, nil
}

// ListEdges returns every committed edge with both endpoint FQNs resolved.
func (r *LineageRepo) ListEdges(ctx context.Context) ([]domain.LineageEdge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.upstream_id, e.downstream_id, up.fqn, down.fqn, e.created_at
		FROM lineage_edges e
		JOIN datasets up ON up.id = e.upstream_id
		JOIN datasets down ON down.id = e.downstream_id
		ORDER BY e.created_at, e.id`)
	if err != nil {
		return nil, fmt.Errorf("list lineage edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var edges []domain.LineageEdge
	for rows.Next() {
		var e domain.LineageEdge
		if err := rows.Scan(&e.ID, &e.UpstreamID, &e.DownstreamID, &e.UpstreamFQN, &e.DownstreamFQN, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lineage edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lineage edges: %w", err)
	}
	return edges, nil
}

// CountEdgesForDataset returns how many edges touch the dataset in either direction.
func (r *LineageRepo) CountEdgesForDataset(ctx context.Context, datasetID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM lineage_edges WHERE upstream_id = ? OR downstream_id = ?`,
		datasetID, datasetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lineage edges: %w", err)
	}
	return count, nil
}
