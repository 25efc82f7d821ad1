// Package repository implements the domain repository interfaces on SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"metacat/internal/domain"
)

// DatasetRepo implements domain.DatasetRepository using SQLite.
type DatasetRepo struct {
	db *sql.DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Create stores a dataset and its columns in one transaction.
func (r *DatasetRepo) Create(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if ds.ID == "" {
		ds.ID = domain.NewID()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, fqn, connection_name, database_name, schema_name, table_name, layer, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.FQN.String(), ds.FQN.Connection, ds.FQN.Database, ds.FQN.Schema, ds.FQN.Table,
		string(ds.Layer), ds.Description, ds.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict("dataset %q already exists", ds.FQN.String())
		}
		return nil, fmt.Errorf("insert dataset: %w", err)
	}

	for i, col := range ds.Columns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dataset_columns (dataset_id, name, type, ordinal)
			VALUES (?, ?, ?, ?)`,
			ds.ID, col.Name, col.Type, i,
		); err != nil {
			return nil, fmt.Errorf("insert column %q: %w", col.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dataset: %w", err)
	}
	return ds, nil
}

// GetByFQN returns the dataset registered under the given dotted FQN.
func (r *DatasetRepo) GetByFQN(ctx context.Context, fqn string) (*domain.Dataset, error) {
	return r.getWhere(ctx, "fqn = ?", fqn)
}

// GetByID returns the dataset with the given ID.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *DatasetRepo) getWhere(ctx context.Context, where string, arg string) (*domain.Dataset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, connection_name, database_name, schema_name, table_name, layer, description, created_at
		FROM datasets WHERE `+where, arg)

	var ds domain.Dataset
	var layer string
	err := row.Scan(&ds.ID, &ds.FQN.Connection, &ds.FQN.Database, &ds.FQN.Schema, &ds.FQN.Table,
		&layer, &ds.Description, &ds.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("dataset %q not found", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	ds.Layer = domain.Layer(layer)

	cols, err := r.loadColumns(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	ds.Columns = cols
	return &ds, nil
}

// List returns a page of datasets ordered by FQN, plus the total count.
func (r *DatasetRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Dataset, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, connection_name, database_name, schema_name, table_name, layer, description, created_at
		FROM datasets ORDER BY fqn LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	datasets, err := r.scanDatasets(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return datasets, total, nil
}

// ListAll returns every registered dataset ordered by FQN.
func (r *DatasetRepo) ListAll(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, connection_name, database_name, schema_name, table_name, layer, description, created_at
		FROM datasets ORDER BY fqn`)
	if err != nil {
		return nil, fmt.Errorf("list all datasets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return r.scanDatasets(ctx, rows)
}

// Delete removes a dataset by ID. Columns cascade via the FK.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("dataset %q not found", id)
	}
	return nil
}

func (r *DatasetRepo) scanDatasets(ctx context.Context, rows *sql.Rows) ([]domain.Dataset, error) {
	var datasets []domain.Dataset
	for rows.Next() {
		var ds domain.Dataset
		var layer string
		if err := rows.Scan(&ds.ID, &ds.FQN.Connection, &ds.FQN.Database, &ds.FQN.Schema, &ds.FQN.Table,
			&layer, &ds.Description, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		ds.Layer = domain.Layer(layer)
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}

	for i := range datasets {
		cols, err := r.loadColumns(ctx, datasets[i].ID)
		if err != nil {
			return nil, err
		}
		datasets[i].Columns = cols
	}
	return datasets, nil
}

func (r *DatasetRepo) loadColumns(ctx context.Context, datasetID string) ([]domain.Column, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, type FROM dataset_columns WHERE dataset_id = ? ORDER BY ordinal`,
		datasetID)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
