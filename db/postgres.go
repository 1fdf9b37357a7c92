package db

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore implements SlabStore on PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens and pings a connection
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, errors.Storage("open database", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, errors.Storage("ping database", err)
	}

	return &PostgresStore{db: conn}, nil
}

// Migrate applies the embedded schema migrations
func (s *PostgresStore) Migrate() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return errors.Storage("run migrations", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateSnapshot writes the snapshot row and all slabs in one transaction
func (s *PostgresStore) CreateSnapshot(ctx context.Context, snap *CatalogSnapshot, slabs []types.Slab) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin snapshot transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalog_snapshots (id, source, hash, slab_count, is_active, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5)`,
		snap.ID, snap.Source, snap.Hash, len(slabs), snap.CreatedAt,
	)
	if err != nil {
		return errors.Storage("insert snapshot", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO slabs (snapshot_id, slab_id, position, name, min_users, max_users,
		                    monthly_price, yearly_price, free_external_users_per_internal_user)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return errors.Storage("prepare slab insert", err)
	}
	defer stmt.Close()

	for i, slab := range slabs {
		if _, err := stmt.ExecContext(ctx,
			snap.ID, slab.ID, i, slab.Name, slab.MinUsers, slab.MaxUsers,
			slab.MonthlyPrice, slab.YearlyPrice, slab.FreeExternalUsersPerInternalUser,
		); err != nil {
			return errors.Storage(fmt.Sprintf("insert slab %s", slab.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit snapshot", err)
	}
	snap.SlabCount = len(slabs)
	return nil
}

// FindSnapshotByHash looks up a snapshot by content hash
func (s *PostgresStore) FindSnapshotByHash(ctx context.Context, hash string) (*CatalogSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, hash, slab_count, is_active, created_at
		 FROM catalog_snapshots WHERE hash = $1`, hash)
	return scanSnapshot(row)
}

// ActivateSnapshot deactivates all snapshots and activates id
func (s *PostgresStore) ActivateSnapshot(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin activation", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE catalog_snapshots SET is_active = FALSE WHERE is_active`); err != nil {
		return errors.Storage("deactivate snapshots", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE catalog_snapshots SET is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.Storage("activate snapshot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("catalog snapshot", id.String())
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit activation", err)
	}
	return nil
}

// GetActiveSnapshot returns the active snapshot, if any
func (s *PostgresStore) GetActiveSnapshot(ctx context.Context) (*CatalogSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, hash, slab_count, is_active, created_at
		 FROM catalog_snapshots WHERE is_active`)
	return scanSnapshot(row)
}

// ListSnapshots returns all snapshots, newest first
func (s *PostgresStore) ListSnapshots(ctx context.Context) ([]*CatalogSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, hash, slab_count, is_active, created_at
		 FROM catalog_snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Storage("list snapshots", err)
	}
	defer rows.Close()

	var out []*CatalogSnapshot
	for rows.Next() {
		var snap CatalogSnapshot
		if err := rows.Scan(&snap.ID, &snap.Source, &snap.Hash, &snap.SlabCount, &snap.IsActive, &snap.CreatedAt); err != nil {
			return nil, errors.Storage("scan snapshot", err)
		}
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("list snapshots", err)
	}
	return out, nil
}

// LoadSlabs returns the slabs of a snapshot
func (s *PostgresStore) LoadSlabs(ctx context.Context, snapshotID uuid.UUID) ([]types.Slab, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slab_id, name, min_users, max_users, monthly_price, yearly_price,
		        free_external_users_per_internal_user
		 FROM slabs WHERE snapshot_id = $1 ORDER BY position`, snapshotID)
	if err != nil {
		return nil, errors.Storage("load slabs", err)
	}
	defer rows.Close()

	var slabs []types.Slab
	for rows.Next() {
		var slab types.Slab
		if err := rows.Scan(
			&slab.ID, &slab.Name, &slab.MinUsers, &slab.MaxUsers,
			&slab.MonthlyPrice, &slab.YearlyPrice, &slab.FreeExternalUsersPerInternalUser,
		); err != nil {
			return nil, errors.Storage("scan slab", err)
		}
		slabs = append(slabs, slab)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("load slabs", err)
	}
	return slabs, nil
}

func scanSnapshot(row *sql.Row) (*CatalogSnapshot, error) {
	var snap CatalogSnapshot
	err := row.Scan(&snap.ID, &snap.Source, &snap.Hash, &snap.SlabCount, &snap.IsActive, &snap.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage("scan snapshot", err)
	}
	return &snap, nil
}
