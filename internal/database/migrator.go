package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/middleware"

	"gorm.io/gorm"
)

// The DDL is portable between PostgreSQL and SQLite.
const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	checksum CHAR(64) NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const (
	selectAppliedSQL = "SELECT version, name, checksum, applied_at FROM schema_migrations ORDER BY version"
	recordSQL        = "INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)"
	forgetSQL        = "DELETE FROM schema_migrations WHERE version = ?"
)

// AppliedMigration is one row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	Checksum  string
	AppliedAt time.Time
}

// Migrator applies and reverts SQL migrations. Each script runs in the same
// transaction as its schema_migrations bookkeeping, so a failed script leaves
// no record behind.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator for migrations, which must be in version order.
func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

// NewEmbeddedMigrator returns a Migrator for the migrations compiled into the binary.
func NewEmbeddedMigrator(db *gorm.DB) (*Migrator, error) {
	migrations, err := EmbeddedMigrations()
	if err != nil {
		return nil, err
	}
	return NewMigrator(db, migrations), nil
}

func (m *Migrator) find(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

// Applied returns the recorded migrations in version order. A database
// without schema_migrations has applied nothing.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := m.db.WithContext(ctx).Raw(selectAppliedSQL).Scan(&rows).Error; err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return rows, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "no such table") {
		return true
	}
	return strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")
}

// Pending returns the migrations that have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return m.pending(applied)
}

// pending fails when the database records a version this build does not know,
// or when an applied script has been edited since it ran.
func (m *Migrator) pending(applied []AppliedMigration) ([]Migration, error) {
	done := make(map[int]bool, len(applied))
	var unknown []string
	for _, a := range applied {
		mig, ok := m.find(a.Version)
		if !ok {
			unknown = append(unknown, fmt.Sprintf("%06d_%s", a.Version, a.Name))
			continue
		}
		if a.Checksum != mig.Checksum() {
			return nil, fmt.Errorf("migration %s was modified after it was applied", mig)
		}
		done[a.Version] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("schema_migrations records versions unknown to this build: %s", strings.Join(unknown, ", "))
	}

	var out []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			out = append(out, mig)
		}
	}
	return out, nil
}

// Up applies every pending migration in version order and returns how many ran.
// It stops at the first failure; migrations before it stay applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).Exec(schemaMigrationsDDL).Error; err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for n, mig := range pending {
		middleware.Logger.Info("applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return err
			}
			return tx.Exec(recordSQL, mig.Version, mig.Name, mig.Checksum()).Error
		})
		if err != nil {
			return n, fmt.Errorf("apply %s: %w", mig, err)
		}
	}
	return len(pending), nil
}

// Latest returns the most recently applied migration, or false when none is.
func (m *Migrator) Latest(ctx context.Context) (AppliedMigration, bool, error) {
	applied, err := m.Applied(ctx)
	if err != nil || len(applied) == 0 {
		return AppliedMigration{}, false, err
	}
	return applied[len(applied)-1], true, nil
}

// Down reverts migration version. Only the latest applied migration can be
// reverted, so the schema never has a gap.
func (m *Migrator) Down(ctx context.Context, version int) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}

	var wasApplied bool
	for _, a := range applied {
		if a.Version == version {
			wasApplied = true
		}
	}
	if !wasApplied {
		return fmt.Errorf("migration %06d has not been applied", version)
	}
	if latest := applied[len(applied)-1]; latest.Version != version {
		return fmt.Errorf("migration %06d is not the latest applied (revert %06d first)", version, latest.Version)
	}

	mig, ok := m.find(version)
	if !ok {
		return fmt.Errorf("migration %06d is unknown to this build", version)
	}

	middleware.Logger.Info("reverting migration", slog.String("migration", mig.String()))
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return err
		}
		return tx.Exec(forgetSQL, version).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", mig, err)
	}
	return nil
}
