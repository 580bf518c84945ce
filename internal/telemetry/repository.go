package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/wrenvik/dutymond/internal/errors"
	"codeberg.org/wrenvik/dutymond/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Store(snapshot *Snapshot) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	if cfg.DBPath == "" {
		return nil, errors.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS snapshots (
            timestamp INTEGER PRIMARY KEY,
            period_us INTEGER,
            high_us INTEGER,
            duty_permille INTEGER,
            folded_duty INTEGER,
            duty_errors INTEGER,
            period_errors INTEGER,
            primary_active INTEGER,
            error_active INTEGER
        )
    `)
	if err != nil {
		return errors.Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}

func (r *sqliteRepository) Store(snapshot *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
        INSERT INTO snapshots (
            timestamp, period_us, high_us, duty_permille, folded_duty,
            duty_errors, period_errors, primary_active, error_active
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            period_us = excluded.period_us,
            high_us = excluded.high_us,
            duty_permille = excluded.duty_permille,
            folded_duty = excluded.folded_duty,
            duty_errors = excluded.duty_errors,
            period_errors = excluded.period_errors,
            primary_active = excluded.primary_active,
            error_active = excluded.error_active
    `,
		snapshot.Timestamp.UnixMilli(),
		snapshot.Signal.PeriodUs,
		snapshot.Signal.HighUs,
		snapshot.Signal.DutyPermille,
		snapshot.Signal.FoldedDuty,
		snapshot.Tolerance.DutyErrors,
		snapshot.Tolerance.PeriodErrors,
		boolToInt(snapshot.OutputStates.PrimaryActive),
		boolToInt(snapshot.OutputStates.ErrorActive),
	)
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}

	return nil
}
