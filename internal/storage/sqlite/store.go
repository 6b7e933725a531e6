package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/logger"
	"github.com/julianstephens/habitchain/internal/migration"
	"github.com/julianstephens/habitchain/internal/storage"
	"github.com/julianstephens/habitchain/internal/storage/sqlbase"
	"github.com/julianstephens/habitchain/migrations"
)

type Store struct {
	sqlbase.Ledger
	path string
}

var _ storage.Ledger = (*Store)(nil)

type dialect struct{}

func (dialect) Placeholders() sqlbase.Placeholder { return sqlbase.Question }

func (dialect) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func NewStore(path string, cal calendar.Calendar) *Store {
	return &Store{
		Ledger: sqlbase.Ledger{Cal: cal, Dialect: dialect{}},
		path:   path,
	}
}

// dsn enables foreign keys and a busy timeout on every pooled connection.
func (s *Store) dsn() string {
	return "file:" + s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.DB = db
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.DB == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.DB != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.Runner().ValidateVersion(); err != nil {
		// Leave the store unloaded so the next Load validates again.
		_ = s.Close()
		return err
	}
	return nil
}

func (s *Store) Close() error {
	if s.DB != nil {
		err := s.DB.Close()
		s.DB = nil
		return err
	}
	return nil
}

// Runner returns a migration runner over the embedded SQLite migrations.
func (s *Store) Runner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(fmt.Sprintf("sqlite migrations missing from binary: %v", err))
	}
	return migration.NewRunner(s.DB, subFS, migration.DriverSQLite)
}

// Migrate applies pending migrations to an existing database.
func (s *Store) Migrate() (int, error) {
	if s.DB == nil {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return 0, storage.ErrNotInitialized
		}
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	return s.Runner().ApplyMigrations(func(msg string) {
		logger.Info(msg)
	})
}

func (s *Store) runMigrations() error {
	_, err := s.Runner().ApplyMigrations(func(msg string) {
		logger.Info(msg)
	})
	return err
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.DB
}
