package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitchain/internal/backup"
	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/config"
	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/keyring"
	"github.com/julianstephens/habitchain/internal/lock"
	"github.com/julianstephens/habitchain/internal/logger"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
	"github.com/julianstephens/habitchain/internal/storage/postgres"
	"github.com/julianstephens/habitchain/internal/storage/sqlite"
	"github.com/julianstephens/habitchain/internal/tracker"
	"github.com/julianstephens/habitchain/internal/validation"
)

// Context is passed to every command's Run method.
type Context struct {
	Ctx        context.Context
	Config     config.Config
	ConfigPath string
	Cal        calendar.Calendar
	Store      storage.Ledger
	Tracker    *tracker.Service
	Out        io.Writer
	In         io.Reader
}

// NewContext opens the ledger named by cfg without loading it.
func NewContext(ctx context.Context, cfg config.Config, configPath string) (*Context, error) {
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg.Database, cal)
	if err != nil {
		return nil, err
	}
	return &Context{
		Ctx:        ctx,
		Config:     cfg,
		ConfigPath: configPath,
		Cal:        cal,
		Store:      store,
		Tracker:    tracker.New(store, cal),
		Out:        os.Stdout,
		In:         os.Stdin,
	}, nil
}

// OpenStore picks a ledger implementation from a database setting:
// "keyring" reads a PostgreSQL connection string from the OS keyring,
// PostgreSQL connection strings open postgres, *.json opens the JSON file
// store and anything else is a SQLite path.
func OpenStore(database string, cal calendar.Calendar) (storage.Ledger, error) {
	fromKeyring := database == constants.KeyringDatabase
	if fromKeyring {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string in keyring. Use 'habitchain keyring set' to store one")
			}
			return nil, err
		}
		database = connStr
	}

	if config.IsPostgres(database) {
		// The keyring is encrypted, so a password stored there is allowed.
		if err := postgres.ValidateConnString(database); err != nil && !(fromKeyring && errors.Is(err, postgres.ErrEmbeddedCredentials)) {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: store the password in the OS keyring, PGPASSWORD or .pgpass", err)
			}
			return nil, err
		}
		return postgres.New(database, cal), nil
	}

	path, err := config.ExpandPath(database)
	if err != nil {
		return nil, err
	}
	if config.IsJSON(path) {
		return storage.NewJSONStore(path, cal), nil
	}
	return sqlite.NewStore(path, cal), nil
}

// Load opens the ledger for commands that read or write it.
func (c *Context) Load() error {
	if err := c.Store.Load(c.Ctx); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	return nil
}

// printf writes command output.
func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// dataDir is where the lockfile lives: next to a file ledger, or in the
// config directory for postgres.
func (c *Context) dataDir() string {
	if _, ok := c.Store.(*postgres.Store); ok {
		dir, err := config.ExpandPath(constants.DefaultConfigDir)
		if err != nil {
			return os.TempDir()
		}
		return dir
	}
	return filepath.Dir(c.Store.GetConfigPath())
}

// WithLock runs fn holding the single-writer lock.
func (c *Context) WithLock(fn func() error) error {
	l, err := lock.Acquire(c.dataDir())
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			logger.Warn("Failed to release lock", "error", err)
		}
	}()
	return fn()
}

// BackupManager returns the backup manager for a SQLite ledger.
func (c *Context) BackupManager() (*backup.Manager, error) {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil, errors.New("backups are only supported for SQLite ledgers")
	}
	return backup.NewManager(c.Store.GetConfigPath(), c.Config.BackupRetention), nil
}

// PerformAutomaticBackup snapshots a SQLite ledger before a destructive
// change. Failures are logged and never block the command.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		logger.Debug("Skipping automatic backup", "reason", err)
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveHabit finds a habit by numeric id or by name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		h, err := c.Tracker.GetHabit(c.Ctx, id)
		if err == nil || !errors.Is(err, storage.ErrNotFound) {
			return h, err
		}
	}

	habits, err := c.Tracker.ListHabits(c.Ctx)
	if err != nil {
		return models.Habit{}, err
	}
	if h, ok := validation.FindDuplicate(habits, ref, 0); ok {
		return h, nil
	}
	return models.Habit{}, fmt.Errorf("habit %q: %w", ref, storage.ErrNotFound)
}

// ParseDay parses YYYY-MM-DD, "today" or "yesterday"; empty means today.
func (c *Context) ParseDay(s string) (time.Time, error) {
	today := c.Tracker.Today()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return c.Cal.AddDays(today, -1), nil
	}
	day, err := c.Cal.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, today or yesterday)", s)
	}
	if day.After(today) {
		return time.Time{}, fmt.Errorf("cannot record completions in the future: %s", s)
	}
	return day, nil
}

// confirm asks a yes/no question on In; anything but y/yes declines.
func (c *Context) confirm(question string) bool {
	c.printf("%s [y/N]: ", question)
	var response string
	if _, err := fmt.Fscanln(c.In, &response); err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
