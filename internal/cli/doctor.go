package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/keyring"
	"github.com/julianstephens/habitchain/internal/migration"
	"github.com/julianstephens/habitchain/internal/validation"
)

type versioned interface {
	Runner() *migration.Runner
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.printf("Running diagnostics...\n\n")

	hasError := false
	check := func(name string, err error) {
		if err != nil {
			ctx.printf("❌ %s: FAIL\n   Error: %v\n", name, err)
			hasError = true
			return
		}
		ctx.printf("✓ %s: OK\n", name)
	}

	dbErr := ctx.Load()
	check("Ledger reachable", dbErr)

	if dbErr == nil {
		check("Schema version", checkSchemaVersion(ctx))
		check("Data validation", checkValidation(ctx))
	} else {
		ctx.printf("⊘ Schema version: SKIPPED (ledger not reachable)\n")
		ctx.printf("⊘ Data validation: SKIPPED (ledger not reachable)\n")
	}

	if err := checkBackupsPresent(ctx); err != nil {
		ctx.printf("⚠ Backups present: WARNING\n   %v\n", err)
	} else {
		ctx.printf("✓ Backups present: OK\n")
	}

	check("Clock/timezone", checkClockTimezone(ctx))

	if keyring.IsAvailable() {
		ctx.printf("✓ OS keyring: available\n")
	} else {
		ctx.printf("ℹ OS keyring: unavailable\n")
	}

	ctx.printf("\n")
	if hasError {
		ctx.printf("Diagnostics completed with errors.\n")
		return errors.New("one or more health checks failed")
	}
	ctx.printf("All diagnostics passed!\n")
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	store, ok := ctx.Store.(versioned)
	if !ok {
		// The JSON ledger has no schema version.
		return nil
	}

	runner := store.Runner()
	current, err := runner.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}

	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

// checkValidation re-validates every stored habit and looks for name collisions.
func checkValidation(ctx *Context) error {
	habits, err := ctx.Tracker.ListHabits(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}

	for i, h := range habits {
		if err := validation.ValidateHabit(h); err != nil {
			return fmt.Errorf("habit #%d: %w", h.ID, err)
		}
		if dup, found := validation.FindDuplicate(habits[i+1:], h.Name, h.ID); found {
			return fmt.Errorf("habits #%d and #%d share the name %q", h.ID, dup.ID, h.Name)
		}
	}

	if _, err := ctx.Store.CountAllCompletions(ctx.Ctx); err != nil {
		return fmt.Errorf("failed to count completions: %w", err)
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'habitchain backup create'")
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if !calendar.ValidateTimezone(ctx.Config.Timezone) {
		return fmt.Errorf("configured timezone %q is not valid", ctx.Config.Timezone)
	}
	return nil
}
