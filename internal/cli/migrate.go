package cli

import "fmt"

type migrator interface {
	Migrate() (int, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("migrate only supports SQLite and PostgreSQL ledgers")
	}
	defer ctx.Store.Close()

	count, err := m.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.printf("No migrations to apply. Database is up to date.\n")
	} else {
		ctx.printf("Successfully applied %d migration(s).\n", count)
	}
	return nil
}
