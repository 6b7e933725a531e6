package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" help:"Show ledger location."`
	DumpHabit DebugDumpHabitCmd `cmd:"" help:"Dump a habit and its completions as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	output := map[string]string{
		"path":   ctx.Store.GetConfigPath(),
		"config": ctx.ConfigPath,
	}
	return ctx.printJSON(output)
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

type habitDump struct {
	Habit       models.Habit        `json:"habit"`
	Completions []models.Completion `json:"completions"`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	h, err := ctx.ResolveHabit(cmd.Habit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("habit not found: %s", cmd.Habit)
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}

	days, err := ctx.Store.ListCompletionDays(ctx.Ctx, h.ID)
	if err != nil {
		return fmt.Errorf("failed to list completions: %w", err)
	}

	dump := habitDump{Habit: h, Completions: []models.Completion{}}
	for _, day := range days {
		c, err := ctx.Tracker.GetCompletion(ctx.Ctx, h.ID, day)
		if err != nil {
			return fmt.Errorf("failed to get completion for %s: %w", ctx.Cal.Key(day), err)
		}
		dump.Completions = append(dump.Completions, c)
	}
	return ctx.printJSON(dump)
}

func (c *Context) printJSON(v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	c.printf("%s\n", jsonBytes)
	return nil
}
