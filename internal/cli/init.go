package cli

import (
	"errors"
	"os"

	"github.com/julianstephens/habitchain/internal/config"
	"github.com/julianstephens/habitchain/internal/logger"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(ctx.Ctx); err != nil {
		return err
	}
	ctx.printf("Initialized habitchain ledger at: %s\n", ctx.Store.GetConfigPath())

	path, err := config.ExpandPath(ctx.ConfigPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := ctx.Config.Save(path); err != nil {
			return err
		}
		logger.Info("Wrote default config", "path", path)
		ctx.printf("Wrote config file: %s\n", path)
	}
	return nil
}
