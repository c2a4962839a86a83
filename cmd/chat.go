package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/docchat-ai/docchat/internal/tui"
)

// runChat starts the interactive TUI.
func runChat() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("docchat needs a terminal; use the sessions/upload/clean subcommands in scripts")
	}

	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.log.Sync() //nolint:errcheck

	c.log.Info("starting docchat",
		zap.String("session_id", c.ids.CurrentID()),
		zap.String("server_url", c.cfg.ServerURL),
		zap.String("scope_policy", c.cfg.ScopePolicy),
	)

	return tui.Run(tui.Deps{
		Client:  c.client,
		Scope:   c.scope,
		Ctrl:    c.ctrl,
		Log:     c.log,
		Version: displayVersion(),
	})
}
