package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docchat-ai/docchat/internal/api"
	"github.com/docchat-ai/docchat/internal/chat"
	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/ident"
	"github.com/docchat-ai/docchat/internal/logging"
	"github.com/docchat-ai/docchat/internal/scope"
)

var (
	cfgFile    string
	serverFlag string
	policyFlag string

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "Terminal client for a document-grounded chat backend",
		Long: "docchat is a terminal client for chatting with your uploaded documents.\n" +
			"Running it with no subcommand opens the interactive TUI.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/docchat/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "override backend base URL")
	rootCmd.PersistentFlags().StringVarP(&policyFlag, "policy", "p", "", "override scope policy (implicit|manual)")

	// Subcommands
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// displayVersion returns a formatted version string for the status bar,
// e.g. "v0.1.0 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
	if policyFlag != "" {
		cfg.ScopePolicy = policyFlag
	}

	return cfg
}

// core holds the wired components shared by the TUI and the subcommands.
type core struct {
	cfg    *config.Config
	log    *zap.Logger
	ids    *ident.Provider
	client *api.Client
	scope  *scope.Manager
	ctrl   *chat.Controller
}

// buildCore wires config, logging, session identity and the backend client.
// After it returns, the identity provider holds a non-empty session id.
func buildCore() (*core, error) {
	cfg := initConfig()

	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		return nil, err
	}

	// The TUI owns the terminal, so logs go to a file in the state dir.
	log := logging.NewFileLogger(stateDir, cfg.LogLevel)

	ids := ident.New(ident.DefaultStatePath(stateDir))
	if _, err := ids.EnsureInitialized(); err != nil {
		return nil, err
	}

	policy, err := scope.ParsePolicy(cfg.ScopePolicy)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.ServerURL, time.Duration(cfg.TimeoutSeconds)*time.Second, log)
	mgr := scope.NewManager(client, policy, log)
	ctrl := chat.NewController(ids, mgr, log)

	return &core{
		cfg:    cfg,
		log:    log,
		ids:    ids,
		client: client,
		scope:  mgr,
		ctrl:   ctrl,
	}, nil
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docchat %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}
