package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/rpggio/accord/internal/config"
	"github.com/rpggio/accord/internal/logging"
)

var version = "dev"

var CLI struct {
	Version kong.VersionFlag

	Serve   ServeCmd   `cmd:"" help:"Run the MCP and JSON-RPC server." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Apply pending database migrations."`
	User    struct {
		Add UserAddCmd `cmd:"" help:"Register a user."`
	} `cmd:"" help:"Manage users."`
	Apikey struct {
		Add APIKeyAddCmd `cmd:"" help:"Issue an API key for a user."`
	} `cmd:"" help:"Manage API keys."`
	Token struct {
		Issue TokenIssueCmd `cmd:"" help:"Sign a JWT for a user."`
	} `cmd:"" help:"Manage signed tokens."`
	DSN struct {
		Set DSNSetCmd `cmd:"" help:"Store the Postgres DSN in the OS keyring."`
	} `cmd:"" name:"dsn" help:"Manage the stored database DSN."`
	Report ReportCmd `cmd:"" help:"Print a contract's status report as JSON."`
}

// Runtime is shared by every command.
type Runtime struct {
	Config config.Config
	Logger *slog.Logger
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("accord"),
		kong.Description("Recurring obligations shared between participants."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Logs never go to stdout; stdio mode carries JSON-RPC there.
	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Output:     os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "log setup error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := kctx.Run(&Runtime{Config: cfg, Logger: logger}); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		closer.Close()
		os.Exit(1)
	}
}
