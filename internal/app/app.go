// Package app wires the stores and domain services into one graph shared by
// the server binary and the test server.
package app

import (
	"log/slog"

	"github.com/rpggio/accord/internal/auth"
	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/domain/report"
	"github.com/rpggio/accord/internal/domain/user"
	"github.com/rpggio/accord/internal/mcp"
	"github.com/rpggio/accord/internal/store"
	"github.com/rpggio/accord/internal/telemetry"
)

// Options tune the service graph.
type Options struct {
	Clock     calendar.Clock
	AllowSolo bool
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// App holds the repositories and services built on one database.
type App struct {
	DB      *store.DB
	APIKeys *store.APIKeyRepository

	Users     *user.Service
	Templates *obligation.Service
	Contracts *contract.Service
	Instances *instance.Service
	Reports   *report.Service
	Activity  *activity.Service
}

// New builds the service graph on db.
func New(db *store.DB, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}

	templateRepo := store.NewTemplateRepository(db)
	contractRepo := store.NewContractRepository(db)
	instanceRepo := store.NewInstanceRepository(db)
	activityRepo := store.NewActivityRepository(db)
	userRepo := store.NewUserRepository(db)

	instanceOpts := []instance.Option{instance.WithClock(clock)}
	var reportMetrics report.Metrics
	if opts.Metrics != nil {
		instanceOpts = append(instanceOpts, instance.WithMetrics(opts.Metrics))
		reportMetrics = opts.Metrics
	}

	users := user.NewService(userRepo)
	instances := instance.NewService(instanceRepo, contractRepo, templateRepo, activityRepo, logger, instanceOpts...)

	return &App{
		DB:        db,
		APIKeys:   store.NewAPIKeyRepository(db),
		Users:     users,
		Templates: obligation.NewService(templateRepo, logger),
		Contracts: contract.NewService(contractRepo, templateRepo, activityRepo, logger,
			contract.WithScheduler(instances),
			contract.WithSoloContracts(opts.AllowSolo)),
		Instances: instances,
		Reports:   report.NewService(contractRepo, templateRepo, instanceRepo, users, reportMetrics, clock, logger),
		Activity:  activity.NewService(activityRepo, logger),
	}
}

// MCPServices exposes the services to the MCP handler.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Templates: a.Templates,
		Contracts: a.Contracts,
		Instances: a.Instances,
		Reports:   a.Reports,
		Activity:  a.Activity,
	}
}

// APIKeyResolver authenticates bearer API keys against the store.
func (a *App) APIKeyResolver() *auth.APIKeyResolver {
	return auth.NewAPIKeyResolver(a.APIKeys)
}
