package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rpggio/accord/internal/app"
	"github.com/rpggio/accord/internal/auth"
	"github.com/rpggio/accord/internal/calendar"
)

// MigrateCmd applies migrations and exits.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(rt *Runtime) error {
	db, err := openDB(context.Background(), rt.Config, rt.Logger)
	if err != nil {
		return err
	}
	defer db.Close()
	rt.Logger.Info("database migrated", "driver", rt.Config.DB.Driver)
	return nil
}

type UserAddCmd struct {
	ID   string `help:"User ID; generated when empty."`
	Name string `arg:"" help:"Display name."`
}

func (c *UserAddCmd) Run(rt *Runtime) error {
	return withApp(rt, func(ctx context.Context, a *app.App) error {
		u, err := a.Users.Create(ctx, c.ID, c.Name)
		if err != nil {
			return err
		}
		fmt.Println(u.ID)
		return nil
	})
}

type APIKeyAddCmd struct {
	User        string `arg:"" help:"User the key authenticates as."`
	Description string `help:"Free-form note stored with the key."`
}

// Run prints the new key once; only its hash is stored.
func (c *APIKeyAddCmd) Run(rt *Runtime) error {
	return withApp(rt, func(ctx context.Context, a *app.App) error {
		if _, err := a.Users.Get(ctx, c.User); err != nil {
			return err
		}
		key, err := auth.NewAPIKey()
		if err != nil {
			return err
		}
		if err := a.APIKeys.Create(ctx, auth.HashToken(key), c.User, c.Description); err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	})
}

type TokenIssueCmd struct {
	User string        `arg:"" help:"Token subject."`
	TTL  time.Duration `help:"Token lifetime; defaults to auth.token_ttl."`
}

func (c *TokenIssueCmd) Run(rt *Runtime) error {
	cfg := rt.Config.Auth
	if cfg.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = cfg.TokenTTL.Std()
	}
	token, err := auth.NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer).Issue(c.User, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

type DSNSetCmd struct {
	DSN string `arg:"" help:"Postgres connection string."`
}

func (c *DSNSetCmd) Run(rt *Runtime) error {
	if err := keyringFor(rt.Config.DB).Set(c.DSN); err != nil {
		return err
	}
	rt.Logger.Info("stored database DSN", "service", rt.Config.DB.KeyringService, "user", rt.Config.DB.KeyringUser)
	return nil
}

type ReportCmd struct {
	User     string `required:"" help:"Participant requesting the report."`
	Contract string `arg:"" help:"Contract ID."`
	WeeksAgo int    `default:"1" help:"Week to report; 1 is the last closed week."`
}

func (c *ReportCmd) Run(rt *Runtime) error {
	return withApp(rt, func(ctx context.Context, a *app.App) error {
		r, err := a.Reports.BuildReport(ctx, c.User, c.Contract, c.WeeksAgo)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	})
}

func withApp(rt *Runtime, fn func(ctx context.Context, a *app.App) error) error {
	ctx := context.Background()
	db, err := openDB(ctx, rt.Config, rt.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	a := app.New(db, app.Options{
		Clock:     calendar.SystemClock{Location: rt.Config.Location()},
		AllowSolo: rt.Config.Contracts.AllowSolo,
		Logger:    rt.Logger,
	})
	return fn(ctx, a)
}
