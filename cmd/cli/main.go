package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/RoGogDBD/closet/internal/config"
	"github.com/RoGogDBD/closet/internal/config/db"
	"github.com/RoGogDBD/closet/internal/logger"
	"github.com/RoGogDBD/closet/internal/repository"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = `usage: closet-cli <command> [flags]

commands:
  add-user -username NAME -password SECRET   create a staff account
  migrate                                    apply database migrations
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("command is required")
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return errors.New("database dsn is not configured")
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	switch args[0] {
	case "add-user":
		return addUser(cfg, l, args[1:])
	case "migrate":
		return db.RunMigrations(cfg.Database.DSN, cfg.Database.MigrationsPath, l)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func addUser(cfg *config.Config, l *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	username := fs.String("username", "", "login of the new account")
	password := fs.String("password", "", "password, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Database, l.Named("db"))
	if err != nil {
		return err
	}
	defer pool.Close()

	accounts := service.NewAccounts(repository.NewPostgresStorage(pool))
	u, err := accounts.CreateUser(ctx, *username, *password)
	if err != nil {
		return err
	}
	l.Info("user created", zap.String("username", u.Username), zap.String("id", u.ID.String()))
	return nil
}
