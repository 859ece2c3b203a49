package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/lumierecia/restaurant-pos/pkg/config"
	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	"github.com/lumierecia/restaurant-pos/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

type offlineCommand func(opts options) error

type onlineCommand func(ctx context.Context, sqlDB *sql.DB, opts options) error

// create, validate and list only touch the migrations directory.
var offline = map[string]offlineCommand{
	"create": func(opts options) error {
		if opts.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(opts options) error {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
	"list": func(opts options) error {
		files, err := migrate.List(opts.dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%d\t%s\n", f.Version, f.Name)
		}
		return nil
	},
}

var online = map[string]onlineCommand{
	"up":      gooseCommand("up"),
	"down":    gooseCommand("down"),
	"status":  gooseCommand("status"),
	"redo":    gooseCommand("redo"),
	"version": migrateToVersion,
}

func migrateToVersion(ctx context.Context, sqlDB *sql.DB, opts options) error {
	if opts.version == "" {
		return errors.New("missing -version for version command")
	}
	return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
}

func gooseCommand(name string) onlineCommand {
	return func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, name)
	}
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|redo|version|create|validate|list")
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if run, ok := offline[*cmd]; ok {
		exitOn(run(opts), *cmd)
		return
	}
	runOnline, ok := online[*cmd]
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, false, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to open sql handle", err)
		os.Exit(1)
	}

	err = runOnline(ctx, sqlDB, opts)
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
	}
	exitOn(err, *cmd)
}

func exitOn(err error, cmd string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "migrate %s: %v\n", cmd, err)
	os.Exit(1)
}
