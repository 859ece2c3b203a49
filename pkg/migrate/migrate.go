package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

func postgresGoose(db *sql.DB, dir string) error {
	if db == nil {
		return errors.New("db is required")
	}
	if dir == "" {
		return errors.New("dir is required")
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command (up, down, status, redo, ...) against
// Postgres. SQLite databases are migrated by MaybeRunDev instead.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if err := postgresGoose(db, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at
// targetVersion (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if err := postgresGoose(db, dir); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	step, move := "up-to", goose.UpToContext
	switch {
	case current == target:
		return nil
	case current > target:
		step, move = "down-to", goose.DownToContext
	}
	if err := move(ctx, db, dir, target); err != nil {
		return fmt.Errorf("goose %s %d: %w", step, target, err)
	}
	return nil
}
