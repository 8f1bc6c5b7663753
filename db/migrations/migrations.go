package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
)

const TableName = "schema_migrations"

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// goose keeps its configuration in package globals.
var mu sync.Mutex

type Options struct {
	// Dir overrides the embedded migrations with an on-disk directory.
	Dir   string
	Quiet bool
}

func Up(ctx context.Context, db *sql.DB, driver string, opts Options) error {
	return run(driver, opts, func(dir string) error {
		return goose.UpContext(ctx, db, dir)
	})
}

// Down rolls back the latest applied migration.
func Down(ctx context.Context, db *sql.DB, driver string, opts Options) error {
	return run(driver, opts, func(dir string) error {
		return goose.DownContext(ctx, db, dir)
	})
}

func Status(ctx context.Context, db *sql.DB, driver string, opts Options) error {
	return run(driver, opts, func(dir string) error {
		return goose.StatusContext(ctx, db, dir)
	})
}

func run(driver string, opts Options, fn func(dir string) error) error {
	mu.Lock()
	defer mu.Unlock()

	dialect, dir, err := resolve(driver)
	if err != nil {
		return err
	}

	var fsys fs.FS = embedded
	if opts.Dir != "" {
		fsys = os.DirFS(opts.Dir)
		dir = "."
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetTableName(TableName)
	if opts.Quiet {
		goose.SetLogger(goose.NopLogger())
	} else {
		goose.SetLogger(log.New(os.Stdout, "", log.LstdFlags))
	}

	return fn(dir)
}

func resolve(driver string) (dialect, dir string, err error) {
	switch driver {
	case "postgres":
		return "postgres", "postgres", nil
	case "sqlite":
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}
