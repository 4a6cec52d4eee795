package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// command is one -cmd value. Offline commands run without a database.
type command struct {
	offline bool
	run     func(ctx context.Context, conn *sql.DB, dialect string, opts options) error
}

var commands = map[string]command{
	"up":     {run: gooseCommand("up")},
	"down":   {run: gooseCommand("down")},
	"status": {run: gooseCommand("status")},
	"version": {run: func(ctx context.Context, conn *sql.DB, dialect string, opts options) error {
		if opts.version == "" {
			return errors.New("missing -version")
		}
		return migrate.MigrateToVersion(ctx, conn, dialect, opts.dir, opts.version)
	}},
	"create": {offline: true, run: func(_ context.Context, _ *sql.DB, _ string, opts options) error {
		if opts.name == "" {
			return errors.New("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	}},
	"validate": {offline: true, run: func(_ context.Context, _ *sql.DB, _ string, opts options) error {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}},
	"list": {offline: true, run: func(_ context.Context, _ *sql.DB, _ string, opts options) error {
		files, err := migrate.List(opts.dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%d\t%s\n", f.Version, f.Name)
		}
		return nil
	}},
}

func gooseCommand(name string) func(context.Context, *sql.DB, string, options) error {
	return func(ctx context.Context, conn *sql.DB, dialect string, opts options) error {
		return migrate.Run(ctx, conn, dialect, opts.dir, name)
	}
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func main() {
	_ = godotenv.Load()

	var opts options
	cmdName := flag.String("cmd", "up", "migration command: "+commandNames())
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmdName, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmdName, err)
		os.Exit(1)
	}
}

func run(name string, opts options) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command, expected one of %s", commandNames())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": name, "dir": opts.dir})

	if cmd.offline {
		return cmd.run(ctx, nil, "", opts)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.database.unavailable", err)
		return err
	}
	defer dbClient.Close()

	conn, err := dbClient.DB().DB()
	if err != nil {
		return err
	}
	dialect := migrate.DialectFor(cfg.DB)
	ctx = logg.WithField(ctx, "dialect", dialect)
	logg.Info(ctx, "migrate.start")

	if err := cmd.run(ctx, conn, dialect, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
