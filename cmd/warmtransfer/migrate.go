package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/BaSui01/warmtransfer/config"
	"github.com/BaSui01/warmtransfer/internal/migration"
)

// =============================================================================
// Database Migration Commands
// =============================================================================

// runMigrate handles the migrate command and its subcommands
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	command := args[0]
	switch command {
	case "help", "-h", "--help":
		printMigrateUsage()
		return
	case "up", "down", "status", "version":
		runMigration(command, 0, args[1:])
	case "steps", "force":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "migrate %s requires a number\n", command)
			os.Exit(1)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid number %q: %v\n", args[1], err)
			os.Exit(1)
		}
		runMigration(command, n, args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", command)
		printMigrateUsage()
		os.Exit(1)
	}
}

func runMigration(command string, arg int, flags []string) {
	fs := flag.NewFlagSet("migrate "+command, flag.ExitOnError)
	m, err := createMigrator(fs, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := migration.NewCLI(m).Run(context.Background(), command, arg); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
}

// createMigrator creates a migrator from command line flags
func createMigrator(fs *flag.FlagSet, args []string) (*migration.DefaultMigrator, error) {
	configPath := fs.String("config", "", "Path to config file")
	dbType := fs.String("db-type", "", "Database type (postgres, mysql)")
	dbURL := fs.String("db-url", "", "Database connection URL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *dbType != "" && *dbURL != "" {
		t, err := migration.ParseDatabaseType(*dbType)
		if err != nil {
			return nil, err
		}
		return migration.NewMigrator(t, *dbURL, migration.DefaultTable)
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if *dbType != "" {
		cfg.Database.Driver = *dbType
	} else if d := cfg.SQLDriver(); d != "" {
		cfg.Database.Driver = d
	}
	return migration.NewMigratorFromConfig(cfg.Database)
}

// printMigrateUsage prints the usage information for migrate command
func printMigrateUsage() {
	fmt.Println(`Database Migration Commands

Usage:
  warmtransfer migrate <subcommand> [options]

Subcommands:
  up          Apply all pending migrations
  down        Rollback the last migration
  steps <n>   Apply (n>0) or roll back (n<0) n migrations
  status      Show migration status
  version     Show current migration version
  force <v>   Force set migration version (use with caution)
  help        Show this help message

Options:
  --config <path>     Path to configuration file (YAML)
  --db-type <type>    Database type: postgres, mysql (default: from config)
  --db-url <url>      Database connection URL (default: from config)

SQLite stores are created by the server on startup and have no versioned
migrations.

Examples:
  warmtransfer migrate up
  warmtransfer migrate up --config /etc/warmtransfer/config.yaml
  warmtransfer migrate steps -1
  warmtransfer migrate force 1`)
}
