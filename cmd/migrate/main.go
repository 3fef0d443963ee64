package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/database"
)

func main() {
	cfg := config.Load()

	var driver string
	flag.StringVar(&driver, "driver", cfg.DraftDriver, "Draft store to migrate: sqlite or postgres")
	flag.Parse()

	var (
		dialect database.Dialect
		dsn     string
	)
	switch driver {
	case "sqlite", "":
		dialect, dsn = database.DialectSQLite, cfg.DraftSQLitePath
	case "postgres":
		dialect, dsn = database.DialectPostgres, cfg.DatabaseURL
		if dsn == "" {
			log.Fatal("DATABASE_URL is not set")
		}
	default:
		log.Fatalf("Driver %q has no migrations", driver)
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}

	m, err := database.NewMigrator(dialect, dsn)
	if err != nil {
		log.Fatalf("Migration failed to initialize: %v", err)
	}
	defer m.Close()

	command := args[0]
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Up failed: %v", err)
		}
		fmt.Println("Migrated up successfully")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Down failed: %v", err)
		}
		fmt.Println("Migrated down successfully")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Version failed: %v", err)
		}
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version: %v", err)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		fmt.Printf("Forced version to %d\n", v)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up, down, version, force <version>")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
