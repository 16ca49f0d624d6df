package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	config "github.com/avvvet/lottery-services/configs"
	"github.com/avvvet/lottery-services/internal/lottery/db"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: migrate [-database URL] <command>

commands:
  up         apply all pending migrations
  down       revert all migrations
  steps N    apply N migrations, or revert |N| when negative
  version    print the current schema version
`

func main() {
	config.LoadEnv("migrate")

	dsn := flag.String("database", os.Getenv("DATABASE_URL"), "postgres connection url")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *dsn == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := db.NewMigrator(*dsn)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer m.Close()

	if err := run(m, flag.Args()); err != nil {
		log.Errorf("migrate %s failed: %v", flag.Arg(0), err)
		m.Close()
		os.Exit(1)
	}
}

func run(m *db.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		if len(args) < 2 {
			return fmt.Errorf("steps needs a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
