// Command migrate runs schema operations for the blog database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"yatube/internal/config"
	"yatube/internal/database"

	"gorm.io/gorm"
)

type command struct {
	usage string
	run   func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up":     {"up                apply pending SQL migrations (postgres)", up},
	"down":   {"down [version]    revert the latest SQL migration", down},
	"auto":   {"auto              run GORM AutoMigrate", auto},
	"status": {"status            show schema policy and migrations", status},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate <command>")
	for _, name := range []string{"up", "down", "auto", "status"} {
		fmt.Fprintln(os.Stderr, "  "+commands[name].usage)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := cmd.run(context.Background(), db, cfg, flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func sqlMigrator(db *gorm.DB, cfg *config.Config) (*database.Migrator, error) {
	if cfg.DBDriver == "sqlite" {
		return nil, errors.New(`SQL migrations target postgres; use "auto" for sqlite`)
	}
	return database.NewEmbeddedMigrator(db)
}

func up(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	migrator, err := sqlMigrator(db, cfg)
	if err != nil {
		return err
	}
	n, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	log.Printf("applied %d migration(s)", n)
	return nil
}

func down(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error {
	migrator, err := sqlMigrator(db, cfg)
	if err != nil {
		return err
	}

	var version int
	if len(args) > 0 {
		if version, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
	} else {
		latest, ok, err := migrator.Latest(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no migrations have been applied")
		}
		version = latest.Version
	}

	if err := migrator.Down(ctx, version); err != nil {
		return err
	}
	log.Printf("reverted migration %06d", version)
	return nil
}

func auto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return err
	}
	log.Println("automigrations applied")
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("mode=%s env=%s run_sql=%t run_auto=%t\n", st.Mode, st.Environment, st.WillRunSQL, st.WillRunAutoMigrate)
	if !st.WillRunSQL {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tSTATE\tAPPLIED AT")
	for _, a := range st.Applied {
		fmt.Fprintf(w, "%06d_%s\tapplied\t%s\n", a.Version, a.Name, a.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range st.PendingMigrations {
		fmt.Fprintf(w, "%s\tpending\t-\n", m)
	}
	return w.Flush()
}
