package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"phonebook.org/internal/migrate"
	"phonebook.org/internal/store/pg"
)

const usage = "usage: migrate [flags] up|down|seed|status|pending"

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	var (
		dsn     = pflag.String("dsn", os.Getenv("PHONEBOOK_PG_DSN"), "PostgreSQL DSN")
		timeout = pflag.Duration("timeout", 30*time.Second, "overall deadline for the command")
	)
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via --dsn or PHONEBOOK_PG_DSN")
	}
	if pflag.NArg() == 0 {
		log.Fatal(usage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, pg.Migrations(), pg.Seeds())

	var out []string
	switch pflag.Arg(0) {
	case "up":
		out, err = mgr.Up(ctx)
	case "down":
		var name string
		name, err = mgr.Down(ctx)
		if name != "" {
			out = []string{name}
		}
	case "seed":
		out, err = mgr.Seed(ctx)
	case "status":
		out, err = mgr.Status(ctx)
	case "pending":
		out, err = mgr.Pending(ctx)
	default:
		log.Fatalf("unknown command %q\n%s", pflag.Arg(0), usage)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", pflag.Arg(0), err)
	}
	for _, item := range out {
		fmt.Println(item)
	}
}
