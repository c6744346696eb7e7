// Command prune-sessions flags login sessions whose expiry has passed as
// expired. Rows are never deleted.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

var (
	dsn       = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	schema    = flag.String("schema", "", "Schema holding login_sessions (default: env DB_SCHEMA or links)")
	dryRun    = flag.Bool("dry-run", false, "Count stale sessions only; no DB writes")
	lockKey   = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key. 0 = disabled")
	olderThan = flag.Duration("older-than", 0, "Only flag sessions that expired at least this long ago")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if *schema == "" {
		*schema = os.Getenv("DB_SCHEMA")
	}
	if *schema == "" {
		*schema = "links"
	}
	table := pq.QuoteIdentifier(*schema) + ".login_sessions"
	cutoff := time.Now().UTC().Add(-*olderThan)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	if *dryRun {
		var n int64
		q := `SELECT COUNT(*) FROM ` + table + ` WHERE expired = false AND expires_at < $1`
		if err := db.QueryRowContext(ctx, q, cutoff).Scan(&n); err != nil {
			fatalf("count: %v", err)
		}
		fmt.Printf("%d sessions would be flagged expired.\n", n)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if *lockKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *lockKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET expired = true WHERE expired = false AND expires_at < $1`, cutoff)
	if err != nil {
		fatalf("update: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		fatalf("rows affected: %v", err)
	}
	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Printf("Flagged %d sessions as expired in %s.\n", n, table)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
