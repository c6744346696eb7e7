// Command seed applies a roles.yaml file: it creates missing roles, adds
// their permissions and attaches listed users.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/config"
	"github.com/EmpoweredVote/EV-Links/internal/db"
	"github.com/EmpoweredVote/EV-Links/internal/seeds"
)

var (
	filePath = flag.String("file", "", "Path to the roles YAML file (required)")
	dryRun   = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
)

func main() {
	flag.Parse()
	if *filePath == "" {
		fatalf("--file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		fatalf("read %s: %v", *filePath, err)
	}
	f, err := seeds.Parse(data)
	if err != nil {
		fatalf("roles file invalid: %v", err)
	}
	fmt.Printf("Loaded %d roles from %s\n", len(f.Roles), *filePath)

	if *dryRun {
		for _, r := range f.Roles {
			fmt.Printf("  %-20s permissions=%d users=%d\n", r.Name, len(r.Permissions), len(r.Users))
		}
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb, cfg.DBSchema); err != nil {
		fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rep, err := seeds.SeedRoles(ctx, gdb, f)
	if err != nil {
		fatalf("seeding failed: %v", err)
	}
	fmt.Printf("Roles created: %d, permissions added: %d, users assigned: %d, users not found: %d\n",
		rep.RolesCreated, rep.PermissionsAdded, rep.UsersAssigned, rep.UsersMissing)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
