package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")

		adminEmail    = flag.String("admin-email", "", "Bootstrap admin email (create-admin)")
		adminPassword = flag.String("admin-password", "", "Bootstrap admin password (create-admin)")
		adminFirst    = flag.String("admin-first-name", "Admin", "Bootstrap admin first name (create-admin)")
		adminLast     = flag.String("admin-last-name", "User", "Bootstrap admin last name (create-admin)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or DATABASE_URL")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status|create-admin]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "create-admin":
		err = createAdmin(ctx, db, *adminEmail, *adminPassword, *adminFirst, *adminLast)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// createAdmin seeds the first verified admin account. It lives here rather
// than in a SQL seed file because the password hash is salted per run.
func createAdmin(ctx context.Context, db *sql.DB, email, password, firstName, lastName string) error {
	if email == "" || password == "" {
		return fmt.Errorf("create-admin requires -admin-email and -admin-password")
	}
	if !auth.ValidEmail(email) {
		return fmt.Errorf("invalid admin email %q", email)
	}
	if len(password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &auth.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         auth.RoleAdmin,
		Verified:     true,
	}
	if err := auth.NewPGStore(db).Users(ctx).Create(ctx, user); err != nil {
		return err
	}
	log.Printf("created admin %s (id %d)", user.Email, user.ID)
	return nil
}
