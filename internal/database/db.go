package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"WEAPON_DETECTOR/go-backend/internal/auth"
	"WEAPON_DETECTOR/go-backend/internal/config"
)

//go:embed migrations
var embedMigrations embed.FS

// DefaultWeapons is the weapon set every account starts with.
var DefaultWeapons = []string{"knife", "pistol", "heavy_weapon"}

var defaultAdmin = struct {
	Username, Password, Email, FirstName, LastName, Role string
}{
	Username:  "admin",
	Password:  "admin123",
	Email:     "admin@security.com",
	FirstName: "Admin",
	LastName:  "User",
	Role:      "admin",
}

var defaultCameras = []struct {
	Name, Location, Description string
}{
	{"Main Entrance", "Building A - Front Gate", "Primary entrance monitoring"},
	{"Parking Lot", "Building A - Parking Level 1", "Vehicle and pedestrian monitoring"},
	{"Lobby", "Building A - Main Lobby", "Reception area surveillance"},
	{"Corridor 1F", "Building A - First Floor Corridor", "Hallway monitoring"},
	{"Back Exit", "Building A - Emergency Exit", "Secondary exit monitoring"},
}

// Open connects to the configured database. SQLite is the default backend;
// DB_DRIVER=postgres switches to PostgreSQL through the pgx stdlib driver.
func Open(cfg *config.Config) (*sql.DB, error) {
	driverName := cfg.DBDriver
	dsn := cfg.DSN()
	switch cfg.DBDriver {
	case "sqlite3":
		// Writers queue on the file lock instead of failing fast.
		dsn = fmt.Sprintf("%s?_busy_timeout=10000&_txlock=immediate", dsn)
	case "postgres":
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate applies the embedded goose migrations for the given driver
// ("sqlite3" or "postgres").
func Migrate(db *sql.DB, driver string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations/"+driver); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Seed inserts the default admin account, its weapon preferences and the
// default cameras. It is idempotent and safe to run on every startup.
func (s *Store) Seed(ctx context.Context, logger *zap.Logger) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT COUNT(*) FROM users WHERE username = ?"), defaultAdmin.Username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}

	if exists == 0 {
		hash, err := auth.HashPassword(defaultAdmin.Password)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}

		var adminID int
		err = s.db.QueryRowContext(ctx, s.q(`
			INSERT INTO users (username, password_hash, email, first_name, last_name, role)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`),
			defaultAdmin.Username, hash, defaultAdmin.Email,
			defaultAdmin.FirstName, defaultAdmin.LastName, defaultAdmin.Role,
		).Scan(&adminID)
		if err != nil {
			return fmt.Errorf("create admin account: %w", err)
		}

		if err := s.SeedDefaultPreferences(ctx, adminID); err != nil {
			return err
		}
		logger.Info("default admin account created", zap.Int("user_id", adminID))
	}

	for _, cam := range defaultCameras {
		streamURL := "/video?camera=" + slugify(cam.Name)
		_, err := s.db.ExecContext(ctx, s.q(`
			INSERT INTO cameras (camera_name, location, description, stream_url)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (camera_name) DO NOTHING`),
			cam.Name, cam.Location, cam.Description, streamURL)
		if err != nil {
			return fmt.Errorf("seed camera %q: %w", cam.Name, err)
		}
	}

	return nil
}
