package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"WEAPON_DETECTOR/go-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store wraps the shared database handle. It is the only writer in the
// process and is passed explicitly to everything that needs persistence.
type Store struct {
	db     *sql.DB
	driver string
}

func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// q rewrites ? placeholders to $N for the postgres backend. Queries are
// written once in ? style.
func (s *Store) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}

// nullTime scans timestamps that arrive either as time.Time or as raw text.
// SQLite drops the declared column type on aggregated expressions such as
// MAX(detection_time), so the driver hands those back as strings.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		n.Valid = false
		return nil
	case time.Time:
		n.Time, n.Valid = v, true
		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (n *nullTime) parse(v string) error {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, v); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", v)
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// ========== USERS ==========

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, username, email, password_hash, first_name, last_name,
		       phone, role, department, is_active, created_at, updated_at
		FROM users WHERE username = ?`), username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Phone, &u.Role, &u.Department, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

// CreateUser inserts a new user with the given password digest and seeds
// its default weapon preferences in the same transaction. Returns
// ErrDuplicate when the username or email is taken.
func (s *Store) CreateUser(ctx context.Context, req models.RegisterRequest, passwordHash string) (int, error) {
	role := req.Role
	if role == "" {
		role = "guard"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	var userID int
	err = tx.QueryRowContext(ctx, s.q(`
		INSERT INTO users (username, password_hash, email, first_name, last_name, phone, role, department)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		req.Username, passwordHash, req.Email, req.FirstName, req.LastName,
		req.Phone, role, req.Department,
	).Scan(&userID)
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	for _, weapon := range DefaultWeapons {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO weapon_preferences (user_id, weapon_type, is_enabled)
			VALUES (?, ?, ?)
			ON CONFLICT (user_id, weapon_type) DO NOTHING`),
			userID, weapon, true); err != nil {
			return 0, fmt.Errorf("seed preferences: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create user: %w", err)
	}
	return userID, nil
}

func (s *Store) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, s.q(`
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE username = ?`), passwordHash, username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, username string, req models.UpdateProfileRequest) error {
	result, err := s.db.ExecContext(ctx, s.q(`
		UPDATE users SET first_name = ?, last_name = ?, phone = ?,
		       department = ?, updated_at = CURRENT_TIMESTAMP
		WHERE username = ?`),
		req.FirstName, req.LastName, req.Phone, req.Department, username)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account and everything it owns. The cascade is
// explicit and ordered: preferences, then detection logs, then summaries,
// then the user row.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	var userID int
	err = tx.QueryRowContext(ctx, s.q(`SELECT id FROM users WHERE username = ?`), username).Scan(&userID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user for delete: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM weapon_preferences WHERE user_id = ?`,
		`DELETE FROM detection_logs WHERE user_id = ?`,
		`DELETE FROM daily_summary WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.q(stmt), userID); err != nil {
			return fmt.Errorf("delete user data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}

// ========== WEAPON PREFERENCES ==========

func (s *Store) GetWeaponPreferences(ctx context.Context, userID int) ([]models.WeaponPreference, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT weapon_type, is_enabled FROM weapon_preferences
		WHERE user_id = ? ORDER BY weapon_type`), userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.WeaponPreference
	for rows.Next() {
		var p models.WeaponPreference
		if err := rows.Scan(&p.WeaponType, &p.IsEnabled); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// SeedDefaultPreferences backfills the default weapon set for a user.
// Existing rows are left untouched.
func (s *Store) SeedDefaultPreferences(ctx context.Context, userID int) error {
	for _, weapon := range DefaultWeapons {
		_, err := s.db.ExecContext(ctx, s.q(`
			INSERT INTO weapon_preferences (user_id, weapon_type, is_enabled)
			VALUES (?, ?, ?)
			ON CONFLICT (user_id, weapon_type) DO NOTHING`),
			userID, weapon, true)
		if err != nil {
			return fmt.Errorf("seed preference %q: %w", weapon, err)
		}
	}
	return nil
}

func (s *Store) UpdateWeaponPreferences(ctx context.Context, userID int, prefs []models.WeaponPreference) error {
	for _, p := range prefs {
		_, err := s.db.ExecContext(ctx, s.q(`
			UPDATE weapon_preferences
			SET is_enabled = ?, updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ? AND weapon_type = ?`),
			p.IsEnabled, userID, p.WeaponType)
		if err != nil {
			return fmt.Errorf("update preference %q: %w", p.WeaponType, err)
		}
	}
	return nil
}

// ========== CAMERAS ==========

func (s *Store) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, camera_name, location, description, stream_url, is_active
		FROM cameras WHERE is_active = ? ORDER BY camera_name`), true)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []models.Camera
	for rows.Next() {
		var c models.Camera
		if err := rows.Scan(&c.ID, &c.CameraName, &c.Location, &c.Description, &c.StreamURL, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}
