package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"WEAPON_DETECTOR/go-backend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db, "sqlite3"))

	store := NewStore(db, "sqlite3")
	require.NoError(t, store.Seed(context.Background(), zap.NewNop()))
	return store
}

func createTestUser(t *testing.T, store *Store, username string) int {
	t.Helper()
	id, err := store.CreateUser(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
	}, "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake")
	require.NoError(t, err)
	return id
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, zap.NewNop()))

	admin, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)
	assert.True(t, admin.IsActive)

	cameras, err := store.ListCameras(ctx)
	require.NoError(t, err)
	assert.Len(t, cameras, 5)
}

func TestCreateUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, store, "guard1")
	assert.Greater(t, userID, 0)

	user, err := store.GetUserByUsername(ctx, "guard1")
	require.NoError(t, err)
	assert.Equal(t, "guard", user.Role)

	prefs, err := store.GetWeaponPreferences(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, prefs, len(DefaultWeapons))
	for _, p := range prefs {
		assert.True(t, p.IsEnabled)
	}

	_, err = store.CreateUser(ctx, models.RegisterRequest{
		Username: "guard1",
		Email:    "other@example.com",
	}, "hash")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "guard1")

	require.NoError(t, store.UpdatePassword(ctx, "guard1", "new-hash"))

	user, err := store.GetUserByUsername(ctx, "guard1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", user.PasswordHash)

	assert.ErrorIs(t, store.UpdatePassword(ctx, "nobody", "hash"), ErrNotFound)
}

func TestUpdateUserProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "guard1")

	err := store.UpdateUserProfile(ctx, "guard1", models.UpdateProfileRequest{
		FirstName:  "Ivan",
		LastName:   "Petrov",
		Phone:      "+70000000000",
		Department: "Night Shift",
	})
	require.NoError(t, err)

	user, err := store.GetUserByUsername(ctx, "guard1")
	require.NoError(t, err)
	assert.Equal(t, "Ivan", user.FirstName)
	assert.Equal(t, "Night Shift", user.Department)

	assert.ErrorIs(t, store.UpdateUserProfile(ctx, "nobody", models.UpdateProfileRequest{}), ErrNotFound)
}

func TestUpdateWeaponPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	err := store.UpdateWeaponPreferences(ctx, userID, []models.WeaponPreference{
		{WeaponType: "knife", IsEnabled: false},
	})
	require.NoError(t, err)

	prefs, err := store.GetWeaponPreferences(ctx, userID)
	require.NoError(t, err)
	for _, p := range prefs {
		if p.WeaponType == "knife" {
			assert.False(t, p.IsEnabled)
		} else {
			assert.True(t, p.IsEnabled)
		}
	}
}

func TestLogDetectionAggregates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	scores := []float64{0.8, 0.9, 1.0}
	for _, score := range scores {
		event, err := store.LogDetection(ctx, userID, 1, "knife", score)
		require.NoError(t, err)
		assert.Greater(t, event.ID, 0)
		assert.Equal(t, "knife", event.WeaponType)
	}

	data, err := store.GetDashboardData(ctx, userID, 1, 0)
	require.NoError(t, err)

	require.Len(t, data.DailySummary, 1)
	summary := data.DailySummary[0]
	assert.Equal(t, 3, summary.TotalDetections)
	assert.InDelta(t, 0.9, summary.AvgConfidence, 1e-9)
	assert.False(t, summary.LastDetection.Before(summary.FirstDetection))

	require.Len(t, data.WeaponTotals, 1)
	assert.Equal(t, "knife", data.WeaponTotals[0].WeaponType)
	assert.Equal(t, 3, data.WeaponTotals[0].Total)

	assert.Len(t, data.RecentDetections, 3)
}

func TestLogDetectionSplitsByKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	_, err := store.LogDetection(ctx, userID, 1, "knife", 0.9)
	require.NoError(t, err)
	_, err = store.LogDetection(ctx, userID, 1, "pistol", 0.8)
	require.NoError(t, err)
	_, err = store.LogDetection(ctx, userID, 2, "knife", 0.7)
	require.NoError(t, err)

	data, err := store.GetDashboardData(ctx, userID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, data.DailySummary, 3)

	// Filtering to camera 1 drops the camera 2 row.
	data, err = store.GetDashboardData(ctx, userID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, data.DailySummary, 2)
}

func TestLogDetectionConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.LogDetection(ctx, userID, 1, "pistol", 0.75)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	data, err := store.GetDashboardData(ctx, userID, 1, 0)
	require.NoError(t, err)
	require.Len(t, data.DailySummary, 1)
	assert.Equal(t, n, data.DailySummary[0].TotalDetections)
	assert.InDelta(t, 0.75, data.DailySummary[0].AvgConfidence, 1e-9)
}

func TestGetDetectionLogsWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	_, err := store.LogDetection(ctx, userID, 1, "knife", 0.9)
	require.NoError(t, err)

	// An event just past the 7-day window, inserted directly.
	old := time.Now().AddDate(0, 0, -8)
	_, err = store.db.Exec(`
		INSERT INTO detection_logs (user_id, camera_id, weapon_type, confidence_score, detection_time, date_only)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, 1, "knife", 0.9, old, old.Format(dateLayout))
	require.NoError(t, err)

	logs, err := store.GetDetectionLogs(ctx, 0, "", 7, 100)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Main Entrance", logs[0].CameraName)
	assert.Equal(t, "guard1", logs[0].Username)

	logs, err = store.GetDetectionLogs(ctx, 0, "", 30, 100)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = store.GetDetectionLogs(ctx, 0, "pistol", 30, 100)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestGetPublicCurrentDetections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	_, err := store.LogDetection(ctx, userID, 1, "knife", 0.8)
	require.NoError(t, err)
	_, err = store.LogDetection(ctx, userID, 1, "knife", 0.95)
	require.NoError(t, err)

	detections, err := store.GetPublicCurrentDetections(ctx, 60)
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "Main Entrance", detections[0].CameraName)
	assert.Equal(t, 2, detections[0].DetectionCount)
	assert.InDelta(t, 0.95, detections[0].ConfidenceScore, 1e-9)
}

func TestGetPublicCameraStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	statuses, err := store.GetPublicCameraStatus(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 5)
	for _, cs := range statuses {
		assert.Zero(t, cs.DetectionsToday)
		assert.Nil(t, cs.LastDetection)
	}

	userID := createTestUser(t, store, "guard1")
	_, err = store.LogDetection(ctx, userID, 1, "knife", 0.9)
	require.NoError(t, err)

	statuses, err = store.GetPublicCameraStatus(ctx)
	require.NoError(t, err)
	for _, cs := range statuses {
		if cs.ID == 1 {
			assert.Equal(t, 1, cs.DetectionsToday)
			assert.NotNil(t, cs.LastDetection)
		} else {
			assert.Zero(t, cs.DetectionsToday)
		}
	}
}

func TestDeleteUserCascade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := createTestUser(t, store, "guard1")

	_, err := store.LogDetection(ctx, userID, 1, "knife", 0.9)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, "guard1"))

	_, err = store.GetUserByUsername(ctx, "guard1")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, table := range []string{"weapon_preferences", "detection_logs", "daily_summary"} {
		var count int
		err := store.db.QueryRow(
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ?", table), userID,
		).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count, "table %s should be empty for deleted user", table)
	}

	assert.ErrorIs(t, store.DeleteUser(ctx, "guard1"), ErrNotFound)
}

func TestRebindForPostgres(t *testing.T) {
	s := &Store{driver: "postgres"}
	assert.Equal(t, "SELECT $1, $2", s.q("SELECT ?, ?"))

	s.driver = "sqlite3"
	assert.Equal(t, "SELECT ?, ?", s.q("SELECT ?, ?"))
}
