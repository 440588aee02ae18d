package database

import (
	"context"
	"fmt"
	"time"

	"WEAPON_DETECTOR/go-backend/internal/models"
)

const dateLayout = "2006-01-02"

// LogDetection appends one immutable detection event and folds it into the
// (user, camera, day, weapon) daily summary inside a single transaction.
//
// The summary is upserted first so concurrent recorders for the same key
// serialize on its row before the recompute; count and average are then
// recomputed from the full raw event set rather than adjusted
// incrementally, so the aggregate can never drift from the logs.
func (s *Store) LogDetection(ctx context.Context, userID, cameraID int, weaponType string, confidence float64) (*models.DetectionLog, error) {
	now := time.Now()
	today := now.Format(dateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin detection: %w", err)
	}
	defer tx.Rollback()

	var eventID int
	err = tx.QueryRowContext(ctx, s.q(`
		INSERT INTO detection_logs (user_id, camera_id, weapon_type, confidence_score, detection_time, date_only)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		userID, cameraID, weaponType, confidence, now, today,
	).Scan(&eventID)
	if err != nil {
		return nil, fmt.Errorf("insert detection: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO daily_summary (user_id, camera_id, detection_date, weapon_type,
		                           total_detections, avg_confidence, first_detection, last_detection)
		VALUES (?, ?, ?, ?, 0, 0, ?, ?)
		ON CONFLICT (user_id, camera_id, detection_date, weapon_type)
		DO UPDATE SET last_detection = excluded.last_detection`),
		userID, cameraID, today, weaponType, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert summary: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.q(`
		UPDATE daily_summary SET
			total_detections = (SELECT COUNT(*) FROM detection_logs
				WHERE user_id = ? AND camera_id = ? AND date_only = ? AND weapon_type = ?),
			avg_confidence = (SELECT AVG(confidence_score) FROM detection_logs
				WHERE user_id = ? AND camera_id = ? AND date_only = ? AND weapon_type = ?),
			first_detection = (SELECT MIN(detection_time) FROM detection_logs
				WHERE user_id = ? AND camera_id = ? AND date_only = ? AND weapon_type = ?),
			last_detection = (SELECT MAX(detection_time) FROM detection_logs
				WHERE user_id = ? AND camera_id = ? AND date_only = ? AND weapon_type = ?)
		WHERE user_id = ? AND camera_id = ? AND detection_date = ? AND weapon_type = ?`),
		userID, cameraID, today, weaponType,
		userID, cameraID, today, weaponType,
		userID, cameraID, today, weaponType,
		userID, cameraID, today, weaponType,
		userID, cameraID, today, weaponType)
	if err != nil {
		return nil, fmt.Errorf("recompute summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit detection: %w", err)
	}

	return &models.DetectionLog{
		ID:              eventID,
		UserID:          userID,
		CameraID:        cameraID,
		WeaponType:      weaponType,
		ConfidenceScore: confidence,
		DetectionTime:   now,
		DateOnly:        today,
	}, nil
}

// GetDetectionLogs returns events within the trailing day window joined
// with camera and user metadata, newest first. cameraID <= 0 and empty
// weaponType mean no filter. The window bound is always a query parameter.
func (s *Store) GetDetectionLogs(ctx context.Context, cameraID int, weaponType string, days, limit int) ([]models.DetectionLog, error) {
	since := time.Now().AddDate(0, 0, -days).Format(dateLayout)

	query := `
		SELECT dl.id, dl.user_id, dl.camera_id, dl.weapon_type, dl.confidence_score,
		       dl.detection_time, dl.date_only, dl.image_path,
		       c.camera_name, c.location, u.username
		FROM detection_logs dl
		JOIN cameras c ON dl.camera_id = c.id
		JOIN users u ON dl.user_id = u.id
		WHERE dl.date_only >= ?`
	args := []interface{}{since}

	if cameraID > 0 {
		query += ` AND dl.camera_id = ?`
		args = append(args, cameraID)
	}
	if weaponType != "" {
		query += ` AND dl.weapon_type = ?`
		args = append(args, weaponType)
	}

	query += ` ORDER BY dl.detection_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query detection logs: %w", err)
	}
	defer rows.Close()

	var logs []models.DetectionLog
	for rows.Next() {
		var l models.DetectionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CameraID, &l.WeaponType, &l.ConfidenceScore,
			&l.DetectionTime, &l.DateOnly, &l.ImagePath,
			&l.CameraName, &l.Location, &l.Username); err != nil {
			return nil, fmt.Errorf("scan detection log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetDashboardData assembles the per-user dashboard: windowed daily
// summaries, per-weapon totals across the window, and the 20 most recent
// raw events regardless of window.
func (s *Store) GetDashboardData(ctx context.Context, userID, days, cameraID int) (*models.DashboardResponse, error) {
	since := time.Now().AddDate(0, 0, -days).Format(dateLayout)

	daily, err := s.dashboardDailySummary(ctx, userID, since, cameraID)
	if err != nil {
		return nil, err
	}
	totals, err := s.dashboardWeaponTotals(ctx, userID, since, cameraID)
	if err != nil {
		return nil, err
	}
	recent, err := s.dashboardRecentDetections(ctx, userID, cameraID)
	if err != nil {
		return nil, err
	}

	if daily == nil {
		daily = []models.DailySummary{}
	}
	if totals == nil {
		totals = []models.WeaponTotal{}
	}
	if recent == nil {
		recent = []models.DetectionLog{}
	}

	return &models.DashboardResponse{
		DailySummary:     daily,
		WeaponTotals:     totals,
		RecentDetections: recent,
	}, nil
}

func (s *Store) dashboardDailySummary(ctx context.Context, userID int, since string, cameraID int) ([]models.DailySummary, error) {
	query := `
		SELECT ds.id, ds.user_id, ds.camera_id, ds.detection_date, ds.weapon_type,
		       ds.total_detections, ds.avg_confidence, ds.first_detection, ds.last_detection,
		       c.camera_name, c.location
		FROM daily_summary ds
		JOIN cameras c ON ds.camera_id = c.id
		WHERE ds.user_id = ? AND ds.detection_date >= ?`
	args := []interface{}{userID, since}

	if cameraID > 0 {
		query += ` AND ds.camera_id = ?`
		args = append(args, cameraID)
	}
	query += ` ORDER BY ds.detection_date DESC, ds.weapon_type`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.DailySummary
	for rows.Next() {
		var d models.DailySummary
		var first, last nullTime
		if err := rows.Scan(&d.ID, &d.UserID, &d.CameraID, &d.DetectionDate, &d.WeaponType,
			&d.TotalDetections, &d.AvgConfidence, &first, &last,
			&d.CameraName, &d.Location); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		d.FirstDetection = first.Time
		d.LastDetection = last.Time
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}

func (s *Store) dashboardWeaponTotals(ctx context.Context, userID int, since string, cameraID int) ([]models.WeaponTotal, error) {
	query := `
		SELECT ds.weapon_type, SUM(ds.total_detections) AS total, AVG(ds.avg_confidence)
		FROM daily_summary ds
		WHERE ds.user_id = ? AND ds.detection_date >= ?`
	args := []interface{}{userID, since}

	if cameraID > 0 {
		query += ` AND ds.camera_id = ?`
		args = append(args, cameraID)
	}
	query += ` GROUP BY ds.weapon_type ORDER BY total DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query weapon totals: %w", err)
	}
	defer rows.Close()

	var totals []models.WeaponTotal
	for rows.Next() {
		var t models.WeaponTotal
		if err := rows.Scan(&t.WeaponType, &t.Total, &t.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scan weapon total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (s *Store) dashboardRecentDetections(ctx context.Context, userID, cameraID int) ([]models.DetectionLog, error) {
	query := `
		SELECT dl.id, dl.user_id, dl.camera_id, dl.weapon_type, dl.confidence_score,
		       dl.detection_time, dl.date_only, dl.image_path, c.camera_name, c.location
		FROM detection_logs dl
		JOIN cameras c ON dl.camera_id = c.id
		WHERE dl.user_id = ?`
	args := []interface{}{userID}

	if cameraID > 0 {
		query += ` AND dl.camera_id = ?`
		args = append(args, cameraID)
	}
	query += ` ORDER BY dl.detection_time DESC LIMIT 20`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query recent detections: %w", err)
	}
	defer rows.Close()

	var logs []models.DetectionLog
	for rows.Next() {
		var l models.DetectionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CameraID, &l.WeaponType, &l.ConfidenceScore,
			&l.DetectionTime, &l.DateOnly, &l.ImagePath, &l.CameraName, &l.Location); err != nil {
			return nil, fmt.Errorf("scan recent detection: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetPublicCurrentDetections returns events in the trailing minute window
// grouped by camera and weapon kind, newest group first.
func (s *Store) GetPublicCurrentDetections(ctx context.Context, minutes int) ([]models.CurrentDetection, error) {
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT c.camera_name, c.location, dl.weapon_type,
		       MAX(dl.confidence_score), MAX(dl.detection_time) AS last_seen, COUNT(*)
		FROM detection_logs dl
		JOIN cameras c ON dl.camera_id = c.id
		WHERE dl.detection_time >= ?
		GROUP BY c.id, c.camera_name, c.location, dl.weapon_type
		ORDER BY last_seen DESC`), cutoff)
	if err != nil {
		return nil, fmt.Errorf("query current detections: %w", err)
	}
	defer rows.Close()

	var detections []models.CurrentDetection
	for rows.Next() {
		var d models.CurrentDetection
		var last nullTime
		if err := rows.Scan(&d.CameraName, &d.Location, &d.WeaponType,
			&d.ConfidenceScore, &last, &d.DetectionCount); err != nil {
			return nil, fmt.Errorf("scan current detection: %w", err)
		}
		d.DetectionTime = last.Time
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// GetPublicCameraStatus lists every camera with today's event count and
// latest event time. Cameras without events today still appear with a zero
// count and a null timestamp.
func (s *Store) GetPublicCameraStatus(ctx context.Context) ([]models.CameraStatus, error) {
	today := time.Now().Format(dateLayout)

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT c.id, c.camera_name, c.location, c.is_active,
		       COUNT(dl.id) AS detections_today, MAX(dl.detection_time) AS last_detection
		FROM cameras c
		LEFT JOIN detection_logs dl ON c.id = dl.camera_id AND dl.date_only = ?
		GROUP BY c.id, c.camera_name, c.location, c.is_active
		ORDER BY c.camera_name`), today)
	if err != nil {
		return nil, fmt.Errorf("query camera status: %w", err)
	}
	defer rows.Close()

	var statuses []models.CameraStatus
	for rows.Next() {
		var cs models.CameraStatus
		var last nullTime
		if err := rows.Scan(&cs.ID, &cs.CameraName, &cs.Location, &cs.IsActive,
			&cs.DetectionsToday, &last); err != nil {
			return nil, fmt.Errorf("scan camera status: %w", err)
		}
		if last.Valid {
			t := last.Time
			cs.LastDetection = &t
		}
		statuses = append(statuses, cs)
	}
	return statuses, rows.Err()
}
