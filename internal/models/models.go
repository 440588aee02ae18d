package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Camera struct {
	ID          int    `json:"id"`
	CameraName  string `json:"camera_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	StreamURL   string `json:"stream_url,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type WeaponPreference struct {
	WeaponType string `json:"weapon_type"`
	IsEnabled  bool   `json:"is_enabled"`
}

// DetectionLog is one immutable detection event. Camera and user fields are
// populated on joined reads only.
type DetectionLog struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	CameraID        int       `json:"camera_id"`
	WeaponType      string    `json:"weapon_type"`
	ConfidenceScore float64   `json:"confidence_score"`
	DetectionTime   time.Time `json:"detection_time"`
	DateOnly        string    `json:"date_only"`
	ImagePath       *string   `json:"image_path,omitempty"`

	CameraName string `json:"camera_name,omitempty"`
	Location   string `json:"location,omitempty"`
	Username   string `json:"username,omitempty"`
}

// DailySummary is the rolling aggregate, unique per
// (user, camera, detection_date, weapon_type).
type DailySummary struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	CameraID        int       `json:"camera_id"`
	DetectionDate   string    `json:"detection_date"`
	WeaponType      string    `json:"weapon_type"`
	TotalDetections int       `json:"total_detections"`
	AvgConfidence   float64   `json:"avg_confidence"`
	FirstDetection  time.Time `json:"first_detection"`
	LastDetection   time.Time `json:"last_detection"`

	CameraName string `json:"camera_name,omitempty"`
	Location   string `json:"location,omitempty"`
}

type WeaponTotal struct {
	WeaponType    string  `json:"weapon_type"`
	Total         int     `json:"total"`
	AvgConfidence float64 `json:"avg_conf"`
}

type CurrentDetection struct {
	CameraName      string    `json:"camera_name"`
	Location        string    `json:"location"`
	WeaponType      string    `json:"weapon_type"`
	ConfidenceScore float64   `json:"confidence_score"`
	DetectionTime   time.Time `json:"detection_time"`
	DetectionCount  int       `json:"detection_count"`
}

type CameraStatus struct {
	ID              int        `json:"id"`
	CameraName      string     `json:"camera_name"`
	Location        string     `json:"location"`
	IsActive        bool       `json:"is_active"`
	DetectionsToday int        `json:"detections_today"`
	LastDetection   *time.Time `json:"last_detection"`
}
