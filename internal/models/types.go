package models

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
}

type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateProfileRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

type UpdatePreferencesRequest struct {
	Preferences []WeaponPreference `json:"preferences"`
}

// LogDetectionRequest carries an optional confidence; nil means the 0.85
// default applies.
type LogDetectionRequest struct {
	CameraID        int      `json:"camera_id"`
	WeaponType      string   `json:"weapon_type"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

type UserInfoResponse struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
	CreatedAt  string `json:"created_at"`
}

type DashboardResponse struct {
	DailySummary     []DailySummary `json:"daily_summary"`
	WeaponTotals     []WeaponTotal  `json:"weapon_totals"`
	RecentDetections []DetectionLog `json:"recent_detections"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CamerasResponse struct {
	Cameras []Camera `json:"cameras"`
}

type PreferencesResponse struct {
	Preferences []WeaponPreference `json:"preferences"`
}

type DetectionLogsResponse struct {
	Logs []DetectionLog `json:"logs"`
}

type CurrentDetectionsResponse struct {
	Detections []CurrentDetection `json:"detections"`
}

type CameraStatusResponse struct {
	Cameras []CameraStatus `json:"cameras"`
}
