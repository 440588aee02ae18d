package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"WEAPON_DETECTOR/go-backend/internal/auth"
	"WEAPON_DETECTOR/go-backend/internal/models"
)

const defaultConfidence = 0.85

func (h *Handler) Cameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cameras, err := h.store.ListCameras(r.Context())
	if err != nil {
		h.logger.Error("camera listing failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if cameras == nil {
		cameras = []models.Camera{}
	}
	h.writeJSON(w, http.StatusOK, models.CamerasResponse{Cameras: cameras})
}

// WeaponPreferences handles both reads and batch updates on one path.
// First read for an account without rows backfills the default set.
func (h *Handler) WeaponPreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getWeaponPreferences(w, r)
	case http.MethodPost:
		h.updateWeaponPreferences(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *Handler) getWeaponPreferences(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())

	prefs, err := h.store.GetWeaponPreferences(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("preference read failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if len(prefs) == 0 {
		if err := h.store.SeedDefaultPreferences(r.Context(), claims.UserID); err != nil {
			h.logger.Error("preference backfill failed", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if prefs, err = h.store.GetWeaponPreferences(r.Context(), claims.UserID); err != nil {
			h.logger.Error("preference re-read failed", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	h.writeJSON(w, http.StatusOK, models.PreferencesResponse{Preferences: prefs})
}

func (h *Handler) updateWeaponPreferences(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())

	var req models.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Preferences == nil {
		h.writeError(w, http.StatusBadRequest, "Missing preferences data")
		return
	}

	if err := h.store.UpdateWeaponPreferences(r.Context(), claims.UserID, req.Preferences); err != nil {
		h.logger.Error("preference update failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Preferences updated successfully"})
}

func (h *Handler) LogDetection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	var req models.LogDetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.WeaponType == "" || req.CameraID <= 0 {
		h.writeError(w, http.StatusBadRequest, "Missing weapon_type or camera_id")
		return
	}

	confidence := defaultConfidence
	if req.ConfidenceScore != nil {
		confidence = *req.ConfidenceScore
	}
	if confidence < 0 || confidence > 1 {
		h.writeError(w, http.StatusBadRequest, "confidence_score must be between 0 and 1")
		return
	}

	event, err := h.store.LogDetection(r.Context(), claims.UserID, req.CameraID, req.WeaponType, confidence)
	if err != nil {
		h.logger.Error("detection logging failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.IncrementDetections()
	h.hub.BroadcastDetection(event)
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Detection logged successfully"})
}

func (h *Handler) DetectionLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cameraID := queryInt(r, "camera_id", 0)
	weaponType := r.URL.Query().Get("weapon_type")
	days := queryInt(r, "days", 7)
	limit := queryInt(r, "limit", 100)

	logs, err := h.store.GetDetectionLogs(r.Context(), cameraID, weaponType, days, limit)
	if err != nil {
		h.logger.Error("detection log query failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if logs == nil {
		logs = []models.DetectionLog{}
	}
	h.writeJSON(w, http.StatusOK, models.DetectionLogsResponse{Logs: logs})
}

func (h *Handler) DashboardData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	days := queryInt(r, "days", 7)
	cameraID := queryInt(r, "camera_id", 0)

	data, err := h.store.GetDashboardData(r.Context(), claims.UserID, days, cameraID)
	if err != nil {
		h.logger.Error("dashboard query failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

func (h *Handler) PublicCurrentDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	minutes := queryInt(r, "minutes", 60)

	detections, err := h.store.GetPublicCurrentDetections(r.Context(), minutes)
	if err != nil {
		h.logger.Error("current detection query failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if detections == nil {
		detections = []models.CurrentDetection{}
	}
	h.writeJSON(w, http.StatusOK, models.CurrentDetectionsResponse{Detections: detections})
}

func (h *Handler) PublicCameraStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	statuses, err := h.store.GetPublicCameraStatus(r.Context())
	if err != nil {
		h.logger.Error("camera status query failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if statuses == nil {
		statuses = []models.CameraStatus{}
	}
	h.writeJSON(w, http.StatusOK, models.CameraStatusResponse{Cameras: statuses})
}
