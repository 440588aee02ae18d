package handlers

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"WEAPON_DETECTOR/go-backend/internal/database"
)

// VideoStream proxies the AI service's multipart stream to the caller.
// The token rides in the query string because browsers cannot set headers
// on <img> sources. With probability 0.1 one simulated detection is
// recorded for the caller at stream start, off the streaming path.
func (h *Handler) VideoStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cameraID := queryInt(r, "camera_id", 1)

	if rand.Float64() < 0.1 {
		weapon := database.DefaultWeapons[rand.Intn(len(database.DefaultWeapons))]
		confidence := 0.7 + rand.Float64()*0.25
		userID := claims.UserID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			event, err := h.store.LogDetection(ctx, userID, cameraID, weapon, confidence)
			if err != nil {
				h.logger.Warn("simulated detection failed", zap.Error(err))
				return
			}
			h.metrics.IncrementDetections()
			h.hub.BroadcastDetection(event)
		}()
	}

	upstream, err := http.Get(h.cfg.AIStreamURL)
	if err != nil {
		h.logger.Error("AI stream unreachable", zap.String("url", h.cfg.AIStreamURL), zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "Video stream unavailable")
		return
	}
	defer upstream.Body.Close()

	contentType := upstream.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "multipart/x-mixed-replace; boundary=frame"
	}
	w.Header().Set("Content-Type", contentType)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 1024)
	for {
		n, rerr := upstream.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// Client went away; teardown is best-effort.
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			return
		}
	}
}

// LiveFeed upgrades authenticated clients onto the detection broadcast hub.
func (h *Handler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.hub.Serve(w, r, claims.Username())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"active_clients":    h.hub.ClientCount(),
		"detections_logged": h.metrics.GetDetectionsLogged(),
		"uptime_sec":        h.metrics.UptimeSeconds(),
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snapshot := h.metrics.Snapshot()
	snapshot["active_clients"] = h.hub.ClientCount()
	h.writeJSON(w, http.StatusOK, snapshot)
}
