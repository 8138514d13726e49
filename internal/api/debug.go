package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	if !s.requireKey(w, r) {
		return
	}
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":                 os.Getenv("PORT"),
			"FLEET_SOURCE":         os.Getenv("FLEET_SOURCE"),
			"SWM_API_BASE_URL":     os.Getenv("SWM_API_BASE_URL"),
			"RATE_RPS":             os.Getenv("RATE_RPS"),
			"RATE_BURST":           os.Getenv("RATE_BURST"),
			"WEBHOOK_MAX_ATTEMPTS": os.Getenv("WEBHOOK_MAX_ATTEMPTS"),
			"HAS_DATABASE_URL":     os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":        os.Getenv("REDIS_URL") != "",
			"AUTH_ENABLED":         s.Keys != nil && s.Keys.Enabled(),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
