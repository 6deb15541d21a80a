package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"wishwall/internal/api/dto"
	"wishwall/internal/auth"
	"wishwall/internal/config"
	"wishwall/internal/database"
	"wishwall/internal/gate"
)

// securityHandler threads the gating engine into handlers that need its
// manual ban/unban operations.
func securityHandler(engine *gate.Engine, f func(*gate.Engine, http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f(engine, w, r)
	})
}

func operatorLogin(w http.ResponseWriter, r *http.Request) {
	var credentials dto.Credentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if !auth.CheckOperatorCredentials(credentials.Username, credentials.Password) {
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(credentials.Username)
	if err != nil {
		log.Error("Failed to issue operator token", "error", err)
		writeError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func getBannedIPs(_ *gate.Engine, w http.ResponseWriter, r *http.Request) {
	bans, err := database.ListActiveBans(r.Context())
	if err != nil {
		log.Error("Failed to list active bans", "error", err)
		writeError(w, "Failed to load banned IPs", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	infos := make([]dto.BannedIPInfo, 0, len(bans))
	for _, ban := range bans {
		remaining := "Permanent"
		if !ban.IsPermanent {
			if left := ban.ExpiresAt.Sub(now); left > 0 {
				remaining = left.Truncate(time.Second).String()
			} else {
				remaining = "Expired"
			}
		}
		infos = append(infos, dto.BannedIPInfo{
			IPAddress:     ban.IPAddress,
			BanReason:     ban.BanReason,
			BanCount:      ban.BanCount,
			BannedAt:      ban.BannedAt,
			ExpiresAt:     ban.ExpiresAt,
			IsPermanent:   ban.IsPermanent,
			RemainingTime: remaining,
		})
	}

	writeJSON(w, http.StatusOK, infos)
}

func manualBan(engine *gate.Engine, w http.ResponseWriter, r *http.Request) {
	var payload dto.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	identity := strings.TrimSpace(payload.IPAddress)
	if identity == "" {
		writeError(w, "IP address is required", http.StatusBadRequest)
		return
	}

	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = "Manually banned"
	}

	duration := time.Duration(payload.DurationSeconds) * time.Second
	if err := engine.Ban(r.Context(), identity, reason, duration, payload.IsPermanent); err != nil {
		log.Error("Manual ban failed", "ip", identity, "error", err)
		writeError(w, "Failed to ban IP", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "IP " + identity + " banned",
	})
}

func unbanIP(engine *gate.Engine, w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimSpace(r.PathValue("ip"))
	if identity == "" {
		writeError(w, "IP address is required", http.StatusBadRequest)
		return
	}

	if err := engine.Unban(r.Context(), identity); err != nil {
		log.Error("Unban failed", "ip", identity, "error", err)
		writeError(w, "Failed to unban IP", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "IP " + identity + " unbanned",
	})
}

func getRequestLogs(w http.ResponseWriter, r *http.Request) {
	page := 1
	limit := 50

	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, "Invalid page parameter", http.StatusBadRequest)
			return
		}
		page = parsed
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	logs, total, err := database.ListRequestLogs(r.Context(), page, limit, r.URL.Query().Get("ip"))
	if err != nil {
		log.Error("Failed to list request logs", "error", err)
		writeError(w, "Failed to load request logs", http.StatusInternalServerError)
		return
	}

	infos := make([]dto.RequestLogInfo, 0, len(logs))
	for _, entry := range logs {
		infos = append(infos, dto.RequestLogInfo{
			IPAddress:    entry.IPAddress,
			Endpoint:     entry.Endpoint,
			Method:       entry.Method,
			UserAgent:    entry.UserAgent,
			StatusCode:   entry.Status,
			ResponseTime: entry.Duration,
			CreatedAt:    entry.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, dto.RequestLogPage{
		Logs:       infos,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	})
}

func getSecurityStats(w http.ResponseWriter, r *http.Request) {
	counters, err := database.GetSecurityCounters(r.Context(), time.Now())
	if err != nil {
		log.Error("Failed to load security stats", "error", err)
		writeError(w, "Failed to load security stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active_bans":     counters.ActiveBans,
		"today_bans":      counters.TodayBans,
		"today_requests":  counters.TodayRequests,
		"today_blocked":   counters.TodayBlocked,
		"top_ips":         counters.TopIdentities,
		"security_config": config.GetSecurity(),
	})
}
