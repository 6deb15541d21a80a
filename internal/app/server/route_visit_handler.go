package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"wishwall/internal/api/dto"
	"wishwall/internal/database"
	"wishwall/internal/domain"
	"wishwall/internal/gate"
	"wishwall/internal/geo"
)

func getVisitors(w http.ResponseWriter, r *http.Request) {
	visits, err := database.ListVisitors(r.Context())
	if err != nil {
		log.Error("Failed to list visitors", "error", err)
		writeError(w, "Failed to load visitors", http.StatusInternalServerError)
		return
	}

	infos := make([]dto.VisitorInfo, 0, len(visits))
	for _, visit := range visits {
		location := strings.TrimSpace(visit.Country + " " + visit.City)
		if location == "" {
			location = "unknown"
		}
		infos = append(infos, dto.VisitorInfo{
			IP:        visit.IPAddress,
			UserAgent: visit.UserAgent,
			Referer:   visit.Referer,
			Timestamp: visit.CreatedAt,
			Country:   visit.Country,
			City:      visit.City,
			Location:  location,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"visitors": infos})
}

func recordVisit(w http.ResponseWriter, r *http.Request) {
	identity := gate.ClientIdentity(r)
	location := geo.Lookup(r.Context(), identity)

	activity := domain.Activity{
		Type:      domain.ActivityVisit,
		IPAddress: identity,
		UserAgent: r.Header.Get("User-Agent"),
		Referer:   r.Header.Get("Referer"),
		Country:   location.Country,
		City:      location.City,
	}

	if err := database.CreateActivity(r.Context(), &activity); err != nil {
		log.Error("Failed to record visit", "ip", identity, "error", err)
		writeError(w, "Failed to record visit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func getWallStats(w http.ResponseWriter, r *http.Request) {
	stats, err := database.GetWallStats(r.Context(), time.Now())
	if err != nil {
		log.Error("Failed to load wall stats", "error", err)
		writeError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
