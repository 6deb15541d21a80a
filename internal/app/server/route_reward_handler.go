package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"wishwall/internal/api/dto"
	"wishwall/internal/database"
	"wishwall/internal/domain"
)

func getRewardCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := database.ListRewardCodes(r.Context())
	if err != nil {
		log.Error("Failed to list reward codes", "error", err)
		writeError(w, "Failed to load reward codes", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, codes)
}

func addRewardCode(w http.ResponseWriter, r *http.Request) {
	var payload dto.NewRewardCode
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	code := strings.TrimSpace(payload.Code)
	if code == "" {
		writeError(w, "Code is required", http.StatusBadRequest)
		return
	}

	reward := domain.RewardCode{
		Code:        code,
		Description: strings.TrimSpace(payload.Description),
		Amount:      payload.Amount,
	}

	if err := database.CreateRewardCode(r.Context(), &reward); err != nil {
		// The unique index on code is the duplicate detector.
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(err.Error(), "duplicate") {
			writeError(w, "Code already exists", http.StatusBadRequest)
			return
		}
		log.Error("Failed to create reward code", "error", err)
		writeError(w, "Failed to create reward code", http.StatusInternalServerError)
		return
	}

	log.Info("Reward code added", "code", code)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      reward.ID,
		"message": "Reward code added",
	})
}

func deleteRewardCode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid reward code id", http.StatusBadRequest)
		return
	}

	if err := database.DeleteRewardCode(r.Context(), id); err != nil {
		log.Error("Failed to delete reward code", "id", id, "error", err)
		writeError(w, "Failed to delete reward code", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Reward code deleted",
	})
}
