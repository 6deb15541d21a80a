package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"wishwall/internal/api/dto"
	"wishwall/internal/config"
	"wishwall/internal/database"
	"wishwall/internal/domain"
	"wishwall/internal/gate"
	"wishwall/internal/geo"
)

const (
	maxNameLength    = 50
	maxMessageLength = 500
	defaultEmoji     = "🎂"
)

func getMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := database.ListMessages(r.Context())
	if err != nil {
		log.Error("Failed to list messages", "error", err)
		writeError(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}

	infos := make([]dto.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		infos = append(infos, dto.MessageInfo{
			ID:        msg.ID,
			Name:      msg.Name,
			Message:   msg.Message,
			Emoji:     msg.Emoji,
			Timestamp: msg.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, infos)
}

func addMessage(w http.ResponseWriter, r *http.Request) {
	var payload dto.NewMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(payload.Name)
	message := strings.TrimSpace(payload.Message)
	emoji := payload.Emoji
	if emoji == "" {
		emoji = defaultEmoji
	}

	if name == "" || message == "" {
		writeError(w, "Name and message are required", http.StatusBadRequest)
		return
	}
	if len([]rune(name)) > maxNameLength {
		writeError(w, "Name must be at most 50 characters", http.StatusBadRequest)
		return
	}
	if len([]rune(message)) > maxMessageLength {
		writeError(w, "Message must be at most 500 characters", http.StatusBadRequest)
		return
	}

	identity := gate.ClientIdentity(r)
	location := geo.Lookup(r.Context(), identity)

	activity := domain.Activity{
		Type:      domain.ActivityMessage,
		Name:      name,
		Message:   message,
		Emoji:     emoji,
		IPAddress: identity,
		UserAgent: r.Header.Get("User-Agent"),
		Referer:   r.Header.Get("Referer"),
		Country:   location.Country,
		City:      location.City,
	}

	if err := database.CreateActivity(r.Context(), &activity); err != nil {
		log.Error("Failed to save message", "error", err)
		writeError(w, "Failed to save message", http.StatusInternalServerError)
		return
	}

	log.Info("New wall message", "name", name, "ip", identity)

	response := dto.MessageCreated{
		Success: true,
		ID:      activity.ID,
		Message: "Message saved",
	}

	if rand.Float64() < config.GetSecurity().RewardDrawProbability {
		code, err := database.ClaimRewardCode(r.Context(), identity)
		if err != nil {
			log.Error("Reward code claim failed", "ip", identity, "error", err)
		} else if code != "" {
			log.Info("Reward code awarded", "ip", identity, "code", code)
			response.RewardCode = code
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid message id", http.StatusBadRequest)
		return
	}

	if err := database.DeleteMessage(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, "Message not found", http.StatusNotFound)
			return
		}
		log.Error("Failed to delete message", "id", id, "error", err)
		writeError(w, "Failed to delete message", http.StatusInternalServerError)
		return
	}

	log.Info("Message deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message deleted",
	})
}

// recordVisitAsync logs a page visit without holding up the response. The geo
// lookup runs inside the goroutine so its timeout never touches page latency.
func recordVisitAsync(r *http.Request) {
	identity := gate.ClientIdentity(r)
	userAgent := r.Header.Get("User-Agent")
	referer := r.Header.Get("Referer")

	go func() {
		location := geo.Lookup(context.Background(), identity)
		activity := domain.Activity{
			Type:      domain.ActivityVisit,
			IPAddress: identity,
			UserAgent: userAgent,
			Referer:   referer,
			Country:   location.Country,
			City:      location.City,
		}
		if err := database.CreateActivity(context.Background(), &activity); err != nil {
			log.Error("Failed to record visit", "ip", identity, "error", err)
		}
	}()
}
