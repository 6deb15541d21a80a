package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"wishwall/internal/auth"
	"wishwall/internal/gate"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow any origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Pass the request to the next handler
		next.ServeHTTP(w, r)
	})
}

// OpenRoutes wires every handler behind the gating engine and serves. The
// engine is composed exactly once, in front of the whole mux, so no route can
// bypass it.
func OpenRoutes(port int, engine *gate.Engine, assetsDir string) error {
	router := http.NewServeMux()

	router.HandleFunc("GET /api/messages", getMessages)
	router.HandleFunc("POST /api/messages", addMessage)
	router.HandleFunc("DELETE /api/messages/{id}", deleteMessage)

	router.HandleFunc("GET /api/visitors", getVisitors)
	router.HandleFunc("POST /api/visit", recordVisit)
	router.HandleFunc("GET /api/stats", getWallStats)

	router.HandleFunc("GET /api/reward-codes", getRewardCodes)
	router.Handle("POST /api/reward-codes", auth.IsAdmin(http.HandlerFunc(addRewardCode)))
	router.Handle("DELETE /api/reward-codes/{id}", auth.IsAdmin(http.HandlerFunc(deleteRewardCode)))

	router.HandleFunc("POST /api/admin/login", operatorLogin)
	router.Handle("GET /api/security/banned-ips", auth.IsAdmin(securityHandler(engine, getBannedIPs)))
	router.Handle("POST /api/security/banned-ips", auth.IsAdmin(securityHandler(engine, manualBan)))
	router.Handle("DELETE /api/security/banned-ips/{ip}", auth.IsAdmin(securityHandler(engine, unbanIP)))
	router.Handle("GET /api/security/request-logs", auth.IsAdmin(http.HandlerFunc(getRequestLogs)))
	router.Handle("GET /api/security/stats", auth.IsAdmin(http.HandlerFunc(getSecurityStats)))

	// ---------------
	// STATIC PAGES
	// ---------------
	router.HandleFunc("GET /admin", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(assetsDir, "admin.html"))
	})
	router.HandleFunc("/", serveWall(assetsDir))

	log.Debug("Routes opened")

	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: enableCORS(engine.Middleware(router)),
	}

	log.Infof("Starting wishwall backend on port :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// serveWall serves the wall page on / and /birthday with a best-effort visit
// record, and falls back to static files for everything else.
func serveWall(assetsDir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(assetsDir))
	wallPage := filepath.Join(assetsDir, "birthday.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}

		if r.URL.Path == "/" || r.URL.Path == "/birthday" {
			recordVisitAsync(r)
			http.ServeFile(w, r, wallPage)
			return
		}

		path := filepath.Join(assetsDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	}
}
