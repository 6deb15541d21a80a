package app

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"wishwall/internal/app/bootstrap"
	"wishwall/internal/app/server"
	"wishwall/internal/jobs/runtime"
	"wishwall/internal/support"
)

const (
	defaultPort      = 8082
	defaultAssetsDir = "assets"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	log.SetLevel(log.DebugLevel)

	portFlag := flag.Int("port", defaultPort, "Port for API server")
	assetsFlag := flag.String("assets", defaultAssetsDir, "Directory with static pages")
	flag.Parse()

	port := resolvePort("PORT", "BACKEND_PORT", *portFlag)

	assetsDir := *assetsFlag
	if v := os.Getenv("ASSETS_DIR"); v != "" {
		assetsDir = v
	}

	// The heartbeat is presence reporting only; a missing redis must not keep
	// the gate from serving.
	if redisClient, err := support.GetRedisClient(); err != nil {
		log.Warn("Redis unavailable, skipping instance heartbeat", "error", err)
	} else {
		heartbeatCancel := runtime.LaunchInstanceHeartbeat(context.Background(), redisClient)
		defer heartbeatCancel()
		defer support.CloseRedisClient()
	}

	engine := bootstrap.Setup(assetsDir)

	return server.OpenRoutes(port, engine, assetsDir)
}

func resolvePort(primaryEnv, legacyEnv string, fallback int) int {
	if port := readPort(primaryEnv); port != 0 {
		return port
	}
	if port := readPort(legacyEnv); port != 0 {
		return port
	}
	return fallback
}

func readPort(envKey string) int {
	raw := os.Getenv(envKey)
	if raw == "" {
		return 0
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port == 0 {
		log.Warn("invalid port override", "env", envKey, "value", raw)
		return 0
	}
	return port
}
