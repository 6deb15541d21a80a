package bootstrap

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"wishwall/internal/config"
	"wishwall/internal/database"
	"wishwall/internal/gate"
	"wishwall/internal/geo"
)

// Setup loads configuration, opens the database and assembles the gating
// engine. Fatal on database failure; the gate cannot run without its store.
func Setup(assetsDir string) *gate.Engine {
	security := config.LoadSecurity()

	if _, err := database.SetupDB(); err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}

	engine := gate.NewEngine(security,
		gate.WithBannedPage(filepath.Join(assetsDir, "banned.html")),
	)

	geo.Default()

	// Routines

	go engine.RateWindow().StartSweepRoutine(context.Background(), 0)

	return engine
}
