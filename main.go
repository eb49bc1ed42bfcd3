// ABOUTME: Entry point for the stallbook business-management server
// ABOUTME: Loads configuration, opens the database, and serves the HTTP API
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"stallbook/db"
	"stallbook/web"
)

const version = "0.2.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: $XDG_DATA_HOME/stallbook/stallbook.db)")
	port := flag.Int("port", 0, "HTTP port (default: 8080, or PORT env var)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("stallbook version %s\n", version)
		os.Exit(0)
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	database, err := db.OpenDatabase(getDatabasePath(*dbPath))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	addr := fmt.Sprintf(":%d", getPort(*port))
	server := web.NewServer(addr, database, &logger, os.Getenv("CALENDAR_TIMEZONE"))

	logger.Info().Str("addr", server.Addr()).Str("version", version).Msg("stallbook up")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func getDatabasePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("STALLBOOK_DB_PATH"); envPath != "" {
		return envPath
	}
	return filepath.Join(xdg.DataHome, "stallbook", "stallbook.db")
}

func getPort(flagPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	if envPort := os.Getenv("PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			return p
		}
	}
	return 8080
}
