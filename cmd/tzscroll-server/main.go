// ABOUTME: Entry point for the tzscroll clock list server
// ABOUTME: Parses CLI flags, seeds the city list and serves it over HTTP
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/tzscroll/internal/config"
	"github.com/harperreed/tzscroll/internal/server"
	"github.com/harperreed/tzscroll/internal/store"
)

var (
	port    = flag.Int("port", 0, "HTTP server port (default from TZSCROLL_SERVER__PORT or 8930)")
	name    = flag.String("name", "", "Server friendly name (default: hostname-tzscroll-server)")
	logFile = flag.String("log-file", "tzscroll-server.log", "Log file path")
	seed    = flag.String("seed", "", "Initial clocks as City=Zone,City=Zone (default from TZSCROLL_SEED__CITIES)")
	dbPath  = flag.String("db", "", "SQLite file to keep clocks in (default from TZSCROLL_STORE__PATH, empty keeps them in memory)")
	debug   = flag.Bool("debug", false, "Enable debug logging")
	noMDNS  = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI  = flag.Bool("tui", false, "Show a status TUI instead of streaming logs")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	serverPort := cfg.Server.Port
	if *port != 0 {
		serverPort = *port
	}

	serverName := *name
	if serverName == "" {
		serverName = cfg.Server.Name
	}
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-tzscroll-server", hostname)
	}

	cities := cfg.Seed.Cities
	if *seed != "" {
		cities = *seed
	}

	path := cfg.Store.Path
	if *dbPath != "" {
		path = *dbPath
	}

	st, err := openStore(path)
	if err != nil {
		log.Fatalf("Failed to open clock store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Error closing clock store: %v", err)
		}
	}()

	seeded, err := store.SeedIfEmpty(st, cities)
	if err != nil {
		log.Fatalf("Invalid seed list: %v", err)
	}
	if seeded {
		log.Printf("Seeded clock list: %s", cities)
	}

	log.Printf("Starting tzscroll server: %s on port %d", serverName, serverPort)
	if *debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)

	srv := server.New(server.Config{
		Port:       serverPort,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		Debug:      *debug,
		UseTUI:     *useTUI,
	}, st)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Printf("Server error: %v", err)
		return
	}

	log.Printf("Server stopped")
}

// openStore keeps clocks in SQLite when path is set, in memory otherwise
func openStore(path string) (store.Store, error) {
	if path == "" {
		log.Printf("Keeping clocks in memory")
		return store.NewMemory(), nil
	}
	log.Printf("Keeping clocks in %s", path)
	return store.NewSQLite(path)
}
