// ABOUTME: Entry point for the tzscroll world clock timeline
// ABOUTME: Parses CLI flags, finds the clock list server and starts the TUI
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
	"time"

	"github.com/harperreed/tzscroll/internal/clockface"
	"github.com/harperreed/tzscroll/internal/clocklist"
	"github.com/harperreed/tzscroll/internal/config"
	"github.com/harperreed/tzscroll/internal/discovery"
	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/timeline"
	"github.com/harperreed/tzscroll/internal/tz"
	"github.com/harperreed/tzscroll/internal/ui"
)

var (
	serverAddr      = flag.String("server", "", "Clock list server address (skip mDNS)")
	offline         = flag.Bool("offline", false, "Show only the local clock, without a server")
	logFile         = flag.String("log-file", "", "Log file path (default from TZSCROLL_LOG__FILE or tzscroll.log)")
	zone            = flag.String("zone", "", "Viewer timezone, e.g. Europe/Berlin (default: system zone)")
	widthFactor     = flag.Float64("width-factor", 0, "Timeline width as a multiple of the strip width")
	indicator       = flag.Float64("indicator", -1, "Indicator position as a fraction of the strip width")
	discoverTimeout = flag.Duration("discover-timeout", 0, "How long to browse mDNS for a server")
	printOnce       = flag.Bool("print", false, "Print every clock once and exit instead of starting the TUI")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if *printOnce {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	} else {
		// TUI mode: log only to file
		log.SetOutput(f)
	}

	local := time.Local
	if cfg.Timeline.Zone != "" {
		loc, err := tz.Resolve(cfg.Timeline.Zone)
		if err != nil {
			log.Fatalf("Invalid zone: %v", err)
		}
		local = loc
	}
	conv := tz.NewConverter(local)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	address := cfg.Server.Addr
	if address == "" && !*offline {
		log.Printf("Browsing for a clock list server for %v...", cfg.Discovery.Timeout)
		server, err := discovery.FindServer(ctx, cfg.Discovery.Timeout)
		if err != nil {
			log.Printf("Discovery failed, running offline: %v", err)
		} else {
			address = server.Addr()
			log.Printf("Discovered server %s (version %q) at %s", server.Name, server.Version, address)
		}
	}

	var source *clocklist.HTTPSource
	if address != "" && !*offline {
		source, err = clocklist.NewHTTPSource(address)
		if err != nil {
			log.Fatalf("Invalid server address: %v", err)
		}
	}

	if *printOnce {
		if err := printClocks(ctx, source, conv); err != nil {
			log.Fatalf("Failed to list clocks: %v", err)
		}
		return
	}

	opts := timeline.DefaultOptions()
	opts.WidthFactor = cfg.Timeline.WidthFactor
	opts.IndicatorRatio = cfg.Timeline.Indicator
	opts.EdgeTolerance = cfg.Timeline.EdgeTolerance
	opts.PixelDuration = cfg.ColumnDuration()

	modelCfg := ui.Config{
		ServerAddr: address,
		Converter:  conv,
		Clock:      timeline.SystemClock{},
		Timeline:   opts,
	}
	if source != nil {
		modelCfg.Source = source
	}

	model := ui.NewModel(modelCfg)
	defer model.Close()

	prog := ui.Run(model)

	if source != nil {
		watcher, err := clocklist.NewWatcher(address)
		if err != nil {
			log.Fatalf("Invalid server address: %v", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(ev protocol.ClocksChanged) {
				log.Printf("Clock list changed (%s)", ev.Reason)
				prog.Send(ui.ClocksChangedMsg{})
			})
			log.Printf("Watcher stopped: %v", err)
		}()
	}

	go func() {
		<-ctx.Done()
		prog.Quit()
	}()

	if _, err := prog.Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
	stop()

	log.Printf("tzscroll stopped")
}

// applyFlags lets command line flags override the loaded configuration
func applyFlags(cfg *config.Config) {
	if *serverAddr != "" {
		cfg.Server.Addr = *serverAddr
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *zone != "" {
		cfg.Timeline.Zone = *zone
	}
	if *widthFactor != 0 {
		cfg.Timeline.WidthFactor = *widthFactor
	}
	if *indicator >= 0 {
		cfg.Timeline.Indicator = *indicator
	}
	if *discoverTimeout != 0 {
		cfg.Discovery.Timeout = *discoverTimeout
	}
}

// printClocks writes the current time of every clock to stdout
func printClocks(ctx context.Context, source *clocklist.HTTPSource, conv *tz.Converter) error {
	var cities []protocol.City
	if source != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		var err error
		cities, err = source.List(ctx)
		if err != nil {
			return err
		}
	}

	snap := timeline.Snapshot{Reference: time.Now()}
	for _, face := range clockface.Faces(snap, cities, conv, true) {
		fmt.Printf("%-30s %s\n", face.Label(), face.DisplayTime().Format("Mon 02 Jan 15:04"))
	}
	return nil
}
