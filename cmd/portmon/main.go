package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portmon/internal/config"
	"portmon/internal/dispatch"
	"portmon/internal/models"
	"portmon/internal/monitor"
	"portmon/internal/registry"
	"portmon/internal/retention"
	"portmon/internal/server"
	"portmon/internal/storage"
	"portmon/internal/watcher"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", ":8080", "address for the status web server")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Loaded %d configured port(s) from %s", len(cfg.Ports), *configPath)

	samples, err := storage.NewSampleLog(filepath.Join(cfg.DataDirectory, "check_samples.json"))
	if err != nil {
		log.Fatalf("initialise sample log: %v", err)
	}
	events, err := storage.NewEventLog(filepath.Join(cfg.DataDirectory, "listener_events.json"))
	if err != nil {
		log.Fatalf("initialise event log: %v", err)
	}

	reg := registry.New(events)
	for _, spec := range cfg.EnabledPorts() {
		if err := reg.Start(spec.Port, spec.Label); err != nil {
			log.Printf("auto-start port %d (%s): %v", spec.Port, spec.Label, err)
		}
	}
	defer reg.StopAll()

	target := models.Target{Host: cfg.Monitor.Host, Port: cfg.Monitor.Port}
	mon := monitor.New(
		target,
		time.Duration(cfg.Monitor.IntervalSeconds)*time.Second,
		time.Duration(cfg.Monitor.TimeoutMs)*time.Millisecond,
		cfg.Monitor.FailureThreshold,
		samples,
	)
	mon.Start()
	defer mon.Stop()

	if cfg.Watcher.Enabled {
		w := watcher.New(cfg.Watcher.Directory, cfg.Watcher.Extension, time.Duration(cfg.Watcher.PollMs)*time.Millisecond, func(path string) {
			dst := filepath.Join(cfg.Watcher.Destination, filepath.Base(path))
			if err := watcher.Copy(path, dst); err != nil {
				log.Printf("copy %s: %v", path, err)
				return
			}
			deleted, err := retention.Clean(cfg.Watcher.Destination, cfg.Watcher.Extension, cfg.Retention.MaxFiles, cfg.Retention.KeepFiles)
			if err != nil {
				log.Printf("retention cleanup: %v", err)
				return
			}
			if len(deleted) > 0 {
				log.Printf("retention removed %d file(s)", len(deleted))
			}
		})
		w.Start()
		defer w.Stop()
	}

	srv := server.New(*addr, mon, reg, samples, events, cfg.Ports)
	go func() {
		log.Printf("status server listening on %s", *addr)
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("status server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("=== Port Monitor & Tester ===")
	fmt.Println("Commands:")
	fmt.Println("  start <port>  - Open a listener")
	fmt.Println("  stop <port>   - Close a listener")
	fmt.Println("  test <port>   - Probe a specific port")
	fmt.Println("  test all      - Probe every configured port")
	fmt.Println("  status        - Show monitored server status")
	fmt.Println("  exit          - Quit")

	d := dispatch.New(
		os.Stdin, os.Stdout, reg, mon, cfg.Ports,
		time.Duration(cfg.TestTimeoutMs)*time.Millisecond,
		time.Duration(cfg.Monitor.TimeoutMs)*time.Millisecond,
	)

	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		d.Run()
	}()

	select {
	case <-consoleDone:
	case <-ctx.Done():
		log.Printf("shutting down")
	}
}
