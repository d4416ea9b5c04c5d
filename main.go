// Package main provides the entry point for the fragment viewer server.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"frag-viewer/internal/app"
	"frag-viewer/internal/config"
	"frag-viewer/internal/fragment"
	"frag-viewer/internal/version"
	"frag-viewer/internal/web"
)

const appTitle = "Fragment Viewer"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "viewer.yaml", "configuration file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dataDir := flag.String("data", "", "fragments directory (overrides config)")
	dev := flag.Bool("dev", false, "restart automatically when the binary is rebuilt")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Fragments.Dir = *dataDir
	}

	log.Printf("Starting %s v%s", appTitle, version.String())

	if *dev {
		if reloader := app.NewHotReloader(2 * time.Second); reloader != nil {
			reloader.Start()
			defer reloader.Stop()
			log.Printf("Hot reload: watching %s", reloader.ExecPath())
		}
	}

	lib, err := fragment.NewLibrary(cfg.Fragments.Dir)
	if err != nil {
		log.Fatalf("Fragment library: %v", err)
	}
	log.Printf("Fragment library: %s", lib.Dir())

	server := web.NewServer(cfg, lib)

	if cfg.Fragments.Watch {
		watcher, err := fragment.NewWatcher(lib, server.NotifyLibraryChanged)
		if err != nil {
			log.Printf("Fragment watcher unavailable: %v", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
			log.Printf("Watching %s for fragment changes", lib.Dir())
		}
	}

	log.Printf("Listening on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, server); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
