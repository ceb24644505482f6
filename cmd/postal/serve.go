// CLAUDE:SUMMARY serve subcommand: postal API over the chassis (HTTP/1.1+2, HTTP/3, MCP-over-QUIC), source checker, SIGHUP reload.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/api"
	"github.com/hazyhaar/touchstone-postal/pkg/chassis"
	"github.com/hazyhaar/touchstone-postal/pkg/importer"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
	"github.com/mark3labs/mcp-go/server"
)

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath, newLogger("info"))
	logger := newLogger(cfg.LogLevel)
	if *addr != "" {
		cfg.Addr = *addr
	}

	p := newPostal(cfg, logger)
	defer p.Close()

	// Persistent mode loads eagerly so a broken data dir shows up at startup.
	if !p.ReloadPerCall() && p.EngineEnabled() {
		if err := p.EnsureLoaded(); err != nil {
			if !p.FallbackEnabled() {
				logger.Error("engine load failed", "error", err)
				os.Exit(1)
			}
			logger.Warn("engine load failed, serving primitive fallback", "error", err)
		}
	}

	var mcpSrv *server.MCPServer
	if cfg.MCP {
		mcpSrv = server.NewMCPServer("touchstone-postal", version, server.WithToolCapabilities(false))
		api.RegisterMCPTools(mcpSrv, p, logger)
	}

	srv, err := chassis.New(chassis.Config{
		Addr:      cfg.Addr,
		CertFile:  cfg.CertFile,
		KeyFile:   cfg.KeyFile,
		Handler:   api.NewRouter(p, logger),
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("chassis", "error", err)
		os.Exit(1)
	}

	// SIGHUP: reload engine data.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go reloadOnSignal(ctx, sighup, p, logger)

	if cfg.CheckInterval > 0 {
		if sdb := openSources(cfg.SourcesDB, logger); sdb != nil {
			defer sdb.Close()
			go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
		}
	}

	logger.Info("postal listening", "addr", cfg.Addr, "engine", cfg.Engine, "mcp", cfg.MCP, "postal", p.String())
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(shutdownCtx)
}

func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, p *postal.Postal, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			logger.Info("SIGHUP received, reloading engine")
			if err := p.Reload(); err != nil {
				logger.Error("reload failed", "error", err)
				continue
			}
			logger.Info("engine reloaded", "loaded", p.Loaded())
		}
	}
}

// openSources opens and seeds the import source table. A failure only disables the checker.
func openSources(path string, logger *slog.Logger) *importer.SourceDB {
	sdb, err := importer.OpenSourceDB(path)
	if err != nil {
		logger.Warn("source checker disabled", "path", path, "error", err)
		return nil
	}
	if err := sdb.Seed(importer.All()); err != nil {
		logger.Warn("source checker disabled", "error", err)
		sdb.Close()
		return nil
	}
	return sdb
}
