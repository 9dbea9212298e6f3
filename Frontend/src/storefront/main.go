package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/config"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/events"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/logging"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

//go:embed templates static
var assets embed.FS

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("storefront")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("api", cfg.APIBaseURL).
		Str("sessions", cfg.SessionDBPath).
		Bool("rabbit", cfg.RabbitURL != "").
		Msg("starting storefront")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.New(api.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RetryMax:  cfg.APIRetry,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})

	store, err := session.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rabbit, err := events.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		return err
	}
	defer rabbit.Close()
	if err := rabbit.ConsumeTopic(ctx, "", []string{events.AllCatalog}, purgeOn(client)); err != nil {
		return err
	}

	health, err := web.StartHealth(cfg.HealthGRPCAddr, "storefront")
	if err != nil {
		return err
	}
	defer health.Stop()

	templates, static, err := subtrees(assets)
	if err != nil {
		return err
	}
	srv, err := NewServer(cfg, client, store, templates, static)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	return web.Serve(ctx, &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, ln, shutdownGrace)
}

// purgeOn drops cached catalog lists whenever the seller portal reports a
// catalog change.
func purgeOn(client *api.Client) events.Handler {
	return func(_ context.Context, ev events.Event) error {
		log.Info().Str("entity", ev.Entity).Str("action", ev.Action).Str("id", ev.ID).Msg("catalog changed")
		client.PurgeCache()
		return nil
	}
}

func subtrees(fsys fs.FS) (templates, static fs.FS, err error) {
	if templates, err = fs.Sub(fsys, "templates"); err != nil {
		return nil, nil, err
	}
	if static, err = fs.Sub(fsys, "static"); err != nil {
		return nil, nil, err
	}
	return templates, static, nil
}
