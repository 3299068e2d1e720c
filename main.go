package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/config"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/httpserver"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/lookup"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/store"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/wordindex"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := wordindex.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open word index")
	}
	defer index.Close()

	if err := seed(ctx, index, cfg.WordsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to seed word index")
	}

	sessions := store.NewMemoryStore(clockwork.NewRealClock())
	srv := httpserver.New(httpserver.Options{
		ClientOrigin:       cfg.ClientOrigin,
		SessionSecret:      cfg.SessionSecret,
		SecureCookies:      cfg.IsProduction(),
		LookupTimeout:      cfg.LookupTimeout,
		CombinationTimeout: cfg.CombinationTimeout,
		CombinationDepth:   cfg.CombinationDepth,
	}, sessions, index, lookup.NewClient(cfg.LookupURL, cfg.LookupTimeout))

	go janitor(ctx, sessions, cfg.SessionIdleTTL)

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Str("lookup", cfg.LookupURL).Msg("starting go-server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// seed loads every word list into the index. Lists already present are left alone.
func seed(ctx context.Context, index *wordindex.Index, dir string) error {
	lists, err := words.LoadLists(dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := index.Seed(ctx, name, lists[name]); err != nil {
			return err
		}
	}
	return nil
}

// janitor drops idle sessions until ctx is done.
func janitor(ctx context.Context, sessions store.Store, idle time.Duration) {
	every := idle / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(ctx, idle); n > 0 {
				log.Info().Int("removed", n).Int("remaining", sessions.Len()).Msg("idle sessions swept")
			}
		}
	}
}
