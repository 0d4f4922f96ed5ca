package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-manager/gateway"
	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/jrsteele09/go-session-manager/manager"
	"github.com/jrsteele09/go-session-manager/server"
	"github.com/jrsteele09/go-session-manager/store"
)

// refreshLeeway is how far ahead of access-token expiry the background refresh
// fires.
const refreshLeeway = 30 * time.Second

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	durable, err := newDurableStore(c)
	if err != nil {
		return fmt.Errorf("durable store: %w", err)
	}
	cookies := store.NewCookieJar(nil)
	sessionStore := store.New(durable, cookies)

	gw, err := gateway.NewClient(c.GetGatewayBaseURL(), c.GetHTTPTimeout())
	if err != nil {
		return fmt.Errorf("gateway client: %w", err)
	}

	mgr, err := manager.New(
		manager.Deps{Store: sessionStore, Gateway: gw},
		manager.WithLogger(log.Logger),
	)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Initialize(ctx); err != nil {
		log.Warn().Err(err).Msg("session initialization fell back to unauthenticated")
	}
	go mgr.AutoRefresh(ctx, refreshLeeway)

	srv, err := server.New(c, mgr, gw, cookies)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	cancel()
	returnError = shutdown(httpServer)
	return returnError
}

func newDurableStore(c config.Config) (store.DurableStore, error) {
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		log.Info().Str("addr", addr).Msg("using redis session store")
		return store.NewRedisDurable(client, c.GetRedisPrefix()), nil
	}
	log.Info().Str("folder", c.GetDataFolder()).Msg("using file session store")
	return store.NewFileDurable(c.GetDataFolder())
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
