package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/danbim/application-tracker/internal/config"
	"github.com/danbim/application-tracker/internal/events"
	"github.com/danbim/application-tracker/internal/httpapi"
	"github.com/danbim/application-tracker/internal/posting"
	"github.com/danbim/application-tracker/internal/scheduler"
)

const (
	lockFileName  = "tracker.lock"
	tokenFileName = "shutdown.token"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: app.addr from the config)")
	return cmd
}

func runServe(ctx context.Context, g *globalFlags, addrOverride string) error {
	if err := os.MkdirAll(g.dataDir, 0o755); err != nil {
		return err
	}

	// one server per data dir; SQLite has a single writer
	lock := flock.New(filepath.Join(g.dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return exitError(3, "another tracker is already serving %s", g.dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	e, err := openEnv(g)
	if err != nil {
		return err
	}
	defer e.Close()

	var cfgVal atomic.Value // stores config.Config
	cfgVal.Store(e.cfg)
	loadCfg := func() (config.Config, error) {
		return config.Load(e.cfgPath)
	}

	hub := events.NewHub()

	sched := scheduler.New(e.db.Pool, hub, e.cfg)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	fetcher := posting.NewFetcher(
		e.cfg.PostingTimeout(),
		posting.NewHostLimiter(e.cfg.Posting.RequestsPerSecond, e.cfg.Posting.Burst),
		e.cfg.Posting.UserAgent,
	)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          e.db.Pool,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: e.cfgPath,
		LoadCfg:     loadCfg,
		Prefiller:   fetcher,
	})
	// cancelled on shutdown so open SSE streams end instead of holding it up
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv := &http.Server{
		Handler:           httpapi.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	token, err := httpapi.RandomToken(16)
	if err != nil {
		return fmt.Errorf("shutdown token: %w", err)
	}
	tokenPath := filepath.Join(g.dataDir, tokenFileName)
	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write shutdown token: %w", err)
	}
	defer os.Remove(tokenPath)
	mux.HandleFunc("/shutdown", httpapi.ShutdownHandler(token, srv))

	addr := e.cfg.App.Addr
	if addrOverride != "" {
		addr = addrOverride
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("level=info msg=\"listening\" addr=http://%s data_dir=%s config=%s", ln.Addr(), g.dataDir, e.cfgPath)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		log.Printf("level=info msg=\"shutting down\" reason=%v", context.Cause(ctx))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("level=warn msg=\"shutdown\" err=%v", err)
		}
		<-errCh
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	log.Printf("level=info msg=\"stopped\"")
	return nil
}
