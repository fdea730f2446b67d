package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/statekit-dev/statekit/internal/config"
	"github.com/statekit-dev/statekit/pkg/devtools"
	"github.com/statekit-dev/statekit/pkg/devtools/bridge"
	"github.com/statekit-dev/statekit/pkg/middleware"
	"github.com/statekit-dev/statekit/pkg/reactive"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		dir     string
		history int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspector bridge with a demo store",
		Long: `Serve starts the inspector bridge around a demo reactive store so an
inspector UI can be exercised without an application. The demo store
ticks a counter once a second; every commit is relayed to connected
inspectors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Host, cfg.Port, err = splitAddr(addr)
				if err != nil {
					return err
				}
			}
			if history > 0 {
				cfg.History = history
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides statekit.json)")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing statekit.json")
	cmd.Flags().IntVar(&history, "history", 0, "time-travel history window (overrides statekit.json)")
	return cmd
}

func serve(cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := []reactive.Option{reactive.WithLogger(logger)}
	if cfg.IndexAlwaysNotifies != nil {
		opts = append(opts, reactive.WithIndexAlwaysNotifies(*cfg.IndexAlwaysNotifies))
	}
	store, err := reactive.New(map[string]any{
		"count":   0,
		"started": time.Now().Format(time.RFC3339),
	}, opts...)
	if err != nil {
		return err
	}
	defer store.Destroy()

	rec := devtools.NewRecorder(store, cfg.History)
	store.Attach(rec)

	// Register the collectors so the listener gauge and /metrics are live.
	middleware.Prometheus(middleware.WithNamespace(cfg.Name))
	store.Attach(middleware.NewListenerGauge())

	srv := bridge.New(rec, bridge.Config{
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		Logger:       logger,
	})
	defer srv.Close()

	// Demo traffic so inspectors have something to watch.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rec.Annotate("tick")
				var cur int
				switch v := store.GetProperty("count").(type) {
				case int:
					cur = v
				case float64: // after a state import every number is float64
					cur = int(v)
				}
				if err := store.SetProperty("count", cur+1); err != nil {
					logger.Error("demo tick failed", "error", err)
				}
			}
		}
	}()
	defer close(done)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", srv.Handler())

	httpSrv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inspector bridge listening", "addr", cfg.Addr())
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		return httpSrv.Close()
	}
}

func splitAddr(addr string) (host string, port int, err error) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid addr %q, want host:port", addr)
	}
	port, err = strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in addr %q", addr)
	}
	if h == "" {
		h = config.DefaultHost
	}
	return h, port, nil
}
