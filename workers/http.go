package workers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"gojedibridge/workers/handlers"
)

// NewRouter mounts the bridge API.
func NewRouter(env *Env) http.Handler {
	api := handlers.New(env.Network, env.Redis, env.Config.Faucet, env.Log)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Options("/*", CORSHeaders)

	r.Get("/state", api.State)
	r.Get("/health", api.HealthCheck)

	r.Post("/swap", api.Swap)
	r.Post("/redeem", api.Redeem)

	r.Get("/swaps/{chain}/{nonce}", api.GetSwap)
	r.Get("/balance/{chain}/{token}/{address}", api.Balance)
	r.Get("/attestations/{status}", api.GetAttestations)

	r.Post("/admin/token", api.IncludeToken)
	r.Delete("/admin/token", api.ExcludeToken)
	r.Post("/admin/chain", api.UpdateChain)
	r.Delete("/admin/chain", api.RemoveChain)

	r.Post("/faucet", api.Faucet)

	return r
}

// Worker_HTTP serves the API until SIGINT/SIGTERM or until ctx is done, then
// calls stop so the other workers exit too.
func Worker_HTTP(ctx context.Context, stop context.CancelFunc, env *Env) error {
	log := env.Log.With("worker", "http")
	log.Info("Starting HTTP service")

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.Config.Server.Port),
		Handler:           NewRouter(env),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if env.Config.Server.UseSSL {
		cert, err := tls.LoadX509KeyPair("certchain.pem", "privatekey.pem")
		if err != nil {
			return fmt.Errorf("cannot load TLS certificate: %w", err)
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	failed := make(chan error, 1)
	go func() {
		var err error
		if env.Config.Server.UseSSL {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()
	log.Infof("HTTP service started on %s", server.Addr)

	// send signal to other threads/workers to exit
	defer stop()

	select {
	case <-done:
	case <-ctx.Done():
	case err := <-failed:
		return fmt.Errorf("error listening to %s: %w", server.Addr, err)
	}
	log.Info("HTTP service stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP service shutdown error: %w", err)
	}
	log.Info("HTTP service shutdown normal")
	return nil
}

func CORSHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, Origin, X-Requested-With")
}
